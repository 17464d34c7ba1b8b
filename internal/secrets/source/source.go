// Package source loads a secrets.Record from where a build keeps its device secrets:
// local files, environment variables, AWS SSM Parameter Store or S3.
package source

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/secrets"
)

// Spec prefixes understood by Open.
const (
	PrefixFile = "file:"
	PrefixEnv  = "env:"
	PrefixSSM  = "ssm:"
	PrefixS3   = "s3://"
)

// Source produces a secrets record.
type Source interface {
	Load(ctx context.Context) (secrets.Record, error)
	String() string
}

// Options configure Open. The AWS clients are created lazily from the default
// credential chain when not provided.
type Options struct {
	Logger    *zap.Logger
	Region    string
	SSMClient ssmiface.SSMAPI
	S3Client  s3iface.S3API
	// Environ overrides the process environment for env: sources.
	Environ map[string]string
}

// Open resolves a source spec:
//
//	path/to/secrets.yaml   local file, format by extension
//	file:path              same, explicit
//	env:PREFIX_            environment variables PREFIX_WIFI_SSID, ...
//	ssm:/path/prefix       SSM parameters /path/prefix/wifi_ssid, ...
//	s3://bucket/key.yaml   object decoded by key extension
func Open(spec string, opts Options) (Source, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	spec = strings.TrimSpace(spec)

	switch {
	case spec == "":
		return nil, errors.New("empty secrets source")
	case strings.HasPrefix(spec, PrefixEnv):
		return &Env{Prefix: strings.TrimPrefix(spec, PrefixEnv), Environ: opts.Environ}, nil
	case strings.HasPrefix(spec, PrefixSSM):
		path := strings.TrimPrefix(spec, PrefixSSM)
		if !strings.HasPrefix(path, "/") {
			return nil, errors.Errorf("ssm path %q must start with '/'", path)
		}
		path = strings.TrimRight(path, "/")
		if path == "" {
			return nil, errors.Errorf("ssm source %q names no parameter path", spec)
		}
		client := opts.SSMClient
		if client == nil {
			sess, err := newSession(opts.Region)
			if err != nil {
				return nil, err
			}
			client = ssm.New(sess)
		}
		return &SSM{Path: path, Client: client, Logger: opts.Logger}, nil
	case strings.HasPrefix(spec, PrefixS3):
		bucket, key, ok := strings.Cut(strings.TrimPrefix(spec, PrefixS3), "/")
		if !ok || bucket == "" || key == "" {
			return nil, errors.Errorf("s3 source %q must look like s3://bucket/key", spec)
		}
		client := opts.S3Client
		if client == nil {
			sess, err := newSession(opts.Region)
			if err != nil {
				return nil, err
			}
			client = s3.New(sess)
		}
		return &S3{Bucket: bucket, Key: key, Client: client, Logger: opts.Logger}, nil
	default:
		return &File{Path: strings.TrimPrefix(spec, PrefixFile)}, nil
	}
}

func newSession(region string) (*session.Session, error) {
	cfg := aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aws session")
	}
	return sess, nil
}
