package source

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/secrets"
)

// SSM reads secrets from the parameters directly under Path in AWS SSM Parameter Store.
// The last path segment is the field name: /iot/sensor/wifi_ssid -> wifi_ssid.
// SecureString parameters are decrypted.
type SSM struct {
	Path   string
	Client ssmiface.SSMAPI
	Logger *zap.Logger
}

func (s *SSM) String() string { return PrefixSSM + s.Path }

func (s *SSM) Load(ctx context.Context) (secrets.Record, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ssm").With(zap.String("path", s.Path))

	var rec secrets.Record
	err := retryAWS(ctx, logger, "GetParametersByPath", func() error {
		rec = secrets.Record{}
		return s.Client.GetParametersByPathPagesWithContext(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(strings.TrimRight(s.Path, "/")),
			Recursive:      aws.Bool(false),
			WithDecryption: aws.Bool(true),
		}, func(page *ssm.GetParametersByPathOutput, _ bool) bool {
			for _, p := range page.Parameters {
				rec[path.Base(aws.StringValue(p.Name))] = aws.StringValue(p.Value)
			}
			return true
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ssm parameters under %s", s.Path)
	}

	logger.Debug("Loaded secrets from SSM", zap.Strings("fields", rec.Keys()))
	return rec, nil
}
