package source

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/secrets"
)

// S3 reads a secrets document from an S3 object; the key extension picks the format.
type S3 struct {
	Bucket string
	Key    string
	Client s3iface.S3API
	Logger *zap.Logger
}

func (s *S3) String() string { return PrefixS3 + s.Bucket + "/" + s.Key }

func (s *S3) Load(ctx context.Context) (secrets.Record, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("s3").With(zap.String("bucket", s.Bucket), zap.String("key", s.Key))

	var data []byte
	err := retryAWS(ctx, logger, "GetObject", func() error {
		out, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.Bucket),
			Key:    aws.String(s.Key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read secrets object %s", s)
	}

	rec, err := Decode(FormatFromPath(s.Key), data)
	if err != nil {
		return nil, errors.Wrap(err, s.String())
	}
	logger.Debug("Loaded secrets from S3", zap.Int("bytes", len(data)))
	return rec, nil
}
