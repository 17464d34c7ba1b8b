package source

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// maxElapsed bounds retries of a single AWS read.
const maxElapsed = 30 * time.Second

// retryAWS runs op, retrying throttling and retryable transport errors with
// exponential backoff. Anything that is not an AWS error is returned at once.
func retryAWS(ctx context.Context, logger *zap.Logger, what string, op func() error) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(maxElapsed),
	), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var aerr awserr.Error
		if errors.As(err, &aerr) && (request.IsErrorThrottle(aerr) || request.IsErrorRetryable(aerr)) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, d time.Duration) {
		logger.Warn("Retrying AWS request", zap.String("request", what), zap.Error(err), zap.String("retry_in", d.String()))
	})
}
