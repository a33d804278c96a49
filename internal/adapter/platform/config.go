package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// Credentials are optional static credentials. When empty, the default
// chain is used: environment, shared config files, then the execution role.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

func (c Credentials) optFns() []func(*config.LoadOptions) error {
	var fns []func(*config.LoadOptions) error
	if c.Region != "" {
		fns = append(fns, config.WithRegion(c.Region))
	}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		fns = append(fns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}
	return fns
}

// LoadConfig returns the AWS config every platform client is built from.
func LoadConfig(ctx context.Context, creds Credentials) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, creds.optFns()...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

var throttleCodes = map[string]bool{
	"Throttling":               true,
	"ThrottlingException":      true,
	"ThrottledException":       true,
	"TooManyRequestsException": true,
	"RequestLimitExceeded":     true,
	"SlowDown":                 true,
	"RequestTimeout":           true,
	"ServiceUnavailable":       true,
	"InternalError":            true,
}

// mapAPIError wraps err with the matching port sentinel. notFound lists the
// error codes that mean the requested thing does not exist.
func mapAPIError(err error, notFound error, notFoundCodes ...string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		// No API response at all: connection or timeout trouble.
		return fmt.Errorf("%w: %v", port.ErrTransient, err)
	}
	for _, code := range notFoundCodes {
		if apiErr.ErrorCode() == code {
			return fmt.Errorf("%w: %v", notFound, err)
		}
	}
	if throttleCodes[apiErr.ErrorCode()] || apiErr.ErrorFault() == smithy.FaultServer {
		return fmt.Errorf("%w: %v", port.ErrTransient, err)
	}
	return err
}
