package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsl "github.com/aws/smithy-go/logging"

	blog "github.com/pkiexamples/crlkit/log"
)

// S3Config locates an S3-compatible object store.
type S3Config struct {
	// Endpoint is the URL at which the S3-API-compatible object storage
	// service can be reached. This can be used to point to a non-Amazon
	// storage service, or to point to a fake service for testing. It should be
	// left blank by default.
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	// Region is the AWS Region (e.g. us-west-1) to read from.
	Region string `yaml:"region"`
	// CredsFile is the path to a file on disk containing AWS credentials.
	// The format of the credentials file is specified at
	// https://docs.aws.amazon.com/sdkref/latest/guide/file-format.html.
	CredsFile string `yaml:"credsFile"`
}

// awsLogger implements the github.com/aws/smithy-go/logging.Logger interface.
type awsLogger struct {
	blog.Logger
}

func (log awsLogger) Logf(c awsl.Classification, format string, v ...interface{}) {
	switch c {
	case awsl.Debug:
		log.Debugf(format, v...)
	case awsl.Warn:
		log.Warningf(format, v...)
	}
}

// NewS3Client builds an S3 client from c. Shared config files are ignored and
// credentials come only from c.CredsFile, when set, or the environment.
func NewS3Client(ctx context.Context, c S3Config, logger blog.Logger) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithSharedConfigFiles([]string{}),
		config.WithRegion(c.Region),
		config.WithHTTPClient(new(http.Client)),
		config.WithLogger(awsLogger{logger}),
		config.WithClientLogMode(aws.LogRetries),
	}
	if c.CredsFile != "" {
		opts = append(opts, config.WithSharedCredentialsFiles([]string{c.CredsFile}))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if c.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsConfig, s3opts...), nil
}
