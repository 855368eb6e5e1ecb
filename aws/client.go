// Package aws defines functions used to interact with the AWS API
package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Options configure the S3 client. Endpoint is only needed for S3
// compatible services such as Cloudflare R2 or MinIO.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type S3Client struct {
	C      *s3.Client
	Bucket *string
}

func NewS3(ctx context.Context, o *Options) (*S3Client, error) {
	var loadOpts []func(*config.LoadOptions) error

	// Without static keys the default chain (env, shared config, IAM role) is used
	if o.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKeyID,
			o.SecretAccessKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config, %w", err)
	}

	client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.Region != "" {
			opts.Region = o.Region
		}
		if o.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.Endpoint)
			opts.UsePathStyle = true
		}
	})

	return &S3Client{
		C:      client,
		Bucket: aws.String(o.Bucket),
	}, nil
}

// Download fetches a whole object into memory
func (c *S3Client) Download(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)

	_, err := manager.NewDownloader(c.C).Download(ctx, buf, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey", "NotFound":
				return nil, fmt.Errorf("object '%s' does not exist in bucket '%s'", key, *c.Bucket)
			case "NoSuchBucket":
				return nil, fmt.Errorf("bucket '%s' does not exist", *c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to download '%s', %w", key, err)
	}

	return buf.Bytes(), nil
}
