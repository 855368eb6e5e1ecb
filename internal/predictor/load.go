package predictor

import (
	"bitwise74/diapredict/aws"
	"bitwise74/diapredict/config"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Load reads the model artifact from a local path or, for s3:// URIs,
// downloads it from an S3 compatible bucket
func Load(ctx context.Context, cfg *config.ModelConfig) (*Model, error) {
	if strings.HasPrefix(cfg.Path, "s3://") {
		return loadS3(ctx, cfg)
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact, %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Model loaded", zap.String("path", cfg.Path), zap.String("classifier", m.Classifier.Type))
	return m, nil
}

func loadS3(ctx context.Context, cfg *config.ModelConfig) (*Model, error) {
	u, err := url.Parse(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid model uri, %w", err)
	}

	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("model uri must look like s3://bucket/key, got %q", cfg.Path)
	}

	client, err := aws.NewS3(ctx, &aws.Options{
		Bucket:          bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	b, err := client.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	m, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	zap.L().Info("Model loaded", zap.String("bucket", bucket), zap.String("key", key), zap.String("classifier", m.Classifier.Type))
	return m, nil
}
