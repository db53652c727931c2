package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/podforge/podforge-api/internal/config"
	"github.com/podforge/podforge-api/internal/workflow"
)

// S3Store implements the workflow.ArtifactStore interface against an S3
// bucket. Locations are s3:// URLs.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// Ensure S3Store implements workflow.ArtifactStore.
var _ workflow.ArtifactStore = (*S3Store)(nil)

// NewS3Store creates an S3 artifact store using the default AWS credential
// chain.
func NewS3Store(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		logger: logger.With(slog.String("component", "s3_artifact_store")),
	}, nil
}

// Put uploads the artifact and returns its s3:// location.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q to bucket %q: %w", key, s.bucket, err)
	}

	s.logger.DebugContext(ctx, "artifact uploaded",
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
