package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config holds the fields this adapter needs: bucket, region, an
// optional custom endpoint (MinIO, R2) and path-style addressing, and
// optional static credentials.
type S3Config struct {
	BucketName      string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Store puts objects into an S3-compatible bucket; the put-only
// surface this pipeline needs.
type S3Store struct {
	client     *s3.Client
	bucketName string
}

// NewS3Store constructs an S3Store. Static credentials are used when both
// AccessKeyID and SecretAccessKey are set, otherwise the default AWS
// credential chain; a non-empty Endpoint (e.g. MinIO/R2) overrides the
// base endpoint; path-style addressing follows UsePathStyle on its own,
// independently of Endpoint.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{client: client, bucketName: cfg.BucketName}, nil
}

// Put uploads content under key, classifying the resulting error as
// transient or permanent the way the blob writer's retry loop expects.
func (s *S3Store) Put(ctx context.Context, key string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/vnd.apache.parquet"),
	})
	if err == nil {
		return nil
	}
	if isTransientS3Error(err) {
		return &TransientError{Err: err}
	}
	return &PermanentError{Err: err}
}

// isTransientS3Error classifies throttling and server errors as
// retryable, and client/auth/not-found errors as permanent.
func isTransientS3Error(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable", "ThrottlingException":
			return true
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "NoSuchBucket":
			return false
		}
	}
	// Unclassified errors (network timeouts, context deadline) are
	// presumed transient: best default for a retry loop guarding against
	// a temporarily unreachable object store.
	return true
}
