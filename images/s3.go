// Package images stores submitted pictures where the classifier can read them.
package images

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// PutObjectAPI is the subset of the S3 client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	api    PutObjectAPI
	bucket string
	logger *zap.Logger
}

func NewS3Store(api PutObjectAPI, bucket string, logger *zap.Logger) *S3Store {
	return &S3Store{
		api:    api,
		bucket: bucket,
		logger: logger,
	}
}

// Put uploads body under key in the configured bucket.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	s.logger.Debug("image stored", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}
