// Package s3service archives inbound event payloads to S3
package s3service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/utils"
)

// PutObjectAPI is the subset of the S3 client used here
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Service handles S3 operations
type Service struct {
	client     PutObjectAPI
	bucketName string
	now        func() time.Time
}

// NewService creates a new S3 service for bucket
func NewService(ctx context.Context, region, bucket string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewServiceWithClient(s3.NewFromConfig(cfg), bucket), nil
}

// NewServiceWithClient creates a service around an existing client
func NewServiceWithClient(client PutObjectAPI, bucket string) *Service {
	return &Service{client: client, bucketName: bucket, now: time.Now}
}

// ArchiveKey builds the object key for a payload received by function at t
func ArchiveKey(function string, t time.Time, id string) string {
	return function + "/" + t.UTC().Format("2006/01/02") + "/" + id + ".json"
}

// Archive stores a decoded payload and returns its key
func (s *Service) Archive(ctx context.Context, function string, payload []byte) (string, error) {
	key := ArchiveKey(function, s.now(), uuid.New().String())
	if err := s.UploadFile(ctx, key, payload, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// UploadFile uploads a file to S3
func (s *Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to upload file to S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload file: %w", err)
	}

	utils.GetLogger().Debug("Uploaded file to S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return nil
}
