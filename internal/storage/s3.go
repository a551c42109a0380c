package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/config"
)

// DeleteOutcome distinguishes a real delete from an already-absent object;
// both are success to the caller.
type DeleteOutcome struct {
	AlreadyAbsent bool
}

type S3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
	logger        *logrus.Logger
}

func NewS3Store(cfg *config.Config, logger *logrus.Logger) (*S3Store, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	creds := credentials.NewStaticCredentialsProvider(
		cfg.Storage.AccessKeyID,
		cfg.Storage.SecretAccessKey,
		"",
	)

	awsCfg := aws.Config{
		Region:      cfg.Storage.Region,
		Credentials: creds,
	}

	endpoint := strings.TrimSuffix(cfg.Storage.Endpoint, "/")

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = endpoint != ""
	})

	presignClient := s3.NewPresignClient(client)

	logger.WithFields(logrus.Fields{
		"bucket":   cfg.Storage.Bucket,
		"endpoint": endpoint,
	}).Info("Object storage initialized")

	return &S3Store{
		client:        client,
		presignClient: presignClient,
		bucket:        cfg.Storage.Bucket,
		presignExpiry: cfg.Storage.PresignExpiry,
		logger:        logger,
	}, nil
}

// PresignUpload issues a time-bounded PUT URL for the canonical object key.
func (s *S3Store) PresignUpload(ctx context.Context, key string) (string, time.Time, error) {
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	return request.URL, time.Now().Add(s.presignExpiry), nil
}

// PresignDownload issues a time-bounded GET URL. Ownership must be verified
// by the caller before asking for the URL.
func (s *S3Store) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download for %s: %w", key, err)
	}

	return request.URL, time.Now().Add(s.presignExpiry), nil
}

// Delete removes an object. An object the backend reports as already absent
// is success, not an error.
func (s *S3Store) Delete(ctx context.Context, key string) (DeleteOutcome, error) {
	exists, err := s.exists(ctx, key)
	if err != nil {
		return DeleteOutcome{}, err
	}
	if !exists {
		return DeleteOutcome{AlreadyAbsent: true}, nil
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return DeleteOutcome{}, fmt.Errorf("failed to delete %s: %w", key, err)
	}

	s.logger.WithField("key", key).Debug("Object deleted")
	return DeleteOutcome{}, nil
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}

		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey" {
				return false, nil
			}
		}

		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}

	return true, nil
}
