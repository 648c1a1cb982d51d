// Package storage uploads exported plans to S3 and hands out presigned links to them.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultURLTTL is the lifetime of a presigned download link.
const DefaultURLTTL = time.Hour

// KeyForRequest is the object key of the PDF exported for a request.
func KeyForRequest(requestID string) string {
	return fmt.Sprintf("trip_plans/trip_plan_%s.pdf", requestID)
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PutObjectAPI is the part of *s3.Client the store uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignGetAPI is the part of *s3.PresignClient the store uses.
type PresignGetAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var _ ObjectStore = (*S3Store)(nil)

type S3Store struct {
	client    PutObjectAPI
	presigner PresignGetAPI
	bucket    string
	logger    *slog.Logger
}

func NewS3Store(client PutObjectAPI, presigner PresignGetAPI, bucket string, logger *slog.Logger) *S3Store {
	return &S3Store{client: client, presigner: presigner, bucket: bucket, logger: logger}
}

// NewS3StoreFromConfig loads AWS credentials from the environment. A non-empty
// endpoint switches to path-style addressing for S3-compatible stores.
func NewS3StoreFromConfig(ctx context.Context, bucket, region, endpoint string, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("Object store configured", slog.String("bucket", bucket), slog.String("region", region))
	return NewS3Store(client, s3.NewPresignClient(client), bucket, logger), nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	ctx, span := otel.Tracer("ObjectStore").Start(ctx, "Upload", trace.WithAttributes(
		attribute.String("s3.bucket", s.bucket),
		attribute.String("s3.key", key),
	))
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upload object", slog.String("key", key), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "PutObject failed")
		return fmt.Errorf("failed to upload %s to bucket %s: %w", key, s.bucket, err)
	}

	s.logger.InfoContext(ctx, "Uploaded object", slog.String("bucket", s.bucket), slog.String("key", key))
	span.SetStatus(codes.Ok, "uploaded")
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
