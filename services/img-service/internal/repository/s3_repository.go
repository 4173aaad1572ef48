package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agencysite.io/cms/services/img-service/internal/domain"
)

type S3Options struct {
	Endpoint  string // empty for AWS itself
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type s3Repository struct {
	client *s3.Client
	bucket string
	tracer trace.Tracer
}

// NewS3Repository talks to any S3-compatible endpoint using path-style addressing.
func NewS3Repository(opts S3Options) domain.ImgRepository {
	o := s3.Options{
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return &s3Repository{
		client: s3.New(o),
		bucket: opts.Bucket,
		tracer: otel.Tracer("img-service/storage/s3"),
	}
}

func (r *s3Repository) Save(ctx context.Context, name string, data []byte, contentType string) error {
	ctx, span := r.tracer.Start(ctx, "S3.Save", trace.WithAttributes(attribute.String("s3.key", name)))
	defer span.End()

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (r *s3Repository) Open(ctx context.Context, name string) (*domain.Object, error) {
	ctx, span := r.tracer.Start(ctx, "S3.Open", trace.WithAttributes(attribute.String("s3.key", name)))
	defer span.End()

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return &domain.Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

func (r *s3Repository) Delete(ctx context.Context, name string) error {
	ctx, span := r.tracer.Start(ctx, "S3.Delete", trace.WithAttributes(attribute.String("s3.key", name)))
	defer span.End()

	// S3 reports success for missing keys
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
