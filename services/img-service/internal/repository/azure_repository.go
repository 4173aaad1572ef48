package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agencysite.io/cms/services/img-service/internal/domain"
)

type azureRepository struct {
	client    *azblob.Client
	container string
	tracer    trace.Tracer
}

// NewAzureRepository connects to Blob Storage and creates the container
// with public blob access if it does not exist yet.
func NewAzureRepository(ctx context.Context, connectionString, container string) (domain.ImgRepository, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	_, err = client.CreateContainer(ctx, container, &azblob.CreateContainerOptions{
		Access: to.Ptr(azblob.PublicAccessTypeBlob),
	})
	if err != nil {
		var respErr *azcore.ResponseError
		if !errors.As(err, &respErr) || respErr.ErrorCode != string(bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("failed to create container: %w", err)
		}
	}
	return &azureRepository{
		client:    client,
		container: container,
		tracer:    otel.Tracer("img-service/storage/azure"),
	}, nil
}

func (r *azureRepository) Save(ctx context.Context, name string, data []byte, contentType string) error {
	ctx, span := r.tracer.Start(ctx, "Azure.Save", trace.WithAttributes(attribute.String("blob.name", name)))
	defer span.End()

	_, err := r.client.UploadBuffer(ctx, r.container, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024) * 256, // 256KB
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

func (r *azureRepository) Open(ctx context.Context, name string) (*domain.Object, error) {
	ctx, span := r.tracer.Start(ctx, "Azure.Open", trace.WithAttributes(attribute.String("blob.name", name)))
	defer span.End()

	resp, err := r.client.DownloadStream(ctx, r.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	obj := &domain.Object{Body: resp.Body, ContentType: "application/octet-stream", Size: -1}
	if resp.ContentType != nil {
		obj.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		obj.Size = *resp.ContentLength
	}
	return obj, nil
}

func (r *azureRepository) Delete(ctx context.Context, name string) error {
	ctx, span := r.tracer.Start(ctx, "Azure.Delete", trace.WithAttributes(attribute.String("blob.name", name)))
	defer span.End()

	_, err := r.client.DeleteBlob(ctx, r.container, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		span.RecordError(err)
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

