package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

var _ domain.FileSink = (*AzureBlobSink)(nil)

// AzureBlobSink stores uploads as block blobs in a single container.
type AzureBlobSink struct {
	client    *azblob.Client
	container string
}

// NewAzureBlobSink connects and creates the container when it does not exist yet.
func NewAzureBlobSink(ctx context.Context, connectionString, container string) (*AzureBlobSink, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container %q: %w", container, err)
	}
	return &AzureBlobSink{client: client, container: container}, nil
}

func (s *AzureBlobSink) Save(ctx context.Context, name string, body io.Reader, _ int64, contentType string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	if contentType == "" {
		contentType = ContentTypeFor(name)
	}
	_, err := s.client.UploadStream(ctx, s.container, name, body, &azblob.UploadStreamOptions{
		BlockSize:   int64(1024) * 256, // 256KB
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: to.Ptr(azcore.ETagAny)},
		},
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
			return fmt.Errorf("blob %q: %w", name, os.ErrExist)
		}
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

func (s *AzureBlobSink) Open(ctx context.Context, name string) (*domain.StoredFile, error) {
	if !ValidName(name) {
		return nil, domain.ErrFileNotFound
	}
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	file := &domain.StoredFile{
		Name:        name,
		Size:        -1,
		ContentType: ContentTypeFor(name),
		Body:        resp.Body,
	}
	if resp.ContentLength != nil {
		file.Size = *resp.ContentLength
	}
	if resp.ContentType != nil && *resp.ContentType != "" {
		file.ContentType = *resp.ContentType
	}
	if resp.LastModified != nil {
		file.ModTime = *resp.LastModified
	}
	return file, nil
}

func (s *AzureBlobSink) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return domain.ErrFileNotFound
	}
	if _, err := s.client.DeleteBlob(ctx, s.container, name, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
