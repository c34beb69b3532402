package domain

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image")
	ErrNoFile        = errors.New("no file uploaded")
	ErrFileTooLarge  = errors.New("file too large")
	ErrFileNotFound  = errors.New("file not found")
)

// Image is the only persisted entity: a title used as a lookup key and the path of its bytes.
type Image struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null;index"`
	FilePath  string    `json:"filePath" gorm:"column:file_path;type:varchar(1024);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Image) TableName() string {
	return "images"
}

type CreateImageRequest struct {
	Title    string `json:"title"`
	FilePath string `json:"filePath"`
}

// UpdateImageRequest carries only the fields the caller supplied.
type UpdateImageRequest struct {
	Title    *string `json:"title,omitempty"`
	FilePath *string `json:"filePath,omitempty"`
}

// Empty reports whether the request would change nothing.
func (r UpdateImageRequest) Empty() bool {
	return r.Title == nil && r.FilePath == nil
}

type UploadImageRequest struct {
	Title        string
	OriginalName string
	Size         int64
	ContentType  string
	Body         io.Reader
}

type UploadResult struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
	Image    *Image `json:"-"`
}

// StoredFile is an object read back from the sink.
type StoredFile struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Body        io.ReadCloser
}

// Validate checks the fields required on every new record.
func (r CreateImageRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fieldError("title")
	}
	if strings.TrimSpace(r.FilePath) == "" {
		return fieldError("filePath")
	}
	return nil
}

// Validate rejects supplied-but-empty fields; absent fields are left alone.
func (r UpdateImageRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fieldError("title")
	}
	if r.FilePath != nil && strings.TrimSpace(*r.FilePath) == "" {
		return fieldError("filePath")
	}
	return nil
}

// Validate checks the title; the file is checked by the caller before any write.
func (r UploadImageRequest) Validate() error {
	if r.Body == nil {
		return ErrNoFile
	}
	if strings.TrimSpace(r.Title) == "" {
		return fieldError("title")
	}
	return nil
}

func fieldError(field string) error {
	return &ValidationError{Field: field}
}

// ValidationError names the offending field and unwraps to ErrInvalidImage.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidImage
}

type ImgRepository interface {
	List(ctx context.Context) ([]*Image, error)
	GetByID(ctx context.Context, id string) (*Image, error)
	Create(ctx context.Context, img *Image) error
	Update(ctx context.Context, id string, req UpdateImageRequest) (*Image, error)
	Delete(ctx context.Context, id string) error
}

// FileSink stores uploaded bytes under a caller chosen name.
type FileSink interface {
	// Save must fail with os.ErrExist rather than overwrite an existing object.
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (*StoredFile, error)
	Delete(ctx context.Context, name string) error
}

type ImgService interface {
	ListImages(ctx context.Context) ([]*Image, error)
	GetImage(ctx context.Context, id string) (*Image, error)
	CreateImage(ctx context.Context, req CreateImageRequest) (*Image, error)
	UpdateImage(ctx context.Context, id string, req UpdateImageRequest) (*Image, error)
	DeleteImage(ctx context.Context, id string) error
	UploadImage(ctx context.Context, req UploadImageRequest) (*UploadResult, error)
	OpenUpload(ctx context.Context, name string) (*StoredFile, error)
}
