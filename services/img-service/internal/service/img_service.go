package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"mashalpipes.in/Website/pkg/logger"
	"mashalpipes.in/Website/services/img-service/internal/domain"
	"mashalpipes.in/Website/services/img-service/internal/storage"
)

const maxNameAttempts = 5

type imgService struct {
	repo         domain.ImgRepository
	sink         domain.FileSink
	uploadPrefix string
	maxBytes     int64
	log          *logger.Logger
	now          func() time.Time

	uploads     *prometheus.CounterVec
	uploadBytes prometheus.Counter
}

// Options configures the upload half of the service.
type Options struct {
	UploadURLPrefix string
	MaxUploadBytes  int64
	Logger          *logger.Logger
	// Registerer receives the upload counters; nil skips registration.
	Registerer prometheus.Registerer
}

// NewImgService creates an ImgService over a record store and a file sink.
func NewImgService(repo domain.ImgRepository, sink domain.FileSink, opts Options) domain.ImgService {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.UploadURLPrefix == "" {
		opts.UploadURLPrefix = "/uploads"
	}
	factory := promauto.With(opts.Registerer)
	return &imgService{
		repo:         repo,
		sink:         sink,
		uploadPrefix: opts.UploadURLPrefix,
		maxBytes:     opts.MaxUploadBytes,
		log:          opts.Logger,
		now:          time.Now,
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mashal",
			Subsystem: "img_service",
			Name:      "uploads_total",
			Help:      "Upload attempts by result",
		}, []string{"result"}),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mashal",
			Subsystem: "img_service",
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted by the upload endpoint",
		}),
	}
}

func (s *imgService) ListImages(ctx context.Context) ([]*domain.Image, error) {
	images, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

func (s *imgService) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// CreateImage persists a record after checking both fields are present.
func (s *imgService) CreateImage(ctx context.Context, req domain.CreateImageRequest) (*domain.Image, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	img := &domain.Image{Title: req.Title, FilePath: req.FilePath}
	if err := s.repo.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}
	return img, nil
}

// UpdateImage changes only the supplied fields. Nothing supplied returns the current record.
func (s *imgService) UpdateImage(ctx context.Context, id string, req domain.UpdateImageRequest) (*domain.Image, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.GetImage(ctx, id)
	}
	img, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	return img, nil
}

func (s *imgService) DeleteImage(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// UploadImage writes the file to the sink, then records it. The file is removed again
// when the record cannot be written.
func (s *imgService) UploadImage(ctx context.Context, req domain.UploadImageRequest) (*domain.UploadResult, error) {
	result, err := s.upload(ctx, req)
	switch {
	case err == nil:
		s.uploads.WithLabelValues("ok").Inc()
		s.uploadBytes.Add(float64(req.Size))
	case errors.Is(err, domain.ErrInvalidImage), errors.Is(err, domain.ErrNoFile), errors.Is(err, domain.ErrFileTooLarge):
		s.uploads.WithLabelValues("rejected").Inc()
	default:
		s.uploads.WithLabelValues("failed").Inc()
	}
	return result, err
}

func (s *imgService) upload(ctx context.Context, req domain.UploadImageRequest) (*domain.UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.maxBytes > 0 && req.Size > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	name, err := s.store(ctx, req)
	if err != nil {
		return nil, err
	}
	filePath := path.Join(s.uploadPrefix, name)

	img := &domain.Image{Title: req.Title, FilePath: filePath}
	if err := s.repo.Create(ctx, img); err != nil {
		if delErr := s.sink.Delete(context.WithoutCancel(ctx), name); delErr != nil {
			s.log.WithError(delErr).WithField("file", name).Warn("failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("failed to create image record: %w", err)
	}
	s.log.WithField("file", name).WithField("id", img.ID).Info("image uploaded")

	return &domain.UploadResult{
		Message:  "File uploaded successfully",
		FilePath: filePath,
		Image:    img,
	}, nil
}

// store picks a fresh name until the sink accepts it. Only a name collision is retried,
// and the body is still unread at that point.
func (s *imgService) store(ctx context.Context, req domain.UploadImageRequest) (string, error) {
	body := req.Body
	if s.maxBytes > 0 {
		body = &limitedReader{r: io.LimitReader(req.Body, s.maxBytes+1), max: s.maxBytes}
	}
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := storage.UniqueName(req.OriginalName, s.now())
		err := s.sink.Save(ctx, name, body, req.Size, req.ContentType)
		if err == nil {
			return name, nil
		}
		if errors.Is(err, domain.ErrFileTooLarge) {
			return "", err
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to store file: %w", err)
		}
		s.log.WithField("file", name).Debug("upload name taken, retrying")
	}
	return "", fmt.Errorf("failed to store file: no free name after %d attempts", maxNameAttempts)
}

// OpenUpload returns a stored upload by its bare name.
func (s *imgService) OpenUpload(ctx context.Context, name string) (*domain.StoredFile, error) {
	if !storage.ValidName(name) {
		return nil, domain.ErrFileNotFound
	}
	return s.sink.Open(ctx, name)
}

// limitedReader fails once more than max bytes have been read, so a
// client that lies about its size cannot exceed the limit.
type limitedReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.max {
		return n, domain.ErrFileTooLarge
	}
	return n, err
}
