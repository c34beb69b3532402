package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"mashalpipes.in/Website/services/img-service/internal/domain"
)

var _ domain.FileSink = (*DiskSink)(nil)

// DiskSink keeps uploads as flat files in one directory.
type DiskSink struct {
	dir string
}

func NewDiskSink(dir string) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskSink{dir: dir}, nil
}

func (s *DiskSink) path(name string) (string, error) {
	if !ValidName(name) {
		return "", domain.ErrFileNotFound
	}
	return filepath.Join(s.dir, name), nil
}

func (s *DiskSink) Save(ctx context.Context, name string, body io.Reader, _ int64, _ string) error {
	p, err := s.path(name)
	if err != nil {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *DiskSink) Open(_ context.Context, name string) (*domain.StoredFile, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, domain.ErrFileNotFound
	}
	return &domain.StoredFile{
		Name:        name,
		Size:        info.Size(),
		ContentType: ContentTypeFor(name),
		ModTime:     info.ModTime(),
		Body:        f,
	}, nil
}

func (s *DiskSink) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
