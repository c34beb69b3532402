package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

type fakeRepo struct {
	mu        sync.Mutex
	images    []*domain.Image
	seq       int
	createErr error
}

func (r *fakeRepo) List(context.Context) ([]*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Image, len(r.images))
	copy(out, r.images)
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.ID == id {
			cp := *img
			return &cp, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (r *fakeRepo) Create(_ context.Context, img *domain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	img.ID = fmt.Sprintf("id-%d", r.seq)
	cp := *img
	r.images = append(r.images, &cp)
	return nil
}

func (r *fakeRepo) Update(_ context.Context, id string, req domain.UpdateImageRequest) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.ID != id {
			continue
		}
		if req.Title != nil {
			img.Title = *req.Title
		}
		if req.FilePath != nil {
			img.FilePath = *req.FilePath
		}
		cp := *img
		return &cp, nil
	}
	return nil, domain.ErrImageNotFound
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, img := range r.images {
		if img.ID == id {
			r.images = append(r.images[:i], r.images[i+1:]...)
			return nil
		}
	}
	return domain.ErrImageNotFound
}

type fakeSink struct {
	mu       sync.Mutex
	files    map[string][]byte
	taken    int // Save reports os.ErrExist this many times first
	saveErr  error
	deleteOK bool
	deleted  []string
}

func newFakeSink() *fakeSink {
	return &fakeSink{files: map[string][]byte{}, deleteOK: true}
}

func (s *fakeSink) Save(_ context.Context, name string, body io.Reader, _ int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken > 0 {
		s.taken--
		return fmt.Errorf("file %q: %w", name, os.ErrExist)
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	s.files[name] = data
	return nil
}

func (s *fakeSink) Open(_ context.Context, name string) (*domain.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return &domain.StoredFile{Name: name, Size: int64(len(data)), Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (s *fakeSink) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, name)
	if !s.deleteOK {
		return errors.New("sink unavailable")
	}
	delete(s.files, name)
	return nil
}

func newTestService(repo *fakeRepo, sink *fakeSink, maxBytes int64) (*imgService, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	svc := NewImgService(repo, sink, Options{
		UploadURLPrefix: "/uploads",
		MaxUploadBytes:  maxBytes,
		Registerer:      reg,
	}).(*imgService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, reg
}

func uploadReq(title, name, body string) domain.UploadImageRequest {
	return domain.UploadImageRequest{
		Title:        title,
		OriginalName: name,
		Size:         int64(len(body)),
		ContentType:  "image/png",
		Body:         strings.NewReader(body),
	}
}

func TestCreateImage(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(repo, newFakeSink(), 0)
	ctx := context.Background()

	img, err := svc.CreateImage(ctx, domain.CreateImageRequest{Title: "Hero", FilePath: "/uploads/hero.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, img.ID)
	assert.Equal(t, "Hero", img.Title)

	_, err = svc.CreateImage(ctx, domain.CreateImageRequest{FilePath: "/uploads/x.png"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
	_, err = svc.CreateImage(ctx, domain.CreateImageRequest{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	all, err := svc.ListImages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "invalid requests persist nothing")
}

func TestUpdateImage(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(repo, newFakeSink(), 0)
	ctx := context.Background()
	img, err := svc.CreateImage(ctx, domain.CreateImageRequest{Title: "Agra", FilePath: "/uploads/agra.png"})
	require.NoError(t, err)

	title := "Delhi"
	updated, err := svc.UpdateImage(ctx, img.ID, domain.UpdateImageRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Delhi", updated.Title)
	assert.Equal(t, "/uploads/agra.png", updated.FilePath)

	same, err := svc.UpdateImage(ctx, img.ID, domain.UpdateImageRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated.Title, same.Title)

	empty := ""
	_, err = svc.UpdateImage(ctx, img.ID, domain.UpdateImageRequest{FilePath: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, err = svc.UpdateImage(ctx, "missing", domain.UpdateImageRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
	_, err = svc.UpdateImage(ctx, "missing", domain.UpdateImageRequest{})
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestGetAndDeleteImage(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(repo, newFakeSink(), 0)
	ctx := context.Background()
	img, err := svc.CreateImage(ctx, domain.CreateImageRequest{Title: "Mumbai", FilePath: "/uploads/m.png"})
	require.NoError(t, err)

	got, err := svc.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", got.Title)

	require.NoError(t, svc.DeleteImage(ctx, img.ID))
	_, err = svc.GetImage(ctx, img.ID)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
	assert.ErrorIs(t, svc.DeleteImage(ctx, img.ID), domain.ErrImageNotFound)
}

func TestUploadImage_Success(t *testing.T) {
	repo := &fakeRepo{}
	sink := newFakeSink()
	svc, reg := newTestService(repo, sink, 1024)

	res, err := svc.UploadImage(context.Background(), uploadReq("Mashal", "logo.png", "png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully", res.Message)
	assert.Regexp(t, `^/uploads/1700000000000-[0-9a-f]{8}-logo\.png$`, res.FilePath)
	require.NotNil(t, res.Image)
	assert.Equal(t, "Mashal", res.Image.Title)
	assert.Equal(t, res.FilePath, res.Image.FilePath)

	name := strings.TrimPrefix(res.FilePath, "/uploads/")
	assert.Equal(t, []byte("png-bytes"), sink.files[name])

	f, err := svc.OpenUpload(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, int64(9), f.Size)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.uploads.WithLabelValues("ok")))
	assert.Equal(t, 9.0, testutil.ToFloat64(svc.uploadBytes))
	n, err := testutil.GatherAndCount(reg, "mashal_img_service_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUploadImage_SameNameTwiceGetsDistinctPaths(t *testing.T) {
	repo := &fakeRepo{}
	sink := newFakeSink()
	svc, _ := newTestService(repo, sink, 0)
	ctx := context.Background()

	first, err := svc.UploadImage(ctx, uploadReq("Hero", "logo.png", "one"))
	require.NoError(t, err)
	second, err := svc.UploadImage(ctx, uploadReq("Hero", "logo.png", "two"))
	require.NoError(t, err)

	assert.NotEqual(t, first.FilePath, second.FilePath)
	assert.Len(t, sink.files, 2)
}

func TestUploadImage_RetriesOnNameCollision(t *testing.T) {
	sink := newFakeSink()
	sink.taken = 2
	svc, _ := newTestService(&fakeRepo{}, sink, 0)

	res, err := svc.UploadImage(context.Background(), uploadReq("Hero", "hero.png", "x"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.FilePath)
	assert.Len(t, sink.files, 1)
}

func TestUploadImage_GivesUpAfterRepeatedCollisions(t *testing.T) {
	sink := newFakeSink()
	sink.taken = maxNameAttempts
	repo := &fakeRepo{}
	svc, _ := newTestService(repo, sink, 0)

	_, err := svc.UploadImage(context.Background(), uploadReq("Hero", "hero.png", "x"))
	require.Error(t, err)
	assert.Empty(t, repo.images)
}

func TestUploadImage_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.UploadImageRequest
		wantErr error
	}{
		{"no file", domain.UploadImageRequest{Title: "Hero"}, domain.ErrNoFile},
		{"no title", uploadReq("", "a.png", "x"), domain.ErrInvalidImage},
		{"declared too large", uploadReq("Hero", "a.png", strings.Repeat("x", 11)), domain.ErrFileTooLarge},
		{"body larger than declared", domain.UploadImageRequest{
			Title: "Hero", OriginalName: "a.png", Size: 1, Body: strings.NewReader(strings.Repeat("x", 50)),
		}, domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			sink := newFakeSink()
			svc, _ := newTestService(repo, sink, 10)

			_, err := svc.UploadImage(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.images)
			assert.Empty(t, sink.files)
			assert.Equal(t, 1.0, testutil.ToFloat64(svc.uploads.WithLabelValues("rejected")))
		})
	}
}

func TestUploadImage_RecordFailureRemovesFile(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	sink := newFakeSink()
	svc, _ := newTestService(repo, sink, 0)

	_, err := svc.UploadImage(context.Background(), uploadReq("Hero", "hero.png", "x"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "db down")
	assert.Len(t, sink.deleted, 1)
	assert.Empty(t, sink.files)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.uploads.WithLabelValues("failed")))
}

func TestUploadImage_RecordFailureWithUndeletableFile(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	sink := newFakeSink()
	sink.deleteOK = false
	svc, _ := newTestService(repo, sink, 0)

	_, err := svc.UploadImage(context.Background(), uploadReq("Hero", "hero.png", "x"))
	require.Error(t, err)
	assert.Len(t, sink.files, 1, "orphan stays when the sink refuses the delete")
}

func TestUploadImage_SinkFailure(t *testing.T) {
	sink := newFakeSink()
	sink.saveErr = errors.New("disk full")
	repo := &fakeRepo{}
	svc, _ := newTestService(repo, sink, 0)

	_, err := svc.UploadImage(context.Background(), uploadReq("Hero", "hero.png", "x"))
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, repo.images)
}

func TestOpenUpload_InvalidName(t *testing.T) {
	svc, _ := newTestService(&fakeRepo{}, newFakeSink(), 0)
	for _, name := range []string{"", "..", "../x.png", "a/b.png"} {
		_, err := svc.OpenUpload(context.Background(), name)
		assert.ErrorIs(t, err, domain.ErrFileNotFound, name)
	}
}

func TestNewImgService_NilRegisterer(t *testing.T) {
	svc := NewImgService(&fakeRepo{}, newFakeSink(), Options{})
	_, err := svc.UploadImage(context.Background(), uploadReq("Hero", "a.png", "x"))
	assert.NoError(t, err)
}
