package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

type imgRepository struct {
	db *gorm.DB
}

// NewImgRepository creates an ImgRepository on top of a GORM connection (Postgres or SQLite).
func NewImgRepository(db *gorm.DB) domain.ImgRepository {
	return &imgRepository{db: db}
}

// List returns every image, oldest first.
func (r *imgRepository) List(ctx context.Context) ([]*domain.Image, error) {
	images := []*domain.Image{}
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// GetByID retrieves an image by its ID.
func (r *imgRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	var img domain.Image
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// Create inserts a new image, assigning its ID.
func (r *imgRepository) Create(ctx context.Context, img *domain.Image) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

// Update changes the supplied fields and returns the stored record.
func (r *imgRepository) Update(ctx context.Context, id string, req domain.UpdateImageRequest) (*domain.Image, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.FilePath != nil {
		updates["file_path"] = *req.FilePath
	}
	result := r.db.WithContext(ctx).Model(&domain.Image{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrImageNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes an image by its ID.
func (r *imgRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Image{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}
