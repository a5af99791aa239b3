package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"songvault/model"

	"gorm.io/gorm"
)

// SongRepository defines the interface for song data operations. Update and
// Delete assume the row exists; the service checks existence beforehand.
type SongRepository interface {
	ListAll(ctx context.Context) ([]*model.Song, error)
	// GetByID returns (nil, nil) when no row matches.
	GetByID(ctx context.Context, id string) (*model.Song, error)
	Create(ctx context.Context, song *model.Song) error
	Update(ctx context.Context, song *model.Song) error
	Delete(ctx context.Context, song *model.Song) error
	Exists(ctx context.Context, id string) (bool, error)
}

// gormSongRepository implements SongRepository for MySQL via GORM.
type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a new instance of gormSongRepository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) ListAll(ctx context.Context) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) GetByID(ctx context.Context, id string) (*model.Song, error) {
	song := &model.Song{}
	err := r.db.WithContext(ctx).First(song, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // song not found
		}
		return nil, fmt.Errorf("failed to get song %q: %w", id, err)
	}
	return song, nil
}

func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(song).Error; err != nil {
		return fmt.Errorf("failed to create song %q: %w", song.ID, err)
	}
	return nil
}

func (r *gormSongRepository) Update(ctx context.Context, song *model.Song) error {
	song.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(song).Error; err != nil {
		return fmt.Errorf("failed to update song %q: %w", song.ID, err)
	}
	return nil
}

func (r *gormSongRepository) Delete(ctx context.Context, song *model.Song) error {
	if err := r.db.WithContext(ctx).Delete(&model.Song{}, "id = ?", song.ID).Error; err != nil {
		return fmt.Errorf("failed to delete song %q: %w", song.ID, err)
	}
	return nil
}

func (r *gormSongRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Song{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check song %q: %w", id, err)
	}
	return count > 0, nil
}
