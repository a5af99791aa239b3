package model

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	maxTitleLen  = 100
	maxAlbumLen  = 100
	maxSingerLen = 100
	maxGenreLen  = 50
)

// Song represents a catalog entry backed by an audio object in storage.
type Song struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Album       string    `gorm:"size:100" json:"album"`
	Singer      string    `gorm:"size:100;not null" json:"singer"`
	Genre       string    `gorm:"size:50" json:"genre"`
	ReleaseDate time.Time `json:"releaseDate"`
	// StorageURL is the raw reference to the stored audio object. Never set by
	// callers and never exposed in API responses; reads hand out presigned URLs.
	StorageURL string    `gorm:"size:512;not null" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// SongView is the externally-shaped representation of a Song. StorageURL here
// is a freshly presigned, time-limited download URL, not the stored reference.
type SongView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Album       string    `json:"album,omitempty"`
	Singer      string    `json:"singer"`
	Genre       string    `json:"genre,omitempty"`
	ReleaseDate time.Time `json:"releaseDate"`
	StorageURL  string    `json:"storageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SongMeta carries caller-supplied song metadata for create and update.
type SongMeta struct {
	ID          string
	Title       string
	Album       string
	Singer      string
	Genre       string
	ReleaseDate time.Time
}

// Validate checks the metadata field constraints.
func (m SongMeta) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(m.Title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	if strings.TrimSpace(m.Singer) == "" {
		return fmt.Errorf("singer is required")
	}
	if len(m.Singer) > maxSingerLen {
		return fmt.Errorf("singer exceeds %d characters", maxSingerLen)
	}
	if len(m.Album) > maxAlbumLen {
		return fmt.Errorf("album exceeds %d characters", maxAlbumLen)
	}
	if len(m.Genre) > maxGenreLen {
		return fmt.Errorf("genre exceeds %d characters", maxGenreLen)
	}
	if m.ReleaseDate.IsZero() {
		return fmt.Errorf("releaseDate is required")
	}
	return nil
}

// Apply copies the metadata fields onto a song row, leaving the id, storage
// reference and timestamps untouched.
func (m SongMeta) Apply(s *Song) {
	s.Title = m.Title
	s.Album = m.Album
	s.Singer = m.Singer
	s.Genre = m.Genre
	s.ReleaseDate = m.ReleaseDate
}

// View maps a row to its external representation. The presigned URL is filled
// in by the service.
func (s *Song) View() SongView {
	return SongView{
		ID:          s.ID,
		Title:       s.Title,
		Album:       s.Album,
		Singer:      s.Singer,
		Genre:       s.Genre,
		ReleaseDate: s.ReleaseDate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Upload describes an inbound audio file stream and its declared identity.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}
