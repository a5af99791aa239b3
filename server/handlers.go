package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"songvault/core/auth"
	"songvault/core/song"
	"songvault/logger"
	"songvault/model"
)

// SongCatalog is what the handlers need from the song service. Kept as an
// interface so tests can substitute an in-memory fake.
type SongCatalog interface {
	List(ctx context.Context) ([]model.SongView, error)
	Get(ctx context.Context, id string) (*model.SongView, error)
	Add(ctx context.Context, upload *model.Upload, meta model.SongMeta) (*model.SongView, error)
	Update(ctx context.Context, id string, meta model.SongMeta) error
	Delete(ctx context.Context, id string) error
}

// Authenticator issues and validates tokens.
type Authenticator interface {
	Login(username, password string) (token string, ok bool, err error)
	Parse(token string) (*auth.Claims, error)
}

// APIHandler handles all API requests.
type APIHandler struct {
	songs SongCatalog
	auth  Authenticator
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(songs SongCatalog, authenticator Authenticator) *APIHandler {
	return &APIHandler{
		songs: songs,
		auth:  authenticator,
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeServiceError maps a song service outcome to a response status.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, song.ErrUnsupportedFormat),
		errors.Is(err, song.ErrInvalidSong),
		errors.Is(err, song.ErrIDMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, song.ErrDuplicateID):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, song.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Error("request failed", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// songMetaRequest is the wire shape of song metadata for create and update.
type songMetaRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	Singer      string `json:"singer"`
	Genre       string `json:"genre"`
	ReleaseDate string `json:"releaseDate"`
}

// meta converts the request shape to service metadata. An unparseable release
// date is left zero for the service's validation to reject.
func (r songMetaRequest) meta() model.SongMeta {
	return model.SongMeta{
		ID:          r.ID,
		Title:       r.Title,
		Album:       r.Album,
		Singer:      r.Singer,
		Genre:       r.Genre,
		ReleaseDate: parseReleaseDate(r.ReleaseDate),
	}
}

func parseReleaseDate(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
