package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"songvault/logger"
	"songvault/model"

	"github.com/gorilla/mux"
)

// maxUploadMemory bounds the in-memory part of multipart parsing (32 MB).
const maxUploadMemory = 32 << 20

// GetSongsHandler returns every song with presigned download URLs.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	views, err := h.songs.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// GetSongHandler returns one song, or 404 when it does not exist.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := h.songs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if view == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CreateSongHandler handles multipart song uploads.
// Expected form fields:
// - file: the audio file
// - title, singer, releaseDate (YYYY-MM-DD): required metadata
// - id, album, genre: optional metadata
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	// A missing file is handed to the service as a nil upload so the format
	// validation stays in one place.
	var upload *model.Upload
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		upload = &model.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		}
	}

	req := songMetaRequest{
		ID:          r.FormValue("id"),
		Title:       r.FormValue("title"),
		Album:       r.FormValue("album"),
		Singer:      r.FormValue("singer"),
		Genre:       r.FormValue("genre"),
		ReleaseDate: r.FormValue("releaseDate"),
	}

	view, err := h.songs.Add(r.Context(), upload, req.meta())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.Info("song created", logger.String("songId", view.ID))
	w.Header().Set("Location", fmt.Sprintf("/api/songs/%s", view.ID))
	writeJSON(w, http.StatusCreated, view)
}

// UpdateSongHandler overwrites a song's metadata. The audio object is not
// replaced by update.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req songMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.songs.Update(r.Context(), id, req.meta()); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteSongHandler removes a song and its stored object.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.songs.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
