package song

import (
	"path/filepath"
	"strings"

	"songvault/model"
)

// Accepted audio uploads. A file passes when either its declared MIME type or
// its filename extension is in the set; both comparisons are case-insensitive.
var (
	acceptedMIMETypes = map[string]bool{
		"audio/mpeg":     true,
		"audio/wav":      true,
		"audio/x-wav":    true,
		"audio/x-ms-wma": true,
		"audio/aac":      true,
		"audio/ogg":      true,
		"audio/flac":     true,
		"audio/mp4":      true,
		"audio/x-m4a":    true,
	}

	acceptedExtensions = map[string]bool{
		".mp3":  true,
		".wav":  true,
		".wma":  true,
		".aac":  true,
		".ogg":  true,
		".flac": true,
		".m4a":  true,
	}
)

// isSupportedAudio reports whether the upload looks like an accepted audio
// file. A nil upload or one without a declared content type or filename never
// passes.
func isSupportedAudio(upload *model.Upload) bool {
	if upload == nil {
		return false
	}
	if upload.ContentType == "" || upload.Filename == "" {
		return false
	}

	mimeType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	// Declared types may carry parameters, e.g. "audio/ogg; codecs=opus".
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if acceptedMIMETypes[mimeType] {
		return true
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	return acceptedExtensions[ext]
}
