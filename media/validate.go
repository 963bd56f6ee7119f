package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest accepted image, inclusive.
const MaxUploadBytes int64 = 20 * 1024 * 1024

var allowedExtensions = []string{"jpg", "jpeg", "png", "webp"}

// IsAllowedImage checks the filename extension against the accepted formats,
// ignoring case.
func IsAllowedImage(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateUpload checks extension and size. A limit <= 0 means MaxUploadBytes.
func ValidateUpload(field, filename string, size, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadBytes
	}
	if !IsAllowedImage(filename) {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
		return &ValidationError{
			Field: field,
			Message: fmt.Sprintf("extensia fișierului %q nu este permisă; extensii permise: %s",
				ext, strings.Join(allowedExtensions, ", ")),
		}
	}
	if size > limit {
		return &ValidationError{
			Field: field,
			Message: fmt.Sprintf("Imaginea nu poate depăși %dMB. Dimensiunea curentă: %.1fMB",
				limit/1024/1024, float64(size)/1024/1024),
		}
	}
	return nil
}
