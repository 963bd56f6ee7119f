package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAssetNotFound is returned by Open when no file exists at the path.
var ErrAssetNotFound = errors.New("asset not found")

const maxNameAttempts = 20

// Store defines the interface for saving, retrieving, and deleting attachments.
// Paths are slash-separated and relative to the store root.
type Store interface {
	// Save writes data at relPath, or at an available variant of it when the
	// path is taken, and returns the path actually used. Existing files are
	// never overwritten.
	Save(ctx context.Context, relPath string, data []byte, contentType string) (string, error)
	// Open returns a reader for an asset
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)
	// Delete removes an asset; a missing asset is not an error
	Delete(ctx context.Context, relPath string) error
	// Exists reports whether an asset is stored at relPath
	Exists(ctx context.Context, relPath string) (bool, error)
	// URL returns the public URL of an asset
	URL(relPath string) string
}

// availableName appends "_" and 7 random characters before the extension.
func availableName(relPath string) string {
	ext := path.Ext(relPath)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return strings.TrimSuffix(relPath, ext) + "_" + suffix + ext
}

// LocalStorage implements the Store interface using the local filesystem
type LocalStorage struct {
	basePath string // absolute path to the MEDIA_STORAGE_PATH
	baseURL  string
	log      *zap.Logger
}

// NewLocalStorage creates a new local filesystem store
func NewLocalStorage(basePath, baseURL string, log *zap.Logger) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	log = log.Named("media.store")
	log.Info("initialized local storage", zap.String("path", absBasePath))
	return &LocalStorage{basePath: absBasePath, baseURL: baseURL, log: log}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

func (ls *LocalStorage) Save(_ context.Context, relPath string, data []byte, _ string) (string, error) {
	candidate := relPath
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		fullPath, err := ls.GetFullPath(candidate)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create directory for '%s': %w", candidate, err)
		}

		outFile, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			candidate = availableName(relPath)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create destination file '%s': %w", fullPath, err)
		}

		if _, err := outFile.Write(data); err != nil {
			outFile.Close()
			os.Remove(fullPath)
			return "", fmt.Errorf("failed to write data to '%s': %w", fullPath, err)
		}
		if err := outFile.Close(); err != nil {
			os.Remove(fullPath)
			return "", fmt.Errorf("failed to close '%s': %w", fullPath, err)
		}

		ls.log.Debug("saved asset", zap.String("path", candidate), zap.Int("bytes", len(data)))
		return candidate, nil
	}
	return "", fmt.Errorf("no available name for '%s' after %d attempts", relPath, maxNameAttempts)
}

func (ls *LocalStorage) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	fullPath, err := ls.GetFullPath(relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("'%s': %w", relPath, ErrAssetNotFound)
		}
		return nil, fmt.Errorf("failed to open asset '%s': %w", relPath, err)
	}
	return file, nil
}

// Delete removes an asset file
func (ls *LocalStorage) Delete(_ context.Context, relPath string) error {
	if relPath == "" {
		return nil
	}
	fullPath, err := ls.GetFullPath(relPath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) { // Ignore "not exist" errors
		return fmt.Errorf("failed to delete asset '%s': %w", relPath, err)
	}
	if err == nil {
		ls.log.Debug("deleted asset", zap.String("path", relPath))
	}
	return nil
}

func (ls *LocalStorage) Exists(_ context.Context, relPath string) (bool, error) {
	fullPath, err := ls.GetFullPath(relPath)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat asset '%s': %w", relPath, err)
}

func (ls *LocalStorage) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return ls.baseURL + strings.TrimPrefix(relPath, "/")
}

// GetFullPath calculates the absolute path and performs security check
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	// clean the relative path first to prevent simple traversal tricks
	cleanRelativePath := filepath.Clean(filepath.FromSlash(relativePath))

	fullPath := filepath.Join(ls.basePath, cleanRelativePath)

	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", relativePath, err)
	}

	if absFullPath == ls.basePath || !strings.HasPrefix(absFullPath, ls.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}

	return absFullPath, nil
}
