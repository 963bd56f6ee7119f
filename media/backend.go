package media

import (
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/config"
)

// OpenStore returns the attachment store selected by STORAGE_BACKEND.
func OpenStore(cfg config.Config, log *zap.Logger) (Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return NewS3Storage(cfg.S3, cfg.MediaURL, log)
	}
	return NewLocalStorage(cfg.MediaStoragePath, cfg.MediaURL, log)
}
