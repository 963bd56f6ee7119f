package repository

import (
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
)

// PhotoMetadataRepository is the slice of photo data access used by the
// metadata backfill workers
type PhotoMetadataRepository interface {
	GetByID(id uint) (*models.Photo, error)
	ListMissingMetadata(limit int) ([]models.Photo, error)
	UpdateMetadata(id uint, meta media.Metadata) error
}

var _ PhotoMetadataRepository = (*PhotoRepository)(nil)
