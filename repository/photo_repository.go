package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
)

// PhotoRepository handles database operations for Photo entities
type PhotoRepository struct {
	DB *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

func (r *PhotoRepository) WithTx(tx *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: tx}
}

func (r *PhotoRepository) Create(photo *models.Photo) error {
	if err := r.DB.Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo in album %d: %w", photo.AlbumID, err)
	}
	return nil
}

func (r *PhotoRepository) GetByID(id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by ID %d: %w", id, err)
	}
	return &photo, nil
}

// ImagePath returns only the stored image path of a photo
func (r *PhotoRepository) ImagePath(id uint) (string, error) {
	var photo models.Photo
	err := r.DB.Select("id", "image").First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get photo image for ID %d: %w", id, err)
	}
	return photo.Image, nil
}

// ListByAlbum returns the photos of an album in display order
func (r *PhotoRepository) ListByAlbum(albumID uint) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := r.DB.Where("album_id = ?", albumID).
		Order("display_order ASC, uploaded_at ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos of album %d: %w", albumID, err)
	}
	return photos, nil
}

// ImagePathsByAlbum returns the stored paths of every photo of an album
func (r *PhotoRepository) ImagePathsByAlbum(albumID uint) ([]string, error) {
	var paths []string
	if err := r.DB.Model(&models.Photo{}).Where("album_id = ?", albumID).Pluck("image", &paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list photo paths of album %d: %w", albumID, err)
	}
	return paths, nil
}

// CountByAlbums returns photo counts keyed by album id
func (r *PhotoRepository) CountByAlbums(albumIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(albumIDs))
	if len(albumIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AlbumID uint
		Total   int64
	}
	err := r.DB.Model(&models.Photo{}).
		Select("album_id, COUNT(*) AS total").
		Where("album_id IN ?", albumIDs).
		Group("album_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count photos: %w", err)
	}
	for _, row := range rows {
		out[row.AlbumID] = row.Total
	}
	return out, nil
}

// FirstImages returns, per album, the image of the first photo in display order
func (r *PhotoRepository) FirstImages(albumIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(albumIDs))
	if len(albumIDs) == 0 {
		return out, nil
	}
	var photos []models.Photo
	err := r.DB.Select("id", "album_id", "image", "display_order", "uploaded_at").
		Where("album_id IN ?", albumIDs).
		Order("album_id ASC, display_order ASC, uploaded_at ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load first photos: %w", err)
	}
	for _, p := range photos {
		if _, seen := out[p.AlbumID]; !seen {
			out[p.AlbumID] = p.Image
		}
	}
	return out, nil
}

func (r *PhotoRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.DB.Model(&models.Photo{}).Where("id = ?", id).Updates(updates)
	return updateResult(r.DB, &models.Photo{}, id, result, "photo")
}

func (r *PhotoRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Photo{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PhotoRepository) DeleteByAlbum(albumID uint) error {
	if err := r.DB.Where("album_id = ?", albumID).Delete(&models.Photo{}).Error; err != nil {
		return fmt.Errorf("failed to delete photos of album %d: %w", albumID, err)
	}
	return nil
}

// ListMissingMetadata returns up to limit photos whose dimensions or size were
// never captured, oldest first
func (r *PhotoRepository) ListMissingMetadata(limit int) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.DB.Where("width IS NULL OR height IS NULL OR file_size IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos missing metadata: %w", err)
	}
	return photos, nil
}

// UpdateMetadata stores captured dimensions, size and EXIF fields. Nil fields
// are left untouched.
func (r *PhotoRepository) UpdateMetadata(id uint, meta media.Metadata) error {
	updates := map[string]interface{}{}
	if meta.Width != nil {
		updates["width"] = *meta.Width
	}
	if meta.Height != nil {
		updates["height"] = *meta.Height
	}
	if meta.FileSize != nil {
		updates["file_size"] = *meta.FileSize
	}
	if meta.TakenAt != nil {
		updates["taken_at"] = *meta.TakenAt
	}
	if meta.CameraMake != nil {
		updates["camera_make"] = *meta.CameraMake
	}
	if meta.CameraModel != nil {
		updates["camera_model"] = *meta.CameraModel
	}
	return r.Update(id, updates)
}
