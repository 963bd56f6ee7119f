package repository

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/models"
)

// AlbumRepository handles database operations for Album entities
type AlbumRepository struct {
	DB *gorm.DB
}

// NewAlbumRepository creates a new instance of AlbumRepository
func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{DB: db}
}

func (r *AlbumRepository) WithTx(tx *gorm.DB) *AlbumRepository {
	return &AlbumRepository{DB: tx}
}

// AlbumFilter narrows admin and public album listings
type AlbumFilter struct {
	CategoryID    uint
	CategorySlug  string
	PublishedOnly bool
	Sort          string // one of the database.Sort* values
}

// Create creates a new album record in the database
func (r *AlbumRepository) Create(album *models.Album) error {
	if err := r.DB.Create(album).Error; err != nil {
		return fmt.Errorf("failed to create album %s: %w", album.Name, mapWriteError(err))
	}
	return nil
}

// GetByID retrieves an album by its ID, with its category
func (r *AlbumRepository) GetByID(id uint) (*models.Album, error) {
	var album models.Album
	err := r.DB.Preload("Category").First(&album, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by ID %d: %w", id, err)
	}
	return &album, nil
}

// GetPublishedBySlug retrieves a published album with its category and
// photos in display order
func (r *AlbumRepository) GetPublishedBySlug(slug string) (*models.Album, error) {
	var album models.Album
	err := r.DB.Preload("Category").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, uploaded_at ASC, id ASC")
		}).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&album).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by slug %s: %w", slug, err)
	}
	return &album, nil
}

// CoverPath returns only the stored cover of an album ("" when unset)
func (r *AlbumRepository) CoverPath(id uint) (string, error) {
	var album models.Album
	err := r.DB.Select("id", "cover").First(&album, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get cover of album %d: %w", id, err)
	}
	if album.Cover == nil {
		return "", nil
	}
	return *album.Cover, nil
}

// List returns albums matching the filter, with their category loaded.
func (r *AlbumRepository) List(filter AlbumFilter) ([]models.Album, error) {
	query := database.Builder.Select("albums.id").From("albums")
	if filter.PublishedOnly {
		query = query.Where(sq.Eq{"albums.is_published": true})
	}
	if filter.CategoryID != 0 {
		query = query.Where(sq.Eq{"albums.category_id": filter.CategoryID})
	}
	if filter.CategorySlug != "" {
		query = query.Join("categories ON categories.id = albums.category_id").
			Where(sq.Eq{"categories.slug": filter.CategorySlug})
	}

	var ids []uint
	if err := database.Scan(r.DB, query, &ids); err != nil {
		return nil, fmt.Errorf("failed to filter albums: %w", err)
	}

	albums := []models.Album{}
	if len(ids) == 0 {
		return albums, nil
	}
	err := r.DB.Preload("Category").
		Where("id IN ?", ids).
		Order(database.AlbumOrderClause(filter.Sort)).
		Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

func (r *AlbumRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.DB.Model(&models.Album{}).Where("id = ?", id).Updates(updates)
	return updateResult(r.DB, &models.Album{}, id, result, "album")
}

// Delete removes the album row. Photos must be removed first by the caller.
func (r *AlbumRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Album{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete album ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SlugExists reports whether any album already uses slug
func (r *AlbumRepository) SlugExists(slug string, exceptID uint) (bool, error) {
	var count int64
	q := r.DB.Model(&models.Album{}).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check album slug %s: %w", slug, err)
	}
	return count > 0, nil
}
