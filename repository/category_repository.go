package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/models"
)

// CategoryRepository handles database operations for Category entities
type CategoryRepository struct {
	DB *gorm.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// WithTx returns a repository bound to the given transaction
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: tx}
}

func (r *CategoryRepository) Create(category *models.Category) error {
	if err := r.DB.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category %s: %w", category.Name, mapWriteError(err))
	}
	return nil
}

func (r *CategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	err := r.DB.First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get category by ID %d: %w", id, err)
	}
	return &category, nil
}

// GetWithCovers loads a category with all of its covers in display order
func (r *CategoryRepository) GetWithCovers(id uint) (*models.Category, error) {
	var category models.Category
	err := r.DB.Preload("Covers", coversInOrder).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get category by ID %d: %w", id, err)
	}
	return &category, nil
}

// GetActiveBySlug loads an active category together with its active covers.
func (r *CategoryRepository) GetActiveBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := r.DB.Preload("Covers", activeCoversInOrder).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get category by slug %s: %w", slug, err)
	}
	return &category, nil
}

// ListActive retrieves active categories with their active covers, by name
func (r *CategoryRepository) ListActive() ([]models.Category, error) {
	var categories []models.Category
	err := r.DB.Preload("Covers", activeCoversInOrder).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ListAll retrieves every category with all covers, for the admin
func (r *CategoryRepository) ListAll() ([]models.Category, error) {
	var categories []models.Category
	err := r.DB.Preload("Covers", coversInOrder).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Update writes the given columns; RowsAffected == 0 is reported as not found
func (r *CategoryRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.DB.Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	return updateResult(r.DB, &models.Category{}, id, result, "category")
}

// Delete removes the category row. Covers must be removed first by the caller.
func (r *CategoryRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountAlbums returns how many albums (published or not) reference a category
func (r *CategoryRepository) CountAlbums(id uint) (int64, error) {
	var count int64
	if err := r.DB.Model(&models.Album{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count albums of category %d: %w", id, err)
	}
	return count, nil
}

// PublishedAlbumCounts returns published album counts keyed by category id
func (r *CategoryRepository) PublishedAlbumCounts(ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := r.DB.Model(&models.Album{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ? AND is_published = ?", ids, true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count published albums: %w", err)
	}
	for _, row := range rows {
		out[row.CategoryID] = row.Total
	}
	return out, nil
}

func activeCoversInOrder(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("display_order ASC, id ASC")
}

func coversInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}
