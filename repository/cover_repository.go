package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/models"
)

// CoverRepository handles database operations for CategoryCover entities
type CoverRepository struct {
	DB *gorm.DB
}

func NewCoverRepository(db *gorm.DB) *CoverRepository {
	return &CoverRepository{DB: db}
}

func (r *CoverRepository) WithTx(tx *gorm.DB) *CoverRepository {
	return &CoverRepository{DB: tx}
}

func (r *CoverRepository) Create(cover *models.CategoryCover) error {
	if err := r.DB.Create(cover).Error; err != nil {
		return fmt.Errorf("failed to create cover for category %d: %w", cover.CategoryID, err)
	}
	return nil
}

func (r *CoverRepository) GetByID(id uint) (*models.CategoryCover, error) {
	var cover models.CategoryCover
	err := r.DB.First(&cover, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get cover by ID %d: %w", id, err)
	}
	return &cover, nil
}

// ImagePath returns only the stored image path of a cover
func (r *CoverRepository) ImagePath(id uint) (string, error) {
	var cover models.CategoryCover
	err := r.DB.Select("id", "image").First(&cover, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get cover image for ID %d: %w", id, err)
	}
	return cover.Image, nil
}

func (r *CoverRepository) ListByCategory(categoryID uint) ([]models.CategoryCover, error) {
	var covers []models.CategoryCover
	err := r.DB.Where("category_id = ?", categoryID).Order("display_order ASC, id ASC").Find(&covers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list covers of category %d: %w", categoryID, err)
	}
	return covers, nil
}

func (r *CoverRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.DB.Model(&models.CategoryCover{}).Where("id = ?", id).Updates(updates)
	return updateResult(r.DB, &models.CategoryCover{}, id, result, "cover")
}

func (r *CoverRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.CategoryCover{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete cover ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByCategory removes every cover of a category
func (r *CoverRepository) DeleteByCategory(categoryID uint) error {
	if err := r.DB.Where("category_id = ?", categoryID).Delete(&models.CategoryCover{}).Error; err != nil {
		return fmt.Errorf("failed to delete covers of category %d: %w", categoryID, err)
	}
	return nil
}
