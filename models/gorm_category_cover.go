package models

import "time"

// CategoryCover is one of the rotating hero images of a category.
type CategoryCover struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`
	Image        string    `gorm:"size:255;not null" json:"image"` // path relative to the attachment store
	Title        string    `gorm:"size:200" json:"title"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0" json:"order"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (CategoryCover) TableName() string {
	return "category_covers"
}
