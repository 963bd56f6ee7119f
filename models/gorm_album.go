package models

import "time"

// Album represents a published (or draft) set of photos inside a category.
// It corresponds to the 'albums' table.
type Album struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID      uint      `gorm:"not null;index" json:"category_id"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Slug            string    `gorm:"size:200;not null;unique" json:"slug"`
	Date            time.Time `gorm:"not null" json:"date"` // event date
	Location        string    `gorm:"size:200" json:"location"`
	Description     string    `gorm:"type:text" json:"description"`
	Cover           *string   `gorm:"size:255" json:"cover,omitempty"` // Nullable, path relative to the attachment store
	MetaTitle       string    `gorm:"size:60" json:"meta_title"`
	MetaDescription string    `gorm:"size:160" json:"meta_description"`
	IsPublished     bool      `gorm:"not null;default:false;index" json:"is_published"`
	DisplayOrder    int       `gorm:"column:display_order;not null;default:0" json:"order"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"-"`
	Photos   []Photo   `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}
