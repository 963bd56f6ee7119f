package models

import "time"

// Category groups albums on the public site. Albums block deletion of their
// category; covers are owned and go with it.
type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name"`
	Slug        string    `gorm:"size:100;not null;unique" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`

	Covers []CategoryCover `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"covers,omitempty"`
	Albums []Album         `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Category) TableName() string {
	return "categories"
}
