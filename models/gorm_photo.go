package models

import "time"

// Photo is a single image of an album. Width, height, file size and the EXIF
// fields are captured at ingestion and are not user editable.
type Photo struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID      uint   `gorm:"not null;index" json:"album_id"`
	Image        string `gorm:"size:255;not null" json:"image"` // path relative to the attachment store
	Caption      string `gorm:"size:500" json:"caption"`
	AltText      string `gorm:"size:200" json:"alt_text"`
	IsFeatured   bool   `gorm:"not null;default:false" json:"is_featured"`
	DisplayOrder int    `gorm:"column:display_order;not null;default:0" json:"order"`

	Width       *int    `gorm:"" json:"width,omitempty"`         // Nullable
	Height      *int    `gorm:"" json:"height,omitempty"`        // Nullable
	FileSize    *int64  `gorm:"" json:"file_size,omitempty"`     // Nullable, bytes
	TakenAt     *int64  `gorm:"index" json:"taken_at,omitempty"` // Nullable, Unix timestamp
	CameraMake  *string `gorm:"size:100" json:"camera_make,omitempty"`
	CameraModel *string `gorm:"size:100" json:"camera_model,omitempty"`

	UploadedAt time.Time `gorm:"autoCreateTime;not null" json:"uploaded_at"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// NeedsMetadata reports whether dimensions or size were never captured.
func (p Photo) NeedsMetadata() bool {
	return p.Width == nil || p.Height == nil || p.FileSize == nil
}
