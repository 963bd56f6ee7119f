package services

import (
	"fmt"
	"time"

	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/utils"
)

const dateLayout = "2006-01-02"

type CoverView struct {
	ID         uint      `json:"id"`
	CategoryID uint      `json:"category_id"`
	Image      string    `json:"image"`
	ImageURL   string    `json:"image_url"`
	Title      string    `json:"title"`
	Order      int       `json:"order"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type CategoryView struct {
	ID                  uint        `json:"id"`
	Name                string      `json:"name"`
	Slug                string      `json:"slug"`
	Description         string      `json:"description"`
	IsActive            bool        `json:"is_active"`
	CreatedAt           time.Time   `json:"created_at"`
	CoverURL            *string     `json:"cover_url"`
	Covers              []CoverView `json:"covers"`
	PublishedAlbumCount int64       `json:"published_album_count"`
}

type PhotoView struct {
	ID          uint      `json:"id"`
	AlbumID     uint      `json:"album_id"`
	Image       string    `json:"image"`
	URL         string    `json:"url"`
	Caption     string    `json:"caption"`
	AltText     string    `json:"alt_text"`
	IsFeatured  bool      `json:"is_featured"`
	Order       int       `json:"order"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	FileSize    *int64    `json:"file_size"`
	TakenAt     *int64    `json:"taken_at,omitempty"`
	CameraMake  *string   `json:"camera_make,omitempty"`
	CameraModel *string   `json:"camera_model,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// UploadedPhoto is the bulk upload response item.
type UploadedPhoto struct {
	ID         uint   `json:"id"`
	URL        string `json:"url"`
	Order      int    `json:"order"`
	IsFeatured bool   `json:"is_featured"`
	Caption    string `json:"caption"`
}

type AlbumView struct {
	ID              uint        `json:"id"`
	CategoryID      uint        `json:"category_id"`
	CategoryName    string      `json:"category_name"`
	CategorySlug    string      `json:"category_slug"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Date            string      `json:"date"`
	Location        string      `json:"location"`
	Description     string      `json:"description"`
	DescriptionHTML string      `json:"description_html"`
	Cover           *string     `json:"cover"`
	CoverURL        *string     `json:"cover_url"`
	MetaTitle       string      `json:"meta_title"`
	MetaDescription string      `json:"meta_description"`
	IsPublished     bool        `json:"is_published"`
	Order           int         `json:"order"`
	PhotoCount      int64       `json:"photo_count"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Photos          []PhotoView `json:"photos,omitempty"`
}

func coverView(store media.Store, c models.CategoryCover) CoverView {
	return CoverView{
		ID:         c.ID,
		CategoryID: c.CategoryID,
		Image:      c.Image,
		ImageURL:   store.URL(c.Image),
		Title:      c.Title,
		Order:      c.DisplayOrder,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
	}
}

// featuredCover picks the active cover with the highest order; ties go to the
// most recently created one.
func featuredCover(covers []models.CategoryCover) *models.CategoryCover {
	var best *models.CategoryCover
	for i := range covers {
		c := &covers[i]
		if !c.IsActive {
			continue
		}
		if best == nil || c.DisplayOrder > best.DisplayOrder ||
			(c.DisplayOrder == best.DisplayOrder && c.CreatedAt.After(best.CreatedAt)) {
			best = c
		}
	}
	return best
}

func categoryView(store media.Store, c models.Category, publishedAlbums int64) CategoryView {
	v := CategoryView{
		ID:                  c.ID,
		Name:                c.Name,
		Slug:                c.Slug,
		Description:         c.Description,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
		Covers:              make([]CoverView, 0, len(c.Covers)),
		PublishedAlbumCount: publishedAlbums,
	}
	for _, cover := range c.Covers {
		v.Covers = append(v.Covers, coverView(store, cover))
	}
	if best := featuredCover(c.Covers); best != nil {
		url := store.URL(best.Image)
		v.CoverURL = &url
	}
	return v
}

func photoView(store media.Store, p models.Photo) PhotoView {
	return PhotoView{
		ID:          p.ID,
		AlbumID:     p.AlbumID,
		Image:       p.Image,
		URL:         store.URL(p.Image),
		Caption:     p.Caption,
		AltText:     p.AltText,
		IsFeatured:  p.IsFeatured,
		Order:       p.DisplayOrder,
		Width:       p.Width,
		Height:      p.Height,
		FileSize:    p.FileSize,
		TakenAt:     p.TakenAt,
		CameraMake:  p.CameraMake,
		CameraModel: p.CameraModel,
		UploadedAt:  p.UploadedAt,
	}
}

// effectiveMetaDescription falls back to the description and then to a
// generic line naming the album.
func effectiveMetaDescription(a models.Album) string {
	if a.MetaDescription != "" {
		return a.MetaDescription
	}
	if a.Description != "" {
		return utils.Truncate(a.Description, 160)
	}
	return fmt.Sprintf("Album foto %s", a.Name)
}

// albumView renders an album; firstPhoto is the fallback cover image.
func albumView(store media.Store, a models.Album, photoCount int64, firstPhoto string) AlbumView {
	v := AlbumView{
		ID:              a.ID,
		CategoryID:      a.CategoryID,
		Name:            a.Name,
		Slug:            a.Slug,
		Date:            a.Date.Format(dateLayout),
		Location:        a.Location,
		Description:     a.Description,
		DescriptionHTML: utils.RenderMarkdown(a.Description),
		Cover:           a.Cover,
		MetaTitle:       a.MetaTitle,
		MetaDescription: effectiveMetaDescription(a),
		IsPublished:     a.IsPublished,
		Order:           a.DisplayOrder,
		PhotoCount:      photoCount,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if a.Category != nil {
		v.CategoryName = a.Category.Name
		v.CategorySlug = a.Category.Slug
	}
	switch {
	case a.Cover != nil && *a.Cover != "":
		url := store.URL(*a.Cover)
		v.CoverURL = &url
	case firstPhoto != "":
		url := store.URL(firstPhoto)
		v.CoverURL = &url
	}
	return v
}
