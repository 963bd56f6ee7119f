package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/ordering"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/utils"
)

const metaTitleLength = 60

// AlbumInput carries album fields. On update nil means unchanged.
type AlbumInput struct {
	CategoryID      *uint
	Name            *string
	Slug            *string
	Date            *time.Time
	Location        *string
	Description     *string
	MetaTitle       *string
	MetaDescription *string
	IsPublished     *bool
	Order           *int
	Cover           *media.Upload
	RemoveCover     bool
}

type AlbumService struct {
	base
	categories *repository.CategoryRepository
	albums     *repository.AlbumRepository
	photos     *repository.PhotoRepository
}

func NewAlbumService(d Deps) *AlbumService {
	return &AlbumService{
		base:       newBase(d),
		categories: repository.NewCategoryRepository(d.DB),
		albums:     repository.NewAlbumRepository(d.DB),
		photos:     repository.NewPhotoRepository(d.DB),
	}
}

func (s *AlbumService) views(ctx context.Context, albums []models.Album) ([]AlbumView, error) {
	ids := make([]uint, 0, len(albums))
	for _, a := range albums {
		ids = append(ids, a.ID)
	}
	photos := s.photos.WithTx(s.DB.WithContext(ctx))
	counts, err := photos.CountByAlbums(ids)
	if err != nil {
		return nil, err
	}
	firsts, err := photos.FirstImages(ids)
	if err != nil {
		return nil, err
	}
	out := make([]AlbumView, 0, len(albums))
	for _, a := range albums {
		out = append(out, albumView(s.Store, a, counts[a.ID], firsts[a.ID]))
	}
	return out, nil
}

// ListPublished returns the public album listing, optionally limited to one
// category slug.
func (s *AlbumService) ListPublished(ctx context.Context, categorySlug string) ([]AlbumView, error) {
	albums, err := s.albums.WithTx(s.DB.WithContext(ctx)).List(repository.AlbumFilter{
		CategorySlug:  categorySlug,
		PublishedOnly: true,
	})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, albums)
}

// List returns albums for the admin, published or not.
func (s *AlbumService) List(ctx context.Context, categoryID uint, sort string) ([]AlbumView, error) {
	albums, err := s.albums.WithTx(s.DB.WithContext(ctx)).List(repository.AlbumFilter{
		CategoryID: categoryID,
		Sort:       sort,
	})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, albums)
}

// GetPublished returns a published album with its photos.
func (s *AlbumService) GetPublished(ctx context.Context, slug string) (*AlbumView, error) {
	album, err := s.albums.WithTx(s.DB.WithContext(ctx)).GetPublishedBySlug(slug)
	if err != nil {
		return nil, err
	}
	first := ""
	if len(album.Photos) > 0 {
		first = album.Photos[0].Image
	}
	v := albumView(s.Store, *album, int64(len(album.Photos)), first)
	v.Photos = make([]PhotoView, 0, len(album.Photos))
	for _, p := range album.Photos {
		v.Photos = append(v.Photos, photoView(s.Store, p))
	}
	return &v, nil
}

// PublishedPhotos returns the photos of a published album in display order.
func (s *AlbumService) PublishedPhotos(ctx context.Context, slug string) ([]PhotoView, error) {
	album, err := s.GetPublished(ctx, slug)
	if err != nil {
		return nil, err
	}
	return album.Photos, nil
}

// Get returns any album with its photos, for the admin.
func (s *AlbumService) Get(ctx context.Context, id uint) (*AlbumView, error) {
	db := s.DB.WithContext(ctx)
	album, err := s.albums.WithTx(db).GetByID(id)
	if err != nil {
		return nil, err
	}
	photos, err := s.photos.WithTx(db).ListByAlbum(id)
	if err != nil {
		return nil, err
	}
	first := ""
	if len(photos) > 0 {
		first = photos[0].Image
	}
	v := albumView(s.Store, *album, int64(len(photos)), first)
	v.Photos = make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		v.Photos = append(v.Photos, photoView(s.Store, p))
	}
	return &v, nil
}

func (s *AlbumService) Create(ctx context.Context, in AlbumInput) (*AlbumView, error) {
	if in.CategoryID == nil || *in.CategoryID == 0 {
		return nil, validationErr("category_id", "câmpul este obligatoriu")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, validationErr("name", "câmpul este obligatoriu")
	}
	if in.Date == nil {
		return nil, validationErr("date", "câmpul este obligatoriu")
	}

	album := models.Album{
		CategoryID: *in.CategoryID,
		Name:       strings.TrimSpace(*in.Name),
		Date:       *in.Date,
	}
	applyAlbumText(&album, in)
	if album.MetaTitle == "" {
		album.MetaTitle = utils.Truncate(album.Name, metaTitleLength)
	}
	if in.IsPublished != nil {
		album.IsPublished = *in.IsPublished
	}
	if in.Order != nil {
		album.DisplayOrder = *in.Order
	}

	var outcome ingest.Outcome
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		if _, err := s.categories.WithTx(tx).GetByID(album.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return validationErr("category_id", "categoria nu există")
			}
			return err
		}

		albums := s.albums.WithTx(tx)
		slug, err := s.resolveSlug(albums, in.Slug, album.Name, 0)
		if err != nil {
			return err
		}
		album.Slug = slug

		if in.Cover != nil {
			res, err := s.Hook.Apply(ingest.Request{
				Kind:       media.KindAlbumCover,
				Attachment: media.Fresh(in.Cover.Filename, in.Cover.Data),
			})
			if err != nil {
				return err
			}
			outcome = res.Outcome
			saved, err := files.save(ctx, media.KindAlbumCover, album.Slug, 0, res)
			if err != nil {
				return err
			}
			album.Cover = &saved
		}
		return albums.Create(&album)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.Event{Type: realtime.EventAlbumChanged, Entity: "album", ID: album.ID, ParentID: album.CategoryID, Outcome: string(outcome)})
	return s.Get(ctx, album.ID)
}

// resolveSlug keeps an explicit slug as given (a clash is a conflict) and
// derives a free one from the name otherwise.
func (s *AlbumService) resolveSlug(albums *repository.AlbumRepository, requested *string, name string, selfID uint) (string, error) {
	if requested != nil {
		if slug := utils.Slugify(*requested); slug != "" {
			taken, err := albums.SlugExists(slug, selfID)
			if err != nil {
				return "", err
			}
			if taken {
				return "", ErrConflict
			}
			return slug, nil
		}
	}
	base := utils.Slugify(name)
	if base == "" {
		return "", validationErr("slug", "nu se poate genera un slug din nume")
	}
	return utils.UniqueSlug(base, func(candidate string) (bool, error) {
		return albums.SlugExists(candidate, selfID)
	})
}

func applyAlbumText(a *models.Album, in AlbumInput) {
	if in.Location != nil {
		a.Location = *in.Location
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.MetaTitle != nil {
		a.MetaTitle = utils.Truncate(*in.MetaTitle, metaTitleLength)
	}
	if in.MetaDescription != nil {
		a.MetaDescription = utils.Truncate(*in.MetaDescription, 160)
	}
}

// Update changes the given fields. The slug only changes when sent; files
// already stored keep their paths.
func (s *AlbumService) Update(ctx context.Context, id uint, in AlbumInput) (*AlbumView, error) {
	var outcome ingest.Outcome
	var categoryID uint
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		albums := s.albums.WithTx(tx)
		current, err := albums.GetByID(id)
		if err != nil {
			return err
		}
		categoryID = current.CategoryID

		updates := map[string]interface{}{}
		if in.CategoryID != nil && *in.CategoryID != current.CategoryID {
			if _, err := s.categories.WithTx(tx).GetByID(*in.CategoryID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return validationErr("category_id", "categoria nu există")
				}
				return err
			}
			updates["category_id"] = *in.CategoryID
			categoryID = *in.CategoryID
		}
		name := current.Name
		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			name = strings.TrimSpace(*in.Name)
			updates["name"] = name
		}
		slug := current.Slug
		if in.Slug != nil {
			slug, err = s.resolveSlug(albums, in.Slug, name, id)
			if err != nil {
				return err
			}
			updates["slug"] = slug
		}
		if in.Date != nil {
			updates["date"] = *in.Date
		}
		text := *current
		applyAlbumText(&text, in)
		if in.Location != nil {
			updates["location"] = text.Location
		}
		if in.Description != nil {
			updates["description"] = text.Description
		}
		if in.MetaTitle != nil {
			if text.MetaTitle == "" {
				text.MetaTitle = utils.Truncate(name, metaTitleLength)
			}
			updates["meta_title"] = text.MetaTitle
		}
		if in.MetaDescription != nil {
			updates["meta_description"] = text.MetaDescription
		}
		if in.IsPublished != nil {
			updates["is_published"] = *in.IsPublished
		}
		if in.Order != nil {
			updates[ordering.Column] = *in.Order
		}

		switch {
		case in.Cover != nil:
			res, err := s.Hook.Apply(ingest.Request{
				Kind:       media.KindAlbumCover,
				Exists:     true,
				LoadPrior:  priorLoader(func() (string, error) { return albums.CoverPath(id) }),
				Attachment: media.Fresh(in.Cover.Filename, in.Cover.Data),
			})
			if err != nil {
				return err
			}
			outcome = res.Outcome
			saved, err := files.save(ctx, media.KindAlbumCover, slug, 0, res)
			if err != nil {
				return err
			}
			updates["cover"] = saved
			files.dropAfterCommit(res.PriorPath)
		case in.RemoveCover && current.Cover != nil:
			updates["cover"] = nil
			files.dropAfterCommit(*current.Cover)
		}

		return albums.Update(id, updates)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.Event{Type: realtime.EventAlbumChanged, Entity: "album", ID: id, ParentID: categoryID, Outcome: string(outcome)})
	return s.Get(ctx, id)
}

// Delete removes an album, its photos, and every attachment they reference.
func (s *AlbumService) Delete(ctx context.Context, id uint) error {
	var categoryID uint
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		albums := s.albums.WithTx(tx)
		album, err := albums.GetByID(id)
		if err != nil {
			return err
		}
		categoryID = album.CategoryID

		photos := s.photos.WithTx(tx)
		paths, err := photos.ImagePathsByAlbum(id)
		if err != nil {
			return err
		}
		files.dropAfterCommit(paths...)
		if album.Cover != nil {
			files.dropAfterCommit(*album.Cover)
		}

		if err := photos.DeleteByAlbum(id); err != nil {
			return err
		}
		return albums.Delete(id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventAlbumDeleted, Entity: "album", ID: id, ParentID: categoryID})
	return nil
}

// Reorder applies drag-and-drop positions to the albums of one category.
func (s *AlbumService) Reorder(ctx context.Context, categoryID uint, entries []ordering.Entry) (int64, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.categories.WithTx(db).GetByID(categoryID); err != nil {
		return 0, err
	}
	updated, err := ordering.Reorder(db, ordering.AlbumsOf(categoryID), entries, s.Log)
	if err != nil {
		s.Log.Error("album reorder failed", zap.Uint("category_id", categoryID), zap.Error(err))
		return 0, err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventAlbumsOrdered, Entity: "album", ParentID: categoryID, Extra: map[string]interface{}{"updated": updated}})
	return updated, nil
}

// IsValidSort reports whether sort names a known admin listing order.
func IsValidSort(sort string) bool {
	return sort == "" || database.IsValidSortOrder(sort)
}
