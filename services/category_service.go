package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/utils"
)

type CategoryInput struct {
	Name        string  `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type CategoryService struct {
	base
	categories *repository.CategoryRepository
	covers     *repository.CoverRepository
}

func NewCategoryService(d Deps) *CategoryService {
	return &CategoryService{
		base:       newBase(d),
		categories: repository.NewCategoryRepository(d.DB),
		covers:     repository.NewCoverRepository(d.DB),
	}
}

// ListActive returns the public category listing.
func (s *CategoryService) ListActive(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.categories.WithTx(s.DB.WithContext(ctx)).ListActive()
	if err != nil {
		return nil, err
	}
	return s.views(ctx, categories)
}

// ListAll returns every category with all covers, for the admin.
func (s *CategoryService) ListAll(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.categories.WithTx(s.DB.WithContext(ctx)).ListAll()
	if err != nil {
		return nil, err
	}
	return s.views(ctx, categories)
}

func (s *CategoryService) GetActiveBySlug(ctx context.Context, slug string) (*CategoryView, error) {
	category, err := s.categories.WithTx(s.DB.WithContext(ctx)).GetActiveBySlug(slug)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.Category{*category})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CategoryService) views(ctx context.Context, categories []models.Category) ([]CategoryView, error) {
	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	counts, err := s.categories.WithTx(s.DB.WithContext(ctx)).PublishedAlbumCounts(ids)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryView(s.Store, c, counts[c.ID]))
	}
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*CategoryView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationErr("name", "câmpul este obligatoriu")
	}
	category := models.Category{Name: name, IsActive: true}
	if in.Slug != nil {
		category.Slug = utils.Slugify(*in.Slug)
	}
	if category.Slug == "" {
		category.Slug = utils.Slugify(name)
	}
	if category.Slug == "" {
		return nil, validationErr("slug", "nu se poate genera un slug din nume")
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	err := s.write(ctx, func(tx *gorm.DB, _ *fileSet) error {
		if err := s.categories.WithTx(tx).Create(&category); err != nil {
			return err
		}
		// is_active=false has to be written explicitly past the column default
		if !category.IsActive {
			return s.categories.WithTx(tx).Update(category.ID, map[string]interface{}{"is_active": false})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventCategoryChange, Entity: "category", ID: category.ID})
	return s.Get(ctx, category.ID)
}

// Update changes the given fields. A set slug is kept unless an empty slug is
// sent, which regenerates it from the (new) name. A different slug is rejected.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*CategoryView, error) {
	err := s.write(ctx, func(tx *gorm.DB, _ *fileSet) error {
		repo := s.categories.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		name := current.Name
		if n := strings.TrimSpace(in.Name); n != "" {
			name = n
			updates["name"] = n
		}
		if in.Slug != nil {
			slug := utils.Slugify(*in.Slug)
			switch {
			case slug == current.Slug:
			case slug != "":
				return validationErr("slug", "slug-ul nu poate fi schimbat; trimiteți un slug gol pentru a-l regenera")
			default:
				if slug = utils.Slugify(name); slug == "" {
					return validationErr("slug", "slug invalid")
				}
				updates["slug"] = slug
			}
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		return repo.Update(id, updates)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventCategoryChange, Entity: "category", ID: id})

	return s.Get(ctx, id)
}

// Get returns one category with all covers, for the admin.
func (s *CategoryService) Get(ctx context.Context, id uint) (*CategoryView, error) {
	category, err := s.categories.WithTx(s.DB.WithContext(ctx)).GetWithCovers(id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.Category{*category})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes a category and its covers. It is refused while any album
// still references the category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		repo := s.categories.WithTx(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}
		albums, err := repo.CountAlbums(id)
		if err != nil {
			return err
		}
		if albums > 0 {
			return fmt.Errorf("%w: %d album(s)", ErrCategoryInUse, albums)
		}

		covers, err := s.covers.WithTx(tx).ListByCategory(id)
		if err != nil {
			return err
		}
		for _, c := range covers {
			files.dropAfterCommit(c.Image)
		}
		if err := s.covers.WithTx(tx).DeleteByCategory(id); err != nil {
			return err
		}
		return repo.Delete(id)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrCategoryInUse) {
			s.Log.Error("category delete failed", zap.Uint("category_id", id), zap.Error(err))
		}
		return err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventCategoryChange, Entity: "category", ID: id, Extra: map[string]interface{}{"deleted": true}})
	return nil
}
