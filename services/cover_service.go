package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/ordering"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
)

type CoverInput struct {
	Title    *string
	IsActive *bool
	Order    *int
	Image    *media.Upload // required on create, optional on update
}

type CoverService struct {
	base
	categories *repository.CategoryRepository
	covers     *repository.CoverRepository
}

func NewCoverService(d Deps) *CoverService {
	return &CoverService{
		base:       newBase(d),
		categories: repository.NewCategoryRepository(d.DB),
		covers:     repository.NewCoverRepository(d.DB),
	}
}

func (s *CoverService) ListByCategory(ctx context.Context, categoryID uint) ([]CoverView, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.categories.WithTx(db).GetByID(categoryID); err != nil {
		return nil, err
	}
	covers, err := s.covers.WithTx(db).ListByCategory(categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]CoverView, 0, len(covers))
	for _, c := range covers {
		out = append(out, coverView(s.Store, c))
	}
	return out, nil
}

// Create adds a cover to a category. Without an explicit order the cover is
// appended after its siblings.
func (s *CoverService) Create(ctx context.Context, categoryID uint, in CoverInput) (*CoverView, error) {
	if in.Image == nil {
		return nil, validationErr("image", "imaginea este obligatorie")
	}
	cover := models.CategoryCover{CategoryID: categoryID, IsActive: true}
	if in.Title != nil {
		cover.Title = *in.Title
	}
	if in.IsActive != nil {
		cover.IsActive = *in.IsActive
	}

	var outcome ingest.Outcome
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		category, err := s.categories.WithTx(tx).GetByID(categoryID)
		if err != nil {
			return err
		}

		if in.Order != nil {
			cover.DisplayOrder = *in.Order
		} else {
			next, err := ordering.NextOrder(tx, ordering.CoversOf(categoryID))
			if err != nil {
				return err
			}
			cover.DisplayOrder = next
		}

		res, err := s.Hook.Apply(ingest.Request{
			Kind:       media.KindCategoryCover,
			Attachment: media.Fresh(in.Image.Filename, in.Image.Data),
		})
		if err != nil {
			return err
		}
		outcome = res.Outcome

		cover.Image, err = files.save(ctx, media.KindCategoryCover, category.Slug, cover.DisplayOrder, res)
		if err != nil {
			return err
		}
		if err := s.covers.WithTx(tx).Create(&cover); err != nil {
			return err
		}
		if !cover.IsActive {
			return s.covers.WithTx(tx).Update(cover.ID, map[string]interface{}{"is_active": false})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.Event{Type: realtime.EventCoverChanged, Entity: "cover", ID: cover.ID, ParentID: categoryID, Outcome: string(outcome)})
	v := coverView(s.Store, cover)
	return &v, nil
}

func (s *CoverService) Update(ctx context.Context, id uint, in CoverInput) (*CoverView, error) {
	var outcome ingest.Outcome
	var categoryID uint
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		repo := s.covers.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		categoryID = current.CategoryID

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		order := current.DisplayOrder
		if in.Order != nil {
			order = *in.Order
			updates[ordering.Column] = order
		}

		if in.Image != nil {
			category, err := s.categories.WithTx(tx).GetByID(current.CategoryID)
			if err != nil {
				return err
			}
			res, err := s.Hook.Apply(ingest.Request{
				Kind:       media.KindCategoryCover,
				Exists:     true,
				LoadPrior:  priorLoader(func() (string, error) { return repo.ImagePath(id) }),
				Attachment: media.Fresh(in.Image.Filename, in.Image.Data),
			})
			if err != nil {
				return err
			}
			outcome = res.Outcome
			saved, err := files.save(ctx, media.KindCategoryCover, category.Slug, order, res)
			if err != nil {
				return err
			}
			updates["image"] = saved
			if res.PriorPath != "" && res.PriorPath != saved {
				files.dropAfterCommit(res.PriorPath)
			}
		}
		return repo.Update(id, updates)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.Event{Type: realtime.EventCoverChanged, Entity: "cover", ID: id, ParentID: categoryID, Outcome: string(outcome)})
	cover, err := s.covers.WithTx(s.DB.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, err
	}
	v := coverView(s.Store, *cover)
	return &v, nil
}

func (s *CoverService) Delete(ctx context.Context, id uint) error {
	var categoryID uint
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		repo := s.covers.WithTx(tx)
		cover, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		categoryID = cover.CategoryID
		files.dropAfterCommit(cover.Image)
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventCoverChanged, Entity: "cover", ID: id, ParentID: categoryID, Extra: map[string]interface{}{"deleted": true}})
	return nil
}

// Reorder applies drag-and-drop positions to the covers of one category.
func (s *CoverService) Reorder(ctx context.Context, categoryID uint, entries []ordering.Entry) (int64, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.categories.WithTx(db).GetByID(categoryID); err != nil {
		return 0, err
	}
	updated, err := ordering.Reorder(db, ordering.CoversOf(categoryID), entries, s.Log)
	if err != nil {
		s.Log.Error("cover reorder failed", zap.Uint("category_id", categoryID), zap.Error(err))
		return 0, err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventCoversOrdered, Entity: "cover", ParentID: categoryID, Extra: map[string]interface{}{"updated": updated}})
	return updated, nil
}
