package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/ordering"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
)

// PhotoInput carries photo fields. On update nil means unchanged. Image is
// either a fresh upload or a reference to an already stored file.
type PhotoInput struct {
	Caption    *string
	AltText    *string
	IsFeatured *bool
	Order      *int
	Image      *media.Attachment
}

type PhotoService struct {
	base
	albums *repository.AlbumRepository
	photos *repository.PhotoRepository
}

func NewPhotoService(d Deps) *PhotoService {
	return &PhotoService{
		base:   newBase(d),
		albums: repository.NewAlbumRepository(d.DB),
		photos: repository.NewPhotoRepository(d.DB),
	}
}

func defaultAltText(order int, albumName string) string {
	return fmt.Sprintf("Fotografie %d din albumul %s", order+1, albumName)
}

func applyMetadata(p *models.Photo, meta media.Metadata) {
	if meta.Width != nil {
		p.Width = meta.Width
	}
	if meta.Height != nil {
		p.Height = meta.Height
	}
	if meta.FileSize != nil {
		p.FileSize = meta.FileSize
	}
	if meta.TakenAt != nil {
		p.TakenAt = meta.TakenAt
	}
	if meta.CameraMake != nil {
		p.CameraMake = meta.CameraMake
	}
	if meta.CameraModel != nil {
		p.CameraModel = meta.CameraModel
	}
}

func (s *PhotoService) ListByAlbum(ctx context.Context, albumID uint) ([]PhotoView, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.albums.WithTx(db).GetByID(albumID); err != nil {
		return nil, err
	}
	photos, err := s.photos.WithTx(db).ListByAlbum(albumID)
	if err != nil {
		return nil, err
	}
	out := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		out = append(out, photoView(s.Store, p))
	}
	return out, nil
}

func (s *PhotoService) Get(ctx context.Context, id uint) (*PhotoView, error) {
	photo, err := s.photos.WithTx(s.DB.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, err
	}
	v := photoView(s.Store, *photo)
	return &v, nil
}

// insert ingests one upload and writes its row at the given order.
func (s *PhotoService) insert(ctx context.Context, tx *gorm.DB, files *fileSet, album *models.Album, order int, in PhotoInput, upload *media.Upload) (*models.Photo, ingest.Outcome, error) {
	res, err := s.Hook.Apply(ingest.Request{
		Kind:       media.KindPhoto,
		Attachment: media.Fresh(upload.Filename, upload.Data),
	})
	if err != nil {
		return nil, "", err
	}
	saved, err := files.save(ctx, media.KindPhoto, album.Slug, order, res)
	if err != nil {
		return nil, "", err
	}

	photo := &models.Photo{
		AlbumID:      album.ID,
		Image:        saved,
		DisplayOrder: order,
		AltText:      defaultAltText(order, album.Name),
	}
	if in.Caption != nil {
		photo.Caption = *in.Caption
	}
	if in.AltText != nil && *in.AltText != "" {
		photo.AltText = *in.AltText
	}
	if in.IsFeatured != nil {
		photo.IsFeatured = *in.IsFeatured
	}
	applyMetadata(photo, res.Metadata)

	if err := s.photos.WithTx(tx).Create(photo); err != nil {
		return nil, "", err
	}
	return photo, res.Outcome, nil
}

// Create appends a single photo after its siblings unless an order is given.
func (s *PhotoService) Create(ctx context.Context, albumID uint, in PhotoInput) (*PhotoView, error) {
	if in.Image == nil || !in.Image.IsFresh() {
		return nil, validationErr("image", "imaginea este obligatorie")
	}

	var photo *models.Photo
	var outcome ingest.Outcome
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		album, err := s.albums.WithTx(tx).GetByID(albumID)
		if err != nil {
			return err
		}
		order := 0
		if in.Order != nil {
			order = *in.Order
		} else if order, err = ordering.NextOrder(tx, ordering.PhotosOf(albumID)); err != nil {
			return err
		}
		photo, outcome, err = s.insert(ctx, tx, files, album, order, in, in.Image.Upload)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.Event{Type: realtime.EventPhotoCreated, Entity: "photo", ID: photo.ID, ParentID: albumID, Outcome: string(outcome)})
	v := photoView(s.Store, *photo)
	return &v, nil
}

// BulkUpload appends a batch in submission order: item i gets the current
// sibling count plus i. The whole batch commits or none of it does.
func (s *PhotoService) BulkUpload(ctx context.Context, albumID uint, uploads []media.Upload) ([]UploadedPhoto, error) {
	if len(uploads) == 0 {
		return nil, validationErr("images", "nu a fost trimisă nicio imagine")
	}

	var created []*models.Photo
	var outcomes []ingest.Outcome
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		created, outcomes = created[:0], outcomes[:0]
		album, err := s.albums.WithTx(tx).GetByID(albumID)
		if err != nil {
			return err
		}
		start, err := ordering.BatchStart(tx, ordering.PhotosOf(albumID))
		if err != nil {
			return err
		}
		for i := range uploads {
			photo, outcome, err := s.insert(ctx, tx, files, album, start+i, PhotoInput{}, &uploads[i])
			if err != nil {
				return fmt.Errorf("%s: %w", uploads[i].Filename, err)
			}
			created = append(created, photo)
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("bulk upload committed", zap.Uint("album_id", albumID), zap.Int("count", len(created)))
	out := make([]UploadedPhoto, 0, len(created))
	for i, p := range created {
		out = append(out, UploadedPhoto{
			ID:         p.ID,
			URL:        s.Store.URL(p.Image),
			Order:      p.DisplayOrder,
			IsFeatured: p.IsFeatured,
			Caption:    p.Caption,
		})
		s.publish(ctx, realtime.Event{Type: realtime.EventPhotoCreated, Entity: "photo", ID: p.ID, ParentID: albumID, Outcome: string(outcomes[i])})
	}
	return out, nil
}

// GridUpload is the admin grid variant: every file is its own append-one
// write, so a bad file does not take the others down with it.
func (s *PhotoService) GridUpload(ctx context.Context, albumID uint, uploads []media.Upload) ([]PhotoView, []error) {
	var out []PhotoView
	var errs []error
	for i := range uploads {
		v, err := s.Create(ctx, albumID, PhotoInput{Image: &media.Attachment{Upload: &uploads[i]}})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", uploads[i].Filename, err))
			continue
		}
		out = append(out, *v)
	}
	return out, errs
}

// Update changes the given fields. A fresh image is compressed and replaces
// the stored file once the row commits; a stored reference is kept as is.
func (s *PhotoService) Update(ctx context.Context, id uint, in PhotoInput) (*PhotoView, error) {
	var albumID uint
	var outcome ingest.Outcome
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		repo := s.photos.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		albumID = current.AlbumID

		updates := map[string]interface{}{}
		if in.Caption != nil {
			updates["caption"] = *in.Caption
		}
		if in.AltText != nil {
			updates["alt_text"] = *in.AltText
		}
		if in.IsFeatured != nil {
			updates["is_featured"] = *in.IsFeatured
		}
		order := current.DisplayOrder
		if in.Order != nil {
			order = *in.Order
			updates[ordering.Column] = order
		}

		if in.Image != nil && !in.Image.IsEmpty() {
			res, err := s.Hook.Apply(ingest.Request{
				Kind:       media.KindPhoto,
				Exists:     true,
				LoadPrior:  priorLoader(func() (string, error) { return repo.ImagePath(id) }),
				Attachment: *in.Image,
			})
			if err != nil {
				return err
			}
			outcome = res.Outcome

			switch {
			case in.Image.IsFresh():
				album, err := s.albums.WithTx(tx).GetByID(current.AlbumID)
				if err != nil {
					return err
				}
				saved, err := files.save(ctx, media.KindPhoto, album.Slug, order, res)
				if err != nil {
					return err
				}
				updates["image"] = saved
				for col, v := range metadataColumns(res.Metadata) {
					updates[col] = v
				}
				if res.PriorPath != "" && res.PriorPath != saved {
					files.dropAfterCommit(res.PriorPath)
				}
			case in.Image.Path != current.Image:
				ok, err := s.Store.Exists(ctx, in.Image.Path)
				if err != nil {
					return err
				}
				if !ok {
					return validationErr("image", "fișierul indicat nu există")
				}
				updates["image"] = in.Image.Path
			}
		}

		return repo.Update(id, updates)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.Event{Type: realtime.EventPhotoUpdated, Entity: "photo", ID: id, ParentID: albumID, Outcome: string(outcome)})
	return s.Get(ctx, id)
}

func metadataColumns(meta media.Metadata) map[string]interface{} {
	cols := map[string]interface{}{}
	if meta.Width != nil {
		cols["width"] = *meta.Width
	}
	if meta.Height != nil {
		cols["height"] = *meta.Height
	}
	if meta.FileSize != nil {
		cols["file_size"] = *meta.FileSize
	}
	cols["taken_at"] = meta.TakenAt
	cols["camera_make"] = meta.CameraMake
	cols["camera_model"] = meta.CameraModel
	return cols
}

func (s *PhotoService) Delete(ctx context.Context, id uint) error {
	var albumID uint
	err := s.write(ctx, func(tx *gorm.DB, files *fileSet) error {
		repo := s.photos.WithTx(tx)
		photo, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		albumID = photo.AlbumID
		files.dropAfterCommit(photo.Image)
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventPhotoDeleted, Entity: "photo", ID: id, ParentID: albumID})
	return nil
}

// ToggleFeatured flips is_featured and returns the new value.
func (s *PhotoService) ToggleFeatured(ctx context.Context, id uint) (bool, error) {
	var featured bool
	var albumID uint
	err := s.write(ctx, func(tx *gorm.DB, _ *fileSet) error {
		repo := s.photos.WithTx(tx)
		photo, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		albumID = photo.AlbumID
		featured = !photo.IsFeatured
		return repo.Update(id, map[string]interface{}{"is_featured": featured})
	})
	if err != nil {
		return false, err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventPhotoUpdated, Entity: "photo", ID: id, ParentID: albumID, Extra: map[string]interface{}{"is_featured": featured}})
	return featured, nil
}

// Reorder applies drag-and-drop positions to the photos of one album. Ids of
// other albums are skipped.
func (s *PhotoService) Reorder(ctx context.Context, albumID uint, entries []ordering.Entry) (int64, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.albums.WithTx(db).GetByID(albumID); err != nil {
		return 0, err
	}
	updated, err := ordering.Reorder(db, ordering.PhotosOf(albumID), entries, s.Log)
	if err != nil {
		s.Log.Error("photo reorder failed", zap.Uint("album_id", albumID), zap.Error(err))
		return 0, err
	}
	s.publish(ctx, realtime.Event{Type: realtime.EventPhotosOrdered, Entity: "photo", ParentID: albumID, Extra: map[string]interface{}{"updated": updated}})
	return updated, nil
}

// Renumber closes gaps and duplicates in the photo order of an album.
func (s *PhotoService) Renumber(ctx context.Context, albumID uint) (int64, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.albums.WithTx(db).GetByID(albumID); err != nil {
		return 0, err
	}
	changed, err := ordering.Renumber(db, ordering.PhotosOf(albumID))
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.publish(ctx, realtime.Event{Type: realtime.EventPhotosOrdered, Entity: "photo", ParentID: albumID, Extra: map[string]interface{}{"renumbered": changed}})
	}
	return changed, nil
}
