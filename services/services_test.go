package services_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/ordering"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/services"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Broadcast(e realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) last() realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return realtime.Event{}
	}
	return r.events[len(r.events)-1]
}

type testEnv struct {
	db         *gorm.DB
	store      *media.LocalStorage
	events     *recorder
	categories *services.CategoryService
	covers     *services.CoverService
	albums     *services.AlbumService
	photos     *services.PhotoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCodecPolicy(t, ingest.CodecErrorAbort)
}

func newTestEnvWithCodecPolicy(t *testing.T, onCodecError ingest.CodecErrorPolicy) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.InitGormDB("sqlite", filepath.Join(dir, "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("InitGormDB: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("AutoMigrateModels: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := media.NewLocalStorage(filepath.Join(dir, "media"), "/media/", zap.NewNop())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	hook := ingest.NewHook(media.NewImagingCodec(), media.DefaultPolicies(), onCodecError, ingest.MissingPriorSkip, zap.NewNop())
	events := &recorder{}
	deps := services.Deps{DB: db, Store: store, Hook: hook, Events: events, Log: zap.NewNop()}

	return &testEnv{
		db:         db,
		store:      store,
		events:     events,
		categories: services.NewCategoryService(deps),
		covers:     services.NewCoverService(deps),
		albums:     services.NewAlbumService(deps),
		photos:     services.NewPhotoService(deps),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }

// storedFiles lists every file under the store root, relative to it.
func storedFiles(t *testing.T, store *media.LocalStorage) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(store.BasePath(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(store.BasePath(), p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	return files
}

func (e *testEnv) seedAlbum(t *testing.T, name string) *services.AlbumView {
	t.Helper()
	ctx := context.Background()
	cat, err := e.categories.Create(ctx, services.CategoryInput{Name: "Nunți"})
	if err != nil {
		cats, listErr := e.categories.ListAll(ctx)
		if listErr != nil || len(cats) == 0 {
			t.Fatalf("Create category: %v", err)
		}
		cat = &cats[0]
	}
	album, err := e.albums.Create(ctx, services.AlbumInput{
		CategoryID:  &cat.ID,
		Name:        ptr(name),
		Date:        ptr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)),
		IsPublished: ptr(true),
	})
	if err != nil {
		t.Fatalf("Create album: %v", err)
	}
	return album
}

func (e *testEnv) addPhoto(t *testing.T, albumID uint, w, h int) *services.PhotoView {
	t.Helper()
	a := media.Fresh("IMG_0001.png", pngBytes(t, w, h))
	p, err := e.photos.Create(context.Background(), albumID, services.PhotoInput{Image: &a})
	if err != nil {
		t.Fatalf("Create photo: %v", err)
	}
	return p
}

func TestPhotoCreateCompressesAndAppends(t *testing.T) {
	env := newTestEnv(t)
	album := env.seedAlbum(t, "Nunta Ana si Mihai")

	p := env.addPhoto(t, album.ID, 3000, 1500)
	if p.Order != 1 {
		t.Errorf("Order = %d, want 1 for the first appended photo", p.Order)
	}
	if p.Image != "albums/nunta-ana-si-mihai/photos/0001.jpg" {
		t.Errorf("Image = %q", p.Image)
	}
	if p.Width == nil || p.Height == nil || *p.Width != 2400 || *p.Height != 1200 {
		t.Errorf("dimensions = %v x %v, want 2400 x 1200", p.Width, p.Height)
	}
	if p.AltText != "Fotografie 2 din albumul Nunta Ana si Mihai" {
		t.Errorf("AltText = %q", p.AltText)
	}
	if env.events.last().Outcome != string(ingest.OutcomeCompressed) {
		t.Errorf("last event outcome = %q", env.events.last().Outcome)
	}

	second := env.addPhoto(t, album.ID, 10, 10)
	if second.Order != 2 {
		t.Errorf("second Order = %d, want 2", second.Order)
	}
}

func TestBulkUploadContinuesFromSiblingCount(t *testing.T) {
	env := newTestEnv(t)
	album := env.seedAlbum(t, "Botez")
	env.addPhoto(t, album.ID, 20, 20)
	env.addPhoto(t, album.ID, 20, 20)

	uploads := []media.Upload{
		{Filename: "a.png", Data: pngBytes(t, 30, 20)},
		{Filename: "b.png", Data: pngBytes(t, 30, 20)},
		{Filename: "c.png", Data: pngBytes(t, 30, 20)},
	}
	created, err := env.photos.BulkUpload(context.Background(), album.ID, uploads)
	if err != nil {
		t.Fatalf("BulkUpload: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d photos, want 3", len(created))
	}
	for i, want := range []int{2, 3, 4} {
		if created[i].Order != want {
			t.Errorf("created[%d].Order = %d, want %d", i, created[i].Order, want)
		}
	}
}

func TestFailedBulkUploadLeavesNoFiles(t *testing.T) {
	env := newTestEnv(t)
	album := env.seedAlbum(t, "Portrete")

	uploads := []media.Upload{
		{Filename: "ok.png", Data: pngBytes(t, 40, 40)},
		{Filename: "broken.jpg", Data: []byte("not an image at all")},
	}
	_, err := env.photos.BulkUpload(context.Background(), album.ID, uploads)
	var codecErr *media.CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("BulkUpload error = %v, want CodecError", err)
	}

	if files := storedFiles(t, env.store); len(files) != 0 {
		t.Errorf("files left behind after rollback: %v", files)
	}
	var count int64
	env.db.Model(&models.Photo{}).Where("album_id = ?", album.ID).Count(&count)
	if count != 0 {
		t.Errorf("photo rows = %d, want 0", count)
	}
}

func TestBulkUploadReportsOutcomePerPhoto(t *testing.T) {
	env := newTestEnvWithCodecPolicy(t, ingest.CodecErrorKeepOriginal)
	album := env.seedAlbum(t, "Evenimente")

	uploads := []media.Upload{
		{Filename: "ok.png", Data: pngBytes(t, 40, 40)},
		{Filename: "raw.jpg", Data: []byte("not an image at all")},
	}
	created, err := env.photos.BulkUpload(context.Background(), album.ID, uploads)
	if err != nil {
		t.Fatalf("BulkUpload: %v", err)
	}

	outcomes := map[uint]string{}
	env.events.mu.Lock()
	for _, e := range env.events.events {
		if e.Type == realtime.EventPhotoCreated {
			outcomes[e.ID] = e.Outcome
		}
	}
	env.events.mu.Unlock()

	if got := outcomes[created[0].ID]; got != string(ingest.OutcomeCompressed) {
		t.Errorf("outcome of %s = %q, want %q", uploads[0].Filename, got, ingest.OutcomeCompressed)
	}
	if got := outcomes[created[1].ID]; got != string(ingest.OutcomeKeptOriginal) {
		t.Errorf("outcome of %s = %q, want %q", uploads[1].Filename, got, ingest.OutcomeKeptOriginal)
	}
}

func TestResaveWithStoredReferenceDoesNotRecompress(t *testing.T) {
	env := newTestEnv(t)
	album := env.seedAlbum(t, "Evenimente")
	p := env.addPhoto(t, album.ID, 200, 100)

	full, err := env.store.GetFullPath(p.Image)
	if err != nil {
		t.Fatalf("GetFullPath: %v", err)
	}
	before, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	infoBefore, _ := os.Stat(full)

	for i := 0; i < 3; i++ {
		stored := media.Stored(p.Image)
		if _, err := env.photos.Update(context.Background(), p.ID, services.PhotoInput{
			Caption: ptr("la altar"),
			Image:   &stored,
		}); err != nil {
			t.Fatalf("Update #%d: %v", i, err)
		}
		if got := env.events.last().Outcome; got != string(ingest.OutcomeUnchanged) {
			t.Fatalf("Update #%d outcome = %q, want unchanged", i, got)
		}
	}

	after, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("ReadFile after: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("stored file changed on resave")
	}
	infoAfter, _ := os.Stat(full)
	if !infoAfter.ModTime().Equal(infoBefore.ModTime()) {
		t.Error("stored file was rewritten on resave")
	}
	if files := storedFiles(t, env.store); len(files) != 1 {
		t.Errorf("stored files = %v, want exactly one", files)
	}
}

func TestReplacingImageRemovesPriorFile(t *testing.T) {
	env := newTestEnv(t)
	album := env.seedAlbum(t, "Familie")
	p := env.addPhoto(t, album.ID, 50, 50)

	fresh := media.Fresh("new.png", pngBytes(t, 60, 40))
	updated, err := env.photos.Update(context.Background(), p.ID, services.PhotoInput{Image: &fresh})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Image == p.Image {
		t.Fatalf("image path did not change: %q", updated.Image)
	}
	ctx := context.Background()
	if ok, _ := env.store.Exists(ctx, p.Image); ok {
		t.Errorf("prior file %q still stored", p.Image)
	}
	if ok, _ := env.store.Exists(ctx, updated.Image); !ok {
		t.Errorf("new file %q missing", updated.Image)
	}
	if updated.Width == nil || *updated.Width != 60 {
		t.Errorf("Width = %v, want 60", updated.Width)
	}
}

func TestAlbumDeleteRemovesAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	album := env.seedAlbum(t, "Sesiune foto")

	cover := media.Upload{Filename: "cover.png", Data: pngBytes(t, 80, 40)}
	if _, err := env.albums.Update(ctx, album.ID, services.AlbumInput{Cover: &cover}); err != nil {
		t.Fatalf("Update cover: %v", err)
	}
	env.addPhoto(t, album.ID, 20, 20)
	env.addPhoto(t, album.ID, 20, 20)
	if files := storedFiles(t, env.store); len(files) != 3 {
		t.Fatalf("stored files = %v, want 3", files)
	}

	if err := env.albums.Delete(ctx, album.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if files := storedFiles(t, env.store); len(files) != 0 {
		t.Errorf("files left after album delete: %v", files)
	}
	if _, err := env.albums.Get(ctx, album.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestCategoryDeleteBlockedByAlbums(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	album := env.seedAlbum(t, "Botez Luca")

	err := env.categories.Delete(ctx, album.CategoryID)
	if !errors.Is(err, services.ErrCategoryInUse) {
		t.Fatalf("Delete = %v, want ErrCategoryInUse", err)
	}
	if err := env.albums.Delete(ctx, album.ID); err != nil {
		t.Fatalf("Delete album: %v", err)
	}
	if err := env.categories.Delete(ctx, album.CategoryID); err != nil {
		t.Fatalf("Delete category: %v", err)
	}
}

func TestCategorySlugChangesOnlyWhenCleared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat, err := env.categories.Create(ctx, services.CategoryInput{Name: "Nunți"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.categories.Update(ctx, cat.ID, services.CategoryInput{Slug: ptr("altceva")})
	var validation *media.ValidationError
	if !errors.As(err, &validation) || validation.Field != "slug" {
		t.Fatalf("Update with new slug = %v, want slug ValidationError", err)
	}

	got, err := env.categories.Update(ctx, cat.ID, services.CategoryInput{Name: "Nunți și logodne", Slug: ptr(cat.Slug)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != "nunti" {
		t.Errorf("Slug after rename = %q, want %q", got.Slug, "nunti")
	}

	got, err = env.categories.Update(ctx, cat.ID, services.CategoryInput{Slug: ptr("")})
	if err != nil {
		t.Fatalf("Update clearing slug: %v", err)
	}
	if got.Slug != "nunti-si-logodne" {
		t.Errorf("regenerated Slug = %q, want %q", got.Slug, "nunti-si-logodne")
	}
}

func TestAlbumSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.seedAlbum(t, "Nuntă în Brașov")
	if first.Slug != "nunta-in-brasov" {
		t.Errorf("Slug = %q", first.Slug)
	}
	if first.MetaTitle != "Nuntă în Brașov" {
		t.Errorf("MetaTitle = %q", first.MetaTitle)
	}

	second, err := env.albums.Create(ctx, services.AlbumInput{
		CategoryID: &first.CategoryID,
		Name:       ptr("Nunta in Brasov"),
		Date:       ptr(time.Now()),
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.Slug != "nunta-in-brasov-2" {
		t.Errorf("second Slug = %q", second.Slug)
	}

	_, err = env.albums.Create(ctx, services.AlbumInput{
		CategoryID: &first.CategoryID,
		Name:       ptr("Altceva"),
		Slug:       ptr("nunta-in-brasov"),
		Date:       ptr(time.Now()),
	})
	if !errors.Is(err, services.ErrConflict) {
		t.Errorf("explicit duplicate slug = %v, want ErrConflict", err)
	}
}

func TestPublishedAlbumCoverFallsBackToFirstPhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	album := env.seedAlbum(t, "Toamna")
	p := env.addPhoto(t, album.ID, 20, 20)

	got, err := env.albums.GetPublished(ctx, album.Slug)
	if err != nil {
		t.Fatalf("GetPublished: %v", err)
	}
	if got.CoverURL == nil || *got.CoverURL != p.URL {
		t.Errorf("CoverURL = %v, want %q", got.CoverURL, p.URL)
	}
	if got.MetaDescription != "Album foto Toamna" {
		t.Errorf("MetaDescription = %q", got.MetaDescription)
	}
	if got.PhotoCount != 1 || len(got.Photos) != 1 {
		t.Errorf("PhotoCount = %d, photos = %d", got.PhotoCount, len(got.Photos))
	}

	hidden := false
	if _, err := env.albums.Update(ctx, album.ID, services.AlbumInput{IsPublished: &hidden}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := env.albums.GetPublished(ctx, album.Slug); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("GetPublished on draft = %v, want ErrNotFound", err)
	}
}

func TestCategoryCoverSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat, err := env.categories.Create(ctx, services.CategoryInput{Name: "Peisaje"})
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	var last *services.CoverView
	for i := 0; i < 3; i++ {
		last, err = env.covers.Create(ctx, cat.ID, services.CoverInput{
			Image: &media.Upload{Filename: "c.png", Data: pngBytes(t, 30, 30)},
		})
		if err != nil {
			t.Fatalf("Create cover %d: %v", i, err)
		}
	}
	if last.Order != 3 {
		t.Errorf("third cover Order = %d, want 3", last.Order)
	}
	if files := storedFiles(t, env.store); len(files) != 3 {
		t.Errorf("stored covers = %v, want 3 distinct files", files)
	}

	got, err := env.categories.GetActiveBySlug(ctx, "peisaje")
	if err != nil {
		t.Fatalf("GetActiveBySlug: %v", err)
	}
	if got.CoverURL == nil || *got.CoverURL != last.ImageURL {
		t.Errorf("CoverURL = %v, want %q", got.CoverURL, last.ImageURL)
	}

	if _, err := env.covers.Update(ctx, last.ID, services.CoverInput{IsActive: ptr(false)}); err != nil {
		t.Fatalf("Update cover: %v", err)
	}
	got, _ = env.categories.GetActiveBySlug(ctx, "peisaje")
	if got.CoverURL == nil || *got.CoverURL == last.ImageURL {
		t.Errorf("inactive cover still selected: %v", got.CoverURL)
	}
}

func TestPhotoReorderIgnoresOtherAlbums(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.seedAlbum(t, "Album A")
	b := env.seedAlbum(t, "Album B")
	pa := env.addPhoto(t, a.ID, 10, 10)
	pb := env.addPhoto(t, b.ID, 10, 10)

	updated, err := env.photos.Reorder(ctx, a.ID, []ordering.Entry{{ID: pa.ID, Order: 7}, {ID: pb.ID, Order: 9}})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	other, _ := env.photos.Get(ctx, pb.ID)
	if other.Order != pb.Order {
		t.Errorf("photo of another album moved to %d", other.Order)
	}

	featured, err := env.photos.ToggleFeatured(ctx, pa.ID)
	if err != nil || !featured {
		t.Errorf("ToggleFeatured = %v, %v", featured, err)
	}
}
