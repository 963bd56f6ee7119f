package ordering_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/ordering"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitGormDB("sqlite", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
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
	return db
}

func seedAlbum(t *testing.T, db *gorm.DB, slug string, orders ...int) (models.Album, []models.Photo) {
	t.Helper()
	var cat models.Category
	if err := db.Where(models.Category{Slug: "nunti"}).FirstOrCreate(&cat, models.Category{Name: "Nunți", Slug: "nunti", IsActive: true}).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	album := models.Album{CategoryID: cat.ID, Name: slug, Slug: slug, Date: time.Now()}
	if err := db.Create(&album).Error; err != nil {
		t.Fatalf("seed album: %v", err)
	}
	photos := make([]models.Photo, 0, len(orders))
	for i, o := range orders {
		p := models.Photo{AlbumID: album.ID, Image: fmt.Sprintf("albums/%s/photos/%d.jpg", slug, i), DisplayOrder: o}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed photo: %v", err)
		}
		photos = append(photos, p)
	}
	return album, photos
}

func ordersOf(t *testing.T, db *gorm.DB, albumID uint) map[uint]int {
	t.Helper()
	var photos []models.Photo
	if err := db.Where("album_id = ?", albumID).Find(&photos).Error; err != nil {
		t.Fatalf("load photos: %v", err)
	}
	out := make(map[uint]int, len(photos))
	for _, p := range photos {
		out[p.ID] = p.DisplayOrder
	}
	return out
}

func TestNextOrder(t *testing.T) {
	db := openTestDB(t)
	empty, _ := seedAlbum(t, db, "gol")
	full, _ := seedAlbum(t, db, "plin", 0, 5, 3)

	got, err := ordering.NextOrder(db, ordering.PhotosOf(empty.ID))
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if got != 1 {
		t.Errorf("empty album NextOrder = %d, want 1", got)
	}

	got, err = ordering.NextOrder(db, ordering.PhotosOf(full.ID))
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if got != 6 {
		t.Errorf("NextOrder = %d, want 6", got)
	}

	negative, _ := seedAlbum(t, db, "negativ", -5, -7)
	got, err = ordering.NextOrder(db, ordering.PhotosOf(negative.ID))
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if got != -4 {
		t.Errorf("negative siblings NextOrder = %d, want -4", got)
	}
}

func TestBatchStartUsesSiblingCount(t *testing.T) {
	db := openTestDB(t)
	album, _ := seedAlbum(t, db, "doi", 0, 1)

	start, err := ordering.BatchStart(db, ordering.PhotosOf(album.ID))
	if err != nil {
		t.Fatalf("BatchStart: %v", err)
	}
	var assigned []int
	for i := 0; i < 3; i++ {
		assigned = append(assigned, start+i)
	}
	if fmt.Sprint(assigned) != "[2 3 4]" {
		t.Errorf("batch orders = %v, want [2 3 4]", assigned)
	}
}

func TestReorderIsScopedToParent(t *testing.T) {
	db := openTestDB(t)
	a, aPhotos := seedAlbum(t, db, "a", 0, 1)
	b, bPhotos := seedAlbum(t, db, "b", 0, 1)

	updated, err := ordering.Reorder(db, ordering.PhotosOf(a.ID), []ordering.Entry{
		{ID: aPhotos[0].ID, Order: 9},
		{ID: bPhotos[0].ID, Order: 42},
		{ID: 999999, Order: 7},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	if got := ordersOf(t, db, a.ID)[aPhotos[0].ID]; got != 9 {
		t.Errorf("album a photo order = %d, want 9", got)
	}
	if got := ordersOf(t, db, b.ID)[bPhotos[0].ID]; got != 0 {
		t.Errorf("foreign photo order changed to %d", got)
	}
}

func TestReorderIsAllOrNothing(t *testing.T) {
	db := openTestDB(t)
	album, photos := seedAlbum(t, db, "atomic", 0, 1, 2, 3)
	before := ordersOf(t, db, album.ID)

	updates := 0
	injected := errors.New("injected failure")
	err := db.Callback().Raw().Before("gorm:raw").Register("test:fail_third_update", func(tx *gorm.DB) {
		if strings.HasPrefix(tx.Statement.SQL.String(), "UPDATE photos") {
			updates++
			if updates == 3 {
				tx.AddError(injected)
			}
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	entries := make([]ordering.Entry, 0, len(photos))
	for i, p := range photos {
		entries = append(entries, ordering.Entry{ID: p.ID, Order: 10 + i})
	}
	if _, err := ordering.Reorder(db, ordering.PhotosOf(album.ID), entries, zap.NewNop()); !errors.Is(err, injected) {
		t.Fatalf("Reorder err = %v, want injected failure", err)
	}

	after := ordersOf(t, db, album.ID)
	for id, o := range before {
		if after[id] != o {
			t.Errorf("photo %d order = %d after failed reorder, want %d", id, after[id], o)
		}
	}
}

func TestRenumberFillsGaps(t *testing.T) {
	db := openTestDB(t)
	album, photos := seedAlbum(t, db, "gaps", 5, 5, 1, 20)

	changed, err := ordering.Renumber(db, ordering.PhotosOf(album.ID))
	if err != nil {
		t.Fatalf("Renumber: %v", err)
	}
	if changed != 4 {
		t.Errorf("changed = %d, want 4", changed)
	}

	got := ordersOf(t, db, album.ID)
	want := map[uint]int{
		photos[2].ID: 0,
		photos[0].ID: 1,
		photos[1].ID: 2,
		photos[3].ID: 3,
	}
	for id, o := range want {
		if got[id] != o {
			t.Errorf("photo %d order = %d, want %d", id, got[id], o)
		}
	}
}
