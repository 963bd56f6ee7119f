// Command portfolio-import appends a directory of images to an existing album
// through the same bulk upload path as the admin API.
//
// Usage:
//
//	portfolio-import -album <id> [-batch 20] [-dry-run] <dir>
//
// Files are taken in natural filename order (IMG_2 before IMG_10), so the
// album order follows the camera numbering.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/facette/natsort"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/config"
	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/services"
)

// collectImages lists the accepted image files of dir in natural order. Files
// over limit are returned separately.
func collectImages(dir string, limit int64) (accepted, oversized []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !media.IsAllowedImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	natsort.Sort(names)

	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		if media.ValidateUpload("images", name, info.Size(), limit) != nil {
			oversized = append(oversized, name)
			continue
		}
		accepted = append(accepted, name)
	}
	return accepted, oversized, nil
}

func readBatch(dir string, names []string) ([]media.Upload, error) {
	uploads := make([]media.Upload, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, media.Upload{Filename: name, Data: data})
	}
	return uploads, nil
}

func main() {
	var (
		albumID uint
		batch   int
		dryRun  bool
	)
	flag.UintVar(&albumID, "album", 0, "ID of the album to append to")
	flag.IntVar(&batch, "batch", 20, "Files per transaction")
	flag.BoolVar(&dryRun, "dry-run", false, "List the files that would be imported and exit")
	flag.Parse()

	if flag.NArg() != 1 || albumID == 0 {
		fmt.Fprintln(os.Stderr, "Usage: portfolio-import -album <id> [-batch 20] [-dry-run] <dir>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if batch <= 0 {
		batch = 1
	}
	dir := flag.Arg(0)

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	newLogger := zap.NewProduction
	if cfg.IsDevelopment() {
		newLogger = zap.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	files, oversized, err := collectImages(dir, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal("failed to read import directory", zap.String("dir", dir), zap.Error(err))
	}
	for _, name := range oversized {
		logger.Warn("skipping file over the upload limit", zap.String("file", name))
	}
	if dryRun {
		for _, name := range files {
			fmt.Println(name)
		}
		return
	}
	if len(files) == 0 {
		logger.Info("nothing to import", zap.String("dir", dir))
		return
	}

	db, err := database.InitGormDB(cfg.DBDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	store, err := media.OpenStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize attachment store", zap.Error(err))
	}
	policies, err := media.LoadPolicies(cfg.MediaPolicyFile)
	if err != nil {
		logger.Fatal("failed to load compression policies", zap.Error(err))
	}
	hook := ingest.NewHook(media.NewImagingCodec(), policies,
		ingest.CodecErrorPolicy(cfg.CodecErrorPolicy), ingest.MissingPriorPolicy(cfg.MissingPriorPolicy), logger)
	photos := services.NewPhotoService(services.Deps{DB: db, Store: store, Hook: hook, Log: logger})

	ctx := context.Background()
	imported := 0
	for start := 0; start < len(files); start += batch {
		end := start + batch
		if end > len(files) {
			end = len(files)
		}
		uploads, err := readBatch(dir, files[start:end])
		if err != nil {
			logger.Fatal("failed to read batch", zap.Error(err))
		}
		created, err := photos.BulkUpload(ctx, albumID, uploads)
		if err != nil {
			logger.Fatal("batch import failed",
				zap.String("first_file", files[start]), zap.Int("imported_before", imported), zap.Error(err))
		}
		imported += len(created)
		logger.Info("imported batch", zap.Int("files", len(created)), zap.Int("total", imported))
	}
	fmt.Printf("Imported %d photo(s) into album %d\n", imported, albumID)
}
