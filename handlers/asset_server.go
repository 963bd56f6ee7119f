package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/media"
)

// AssetServer serves stored attachments of the local backend. It is mounted
// on a wildcard route and expects the path below the store root in the
// wildcard, e.g.
//
//	r.Get("/media/*", AssetServer(store, log))
func AssetServer(store *media.LocalStorage, log *zap.Logger) http.HandlerFunc {
	log = log.Named("assets")
	log.Info("serving attachments", zap.String("root", store.BasePath()))

	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := chi.URLParam(r, "*")
		if relativePath == "" || strings.Contains(relativePath, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		fullPath, err := store.GetFullPath(relativePath)
		if err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			log.Warn("asset access outside store root", zap.String("path", r.URL.Path), zap.Error(err))
			return
		}

		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			log.Error("failed to stat asset", zap.String("path", fullPath), zap.Error(err))
			return
		}
		if info.IsDir() {
			http.NotFound(w, r)
			return
		}

		// A deterministic path is reused once its previous file is removed,
		// so clients revalidate every time.
		w.Header().Set("Cache-Control", "public, no-cache")
		w.Header().Set("ETag", assetETag(info))

		http.ServeFile(w, r, fullPath)
	}
}

// assetETag changes whenever a file at the same path is rewritten, even
// within the one-second resolution of Last-Modified.
func assetETag(info os.FileInfo) string {
	return fmt.Sprintf(`"%x-%x"`, info.ModTime().UnixNano(), info.Size())
}
