package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/services"
)

// PublicHandler serves the read-only site API.
type PublicHandler struct {
	Categories *services.CategoryService
	Albums     *services.AlbumService
	Log        *zap.Logger
}

func (h *PublicHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *PublicHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.Categories.GetActiveBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// ListAlbums returns published albums, filtered by ?category={slug}.
func (h *PublicHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.Albums.ListPublished(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *PublicHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := h.Albums.GetPublished(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *PublicHandler) ListAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.Albums.PublishedPhotos(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}
