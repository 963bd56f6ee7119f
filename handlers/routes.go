package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/camden-git/portfoliobackend/cache"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Public     *PublicHandler
	Categories *AdminCategoryHandler
	Albums     *AdminAlbumHandler
	Photos     *AdminPhotoHandler
	Cache      cache.Cache
	Events     http.HandlerFunc // websocket stream; nil disables it
	Assets     http.HandlerFunc // local attachment files; nil with remote storage
}

// Mount registers the public and admin routes on r. Trailing slashes are
// optional on every API route.
func (h *Handlers) Mount(r chi.Router) {
	if h.Assets != nil {
		r.Get("/media/*", h.Assets)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.StripSlashes)

		r.Group(func(r chi.Router) {
			r.Use(PublicCache(h.Cache))
			r.Get("/categories", h.Public.ListCategories)
			r.Get("/categories/{slug}", h.Public.GetCategory)
			r.Get("/albums", h.Public.ListAlbums)
			r.Get("/albums/{slug}", h.Public.GetAlbum)
			r.Get("/albums/{slug}/photos", h.Public.ListAlbumPhotos)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoCache)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Post("/", h.Categories.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", h.Categories.Update)
					r.Delete("/", h.Categories.Delete)
					r.Get("/covers", h.Categories.ListCovers)
					r.Post("/covers", h.Categories.CreateCover)
					r.Post("/covers/reorder", h.Categories.ReorderCovers)
				})
			})

			r.Route("/covers/{id}", func(r chi.Router) {
				r.Put("/", h.Categories.UpdateCover)
				r.Delete("/", h.Categories.DeleteCover)
			})

			r.Route("/albums", func(r chi.Router) {
				r.Get("/", h.Albums.List)
				r.Post("/", h.Albums.Create)
				r.Post("/reorder", h.Albums.Reorder)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Albums.Get)
					r.Put("/", h.Albums.Update)
					r.Delete("/", h.Albums.Delete)
					r.Get("/photos", h.Photos.List)
					r.Post("/photos", h.Photos.Create)
					r.Post("/photos/bulk-upload", h.Photos.BulkUpload)
					r.Post("/photos/upload", h.Photos.GridUpload)
					r.Post("/photos/reorder", h.Photos.Reorder)
					r.Post("/photos/renumber", h.Photos.Renumber)
				})
			})

			r.Route("/photos/{id}", func(r chi.Router) {
				r.Put("/", h.Photos.Update)
				r.Delete("/", h.Photos.Delete)
				r.Post("/feature", h.Photos.ToggleFeatured)
			})

			r.Post("/maintenance/metadata", h.Photos.QueueMetadata)

			if h.Events != nil {
				r.Get("/ws", h.Events)
			}
		})
	})
}
