package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/services"
)

type AdminAlbumHandler struct {
	Albums         *services.AlbumService
	MaxUploadBytes int64
	Log            *zap.Logger
}

// List returns all albums, optionally filtered by ?category={id} and sorted by
// ?sort=order|date_desc|date_asc|name_asc.
func (h *AdminAlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID uint
	if raw := r.URL.Query().Get("category"); raw != "" {
		f := &requestFields{values: map[string]string{"category": raw}}
		id, err := f.ref("category")
		if err != nil {
			writeServiceError(w, h.Log, err)
			return
		}
		categoryID = *id
	}
	sort := r.URL.Query().Get("sort")
	if !services.IsValidSort(sort) {
		writeServiceError(w, h.Log, &media.ValidationError{Field: "sort", Message: fmt.Sprintf("ordonare necunoscută %q", sort)})
		return
	}

	albums, err := h.Albums.List(r.Context(), categoryID, sort)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *AdminAlbumHandler) albumInput(f *requestFields) (services.AlbumInput, error) {
	in := services.AlbumInput{
		Name:            f.str("name"),
		Slug:            f.str("slug"),
		Location:        f.str("location"),
		Description:     f.str("description"),
		MetaTitle:       f.str("meta_title"),
		MetaDescription: f.str("meta_description"),
	}
	var err error
	if in.CategoryID, err = f.ref("category_id"); err != nil {
		return in, err
	}
	if in.Date, err = f.date("date"); err != nil {
		return in, err
	}
	if in.IsPublished, err = f.flag("is_published"); err != nil {
		return in, err
	}
	if in.Order, err = f.number("order"); err != nil {
		return in, err
	}
	if remove, err := f.flag("remove_cover"); err != nil {
		return in, err
	} else if remove != nil {
		in.RemoveCover = *remove
	}
	in.Cover, err = f.upload("cover", h.MaxUploadBytes)
	return in, err
}

// Create accepts a multipart form with an optional "cover" image, or JSON.
func (h *AdminAlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseRequest(w, r, 1, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	in, err := h.albumInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	album, err := h.Albums.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (h *AdminAlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	album, err := h.Albums.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *AdminAlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	f, err := parseRequest(w, r, 1, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	in, err := h.albumInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	album, err := h.Albums.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *AdminAlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if err := h.Albums.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder applies drag-and-drop positions to the albums of ?category={id}.
func (h *AdminAlbumHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	f := &requestFields{values: map[string]string{"category": r.URL.Query().Get("category")}}
	categoryID, err := f.ref("category")
	if err == nil && categoryID == nil {
		err = &media.ValidationError{Field: "category", Message: "parametrul category este obligatoriu"}
	}
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	entries, err := parseReorder(w, r)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	updated, err := h.Albums.Reorder(r.Context(), *categoryID, entries)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Ordinea a fost actualizată pentru %d albume", updated)})
}
