package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/services"
)

type AdminCategoryHandler struct {
	Categories     *services.CategoryService
	Covers         *services.CoverService
	MaxUploadBytes int64
	Log            *zap.Logger
}

func (h *AdminCategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *AdminCategoryHandler) categoryInput(f *requestFields) (services.CategoryInput, error) {
	in := services.CategoryInput{Slug: f.str("slug"), Description: f.str("description")}
	if name := f.str("name"); name != nil {
		in.Name = *name
	}
	active, err := f.flag("is_active")
	in.IsActive = active
	return in, err
}

func (h *AdminCategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseRequest(w, r, 0, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	in, err := h.categoryInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	category, err := h.Categories.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *AdminCategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	f, err := parseRequest(w, r, 0, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	in, err := h.categoryInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	category, err := h.Categories.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *AdminCategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if err := h.Categories.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCategoryHandler) ListCovers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	covers, err := h.Covers.ListByCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, covers)
}

func (h *AdminCategoryHandler) coverInput(f *requestFields) (services.CoverInput, error) {
	in := services.CoverInput{Title: f.str("title")}
	var err error
	if in.IsActive, err = f.flag("is_active"); err != nil {
		return in, err
	}
	if in.Order, err = f.number("order"); err != nil {
		return in, err
	}
	in.Image, err = f.upload("image", h.MaxUploadBytes)
	return in, err
}

// CreateCover handles multipart uploads of a category cover (field "image").
func (h *AdminCategoryHandler) CreateCover(w http.ResponseWriter, r *http.Request) {
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
	in, err := h.coverInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	cover, err := h.Covers.Create(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, cover)
}

func (h *AdminCategoryHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
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
	in, err := h.coverInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	cover, err := h.Covers.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cover)
}

func (h *AdminCategoryHandler) DeleteCover(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if err := h.Covers.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCategoryHandler) ReorderCovers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	entries, err := parseReorder(w, r)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	updated, err := h.Covers.Reorder(r.Context(), id, entries)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Ordinea a fost actualizată pentru %d coperți", updated)})
}
