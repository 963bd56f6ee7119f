package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/services"
)

// MetadataQueue schedules metadata backfill; *workers.MetadataWorker
// implements it.
type MetadataQueue interface {
	QueueMissing(ctx context.Context) (int, error)
}

type AdminPhotoHandler struct {
	Photos         *services.PhotoService
	Metadata       MetadataQueue
	MaxUploadBytes int64
	Log            *zap.Logger
}

func (h *AdminPhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	albumID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	photos, err := h.Photos.ListByAlbum(r.Context(), albumID)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

func (h *AdminPhotoHandler) photoInput(f *requestFields) (services.PhotoInput, error) {
	in := services.PhotoInput{Caption: f.str("caption"), AltText: f.str("alt_text")}
	var err error
	if in.IsFeatured, err = f.flag("is_featured"); err != nil {
		return in, err
	}
	if in.Order, err = f.number("order"); err != nil {
		return in, err
	}
	upload, err := f.upload("image", h.MaxUploadBytes)
	if err != nil {
		return in, err
	}
	switch {
	case upload != nil:
		a := media.Fresh(upload.Filename, upload.Data)
		in.Image = &a
	case f.has("image") && *f.str("image") != "":
		// the stored path sent back unchanged by the admin form
		a := media.Stored(*f.str("image"))
		in.Image = &a
	}
	return in, nil
}

// Create adds a single photo (field "image") after its siblings.
func (h *AdminPhotoHandler) Create(w http.ResponseWriter, r *http.Request) {
	albumID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	f, err := parseRequest(w, r, 1, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	in, err := h.photoInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	photo, err := h.Photos.Create(r.Context(), albumID, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// BulkUpload stores every file of field "images" as one batch.
func (h *AdminPhotoHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	albumID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	f, err := parseRequest(w, r, maxBatchFiles, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	uploads, err := f.uploads("images", h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	created, err := h.Photos.BulkUpload(r.Context(), albumID, uploads)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type gridUploadResponse struct {
	Success bool                 `json:"success"`
	Photos  []services.PhotoView `json:"photos"`
	Errors  []string             `json:"errors,omitempty"`
}

// GridUpload is the admin grid's upload: each file is appended on its own and
// failures are reported per file.
func (h *AdminPhotoHandler) GridUpload(w http.ResponseWriter, r *http.Request) {
	albumID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	f, err := parseRequest(w, r, maxBatchFiles, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	field := "images"
	if len(f.files[field]) == 0 {
		field = "image"
	}
	uploads, err := f.uploads(field, h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if len(uploads) == 0 {
		writeServiceError(w, h.Log, &media.ValidationError{Field: "images", Message: "nu a fost trimisă nicio imagine"})
		return
	}

	photos, errs := h.Photos.GridUpload(r.Context(), albumID, uploads)
	resp := gridUploadResponse{Success: len(errs) == 0, Photos: photos}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	status := http.StatusCreated
	if len(photos) == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func (h *AdminPhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	in, err := h.photoInput(f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	photo, err := h.Photos.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (h *AdminPhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if err := h.Photos.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminPhotoHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	featured, err := h.Photos.ToggleFeatured(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_featured": featured})
}

func (h *AdminPhotoHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	albumID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	entries, err := parseReorder(w, r)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	updated, err := h.Photos.Reorder(r.Context(), albumID, entries)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Ordinea a fost actualizată pentru %d fotografii", updated)})
}

func (h *AdminPhotoHandler) Renumber(w http.ResponseWriter, r *http.Request) {
	albumID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	changed, err := h.Photos.Renumber(r.Context(), albumID)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Au fost renumerotate %d fotografii", changed)})
}

// QueueMetadata schedules a backfill of photos missing dimensions or size.
func (h *AdminPhotoHandler) QueueMetadata(w http.ResponseWriter, r *http.Request) {
	if h.Metadata == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "worker_unavailable", "Procesarea metadatelor nu este pornită")
		return
	}
	queued, err := h.Metadata.QueueMissing(r.Context())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"message": "Metadatele au fost programate", "queued": queued})
}
