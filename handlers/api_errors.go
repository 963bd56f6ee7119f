package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/services"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	writeAPIErrors(w, httpStatus, []APIErrorDetail{{Code: code, Detail: detail}})
}

func writeAPIErrors(w http.ResponseWriter, httpStatus int, details []APIErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	for i := range details {
		details[i].Status = strconv.Itoa(httpStatus)
	}
	_ = json.NewEncoder(w).Encode(APIErrorResponse{Errors: details})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeServiceError maps a service error onto the error envelope. Anything
// unrecognised is logged and reported as a 500 without its details.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var validation *media.ValidationError
	var codec *media.CodecError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &validation):
		writeAPIErrors(w, http.StatusBadRequest, []APIErrorDetail{{
			Code:   "validation_error",
			Detail: validation.Message,
			Field:  validation.Field,
		}})
	case errors.As(err, &tooLarge):
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "request_too_large",
			fmt.Sprintf("Cererea depășește limita de %dMB", tooLarge.Limit/(1024*1024)))
	case errors.As(err, &codec):
		WriteAPIError(w, http.StatusUnprocessableEntity, "image_unreadable",
			fmt.Sprintf("Imaginea %s nu poate fi procesată", codec.Filename))
	case errors.Is(err, services.ErrNotFound):
		WriteAPIError(w, http.StatusNotFound, "not_found", "Resursa nu a fost găsită")
	case errors.Is(err, services.ErrCategoryInUse):
		WriteAPIError(w, http.StatusConflict, "category_in_use", "Categoria are albume și nu poate fi ștearsă")
	case errors.Is(err, services.ErrConflict):
		WriteAPIError(w, http.StatusConflict, "conflict", "Valoarea există deja")
	case errors.Is(err, ingest.ErrConcurrentDeletion):
		WriteAPIError(w, http.StatusConflict, "concurrent_deletion", "Resursa a fost ștearsă între timp")
	default:
		log.Error("unhandled service error", zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Eroare internă")
	}
}
