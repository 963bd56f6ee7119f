package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/ordering"
)

const (
	formSlack       int64 = 1 << 20
	multipartMemory int64 = 32 << 20
	maxBatchFiles         = 50
	dateLayout            = "2006-01-02"
)

// requestFields holds the scalar fields and files of an admin write request,
// whether it was sent as multipart form or as JSON.
type requestFields struct {
	values map[string]string
	files  map[string][]*multipart.FileHeader
}

// parseRequest reads the body of r. Multipart bodies are capped at maxFiles
// images of limit bytes plus slack for the other fields.
func parseRequest(w http.ResponseWriter, r *http.Request, maxFiles int, limit int64) (*requestFields, error) {
	f := &requestFields{values: map[string]string{}, files: map[string][]*multipart.FileHeader{}}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*limit+formSlack)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, &media.ValidationError{Message: "formular multipart invalid: " + err.Error()}
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				f.values[k] = v[0]
			}
		}
		for k, v := range r.MultipartForm.File {
			f.files[k] = v
		}
		return f, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, formSlack)
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &media.ValidationError{Message: "corp JSON invalid: " + err.Error()}
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			f.values[k] = val
		case bool:
			f.values[k] = strconv.FormatBool(val)
		case float64:
			f.values[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			f.values[k] = ""
		}
	}
	return f, nil
}

func (f *requestFields) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *requestFields) str(key string) *string {
	v, ok := f.values[key]
	if !ok {
		return nil
	}
	return &v
}

func (f *requestFields) flag(key string) (*bool, error) {
	v, ok := f.values[key]
	if !ok || v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &media.ValidationError{Field: key, Message: fmt.Sprintf("valoare booleană invalidă %q", v)}
	}
	return &b, nil
}

func (f *requestFields) number(key string) (*int, error) {
	v, ok := f.values[key]
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, &media.ValidationError{Field: key, Message: fmt.Sprintf("număr invalid %q", v)}
	}
	return &n, nil
}

func (f *requestFields) ref(key string) (*uint, error) {
	v, ok := f.values[key]
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, &media.ValidationError{Field: key, Message: fmt.Sprintf("identificator invalid %q", v)}
	}
	id := uint(n)
	return &id, nil
}

func (f *requestFields) date(key string) (*time.Time, error) {
	v, ok := f.values[key]
	if !ok || v == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, &media.ValidationError{Field: key, Message: fmt.Sprintf("data trebuie să fie în formatul AAAA-LL-ZZ, primit %q", v)}
	}
	return &d, nil
}

// uploads validates and reads every file sent under key. Validation runs on
// the declared size before any bytes are read.
func (f *requestFields) uploads(key string, limit int64) ([]media.Upload, error) {
	headers := f.files[key]
	for _, fh := range headers {
		if err := media.ValidateUpload(key, fh.Filename, fh.Size, limit); err != nil {
			return nil, err
		}
	}
	out := make([]media.Upload, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		out = append(out, media.Upload{Filename: fh.Filename, Data: data})
	}
	return out, nil
}

// upload returns the first file sent under key, or nil when there is none.
func (f *requestFields) upload(key string, limit int64) (*media.Upload, error) {
	uploads, err := f.uploads(key, limit)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

// reorderEntry keeps key presence so a missing id or order is rejected
// instead of read as zero.
type reorderEntry struct {
	ID    *uint `json:"id"`
	Order *int  `json:"order"`
}

// reorderPayload accepts {"photos":[...]}, the admin grid's {"order":[...]},
// {"albums":[...]}, {"covers":[...]} or a bare array of {id, order}.
type reorderPayload struct {
	Photos []reorderEntry `json:"photos"`
	Order  []reorderEntry `json:"order"`
	Albums []reorderEntry `json:"albums"`
	Covers []reorderEntry `json:"covers"`
}

func parseReorder(w http.ResponseWriter, r *http.Request) ([]ordering.Entry, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, formSlack))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &media.ValidationError{Field: "order", Message: "lista de ordonare lipsește"}
	}

	if body[0] == '[' {
		var raw []reorderEntry
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &media.ValidationError{Field: "order", Message: "listă de ordonare invalidă"}
		}
		return reorderEntries(raw)
	}

	var p reorderPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &media.ValidationError{Field: "order", Message: "listă de ordonare invalidă"}
	}
	for _, raw := range [][]reorderEntry{p.Photos, p.Order, p.Albums, p.Covers} {
		if raw != nil {
			return reorderEntries(raw)
		}
	}
	return nil, &media.ValidationError{Field: "order", Message: "lista de ordonare lipsește"}
}

// reorderEntries rejects the whole list when any entry lacks an id or an
// order, so nothing is applied.
func reorderEntries(raw []reorderEntry) ([]ordering.Entry, error) {
	entries := make([]ordering.Entry, 0, len(raw))
	for i, e := range raw {
		switch {
		case e.ID == nil || *e.ID == 0:
			return nil, &media.ValidationError{Field: "order", Message: fmt.Sprintf("elementul %d nu are un id valid", i)}
		case e.Order == nil:
			return nil, &media.ValidationError{Field: "order", Message: fmt.Sprintf("elementul %d nu are poziție", i)}
		}
		entries = append(entries, ordering.Entry{ID: *e.ID, Order: *e.Order})
	}
	return entries, nil
}

func idParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &media.ValidationError{Field: name, Message: fmt.Sprintf("identificator invalid %q", raw)}
	}
	return uint(id), nil
}
