/*
Package req binds and validates inbound HTTP request data: JSON bodies, multipart forms,
numeric path parameters and limit/offset pagination.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatlink/internal/pkg/errs"
)

const (
	// MaxFormMemory is the in-memory budget for multipart parsing; larger parts spill to disk.
	MaxFormMemory int64 = 32 << 20

	// MaxRequestFileSize caps the whole multipart body.
	MaxRequestFileSize int64 = 20 << 20

	// DefaultPageLimit and MaxPageLimit bound list endpoints.
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// BindJSON decodes a single JSON document from the body into dst, rejecting unknown fields.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart limits the body to MaxRequestFileSize and parses the multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// PathID parses a positive int64 chi URL parameter.
func PathID(r *http.Request, name string) (int64, *errs.CustomError) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}
	return id, nil
}

// Page reads limit and offset query parameters, applying defaults and bounds.
func Page(r *http.Request) (limit int, offset int, customErr *errs.CustomError) {
	limit = DefaultPageLimit

	query := r.URL.Query()

	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, errs.NewError(errs.ErrInvalidParams)
		}
		limit = min(n, MaxPageLimit)
	}

	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errs.NewError(errs.ErrInvalidParams)
		}
		offset = n
	}

	return limit, offset, nil
}
