// Package upload validates multipart file uploads before anything reaches a
// handler: a closed field-to-kind mapping, extension and content-type
// allow-lists, and post-hoc size ceilings with full cleanup on violation.
package upload

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
)

type kindRule struct {
	exts    map[string]struct{}
	mimes   map[string]struct{}
	maxSize int64
	bucket  string
}

const (
	maxImageSize     = 5 << 20
	maxDocumentSize  = 5 << 20
	maxVideoSize     = 50 << 20
	maxAggregateSize = 150 << 20

	// Upper bound on the non-file part of the form held in memory.
	maxFormMemory = 32 << 20
)

var kindRules = map[Kind]kindRule{
	KindImage: {
		exts:    set(".jpg", ".jpeg", ".png", ".webp"),
		mimes:   set("image/jpeg", "image/png", "image/webp"),
		maxSize: maxImageSize,
		bucket:  "images",
	},
	KindDocument: {
		exts:    set(".pdf"),
		mimes:   set("application/pdf"),
		maxSize: maxDocumentSize,
		bucket:  "documents",
	},
	KindVideo: {
		exts:    set(".mp4", ".mov", ".avi", ".mkv"),
		mimes:   set("video/mp4", "video/quicktime", "video/x-msvideo", "video/x-matroska"),
		maxSize: maxVideoSize,
		bucket:  "videos",
	},
}

// var so tests can shrink it; requests never change it.
var aggregateLimit int64 = maxAggregateSize

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// FieldError is a per-field rejection, reported with the field name so the
// client can label it.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TooLargeError maps to 413.
type TooLargeError struct {
	Message string
}

func (e *TooLargeError) Error() string { return e.Message }

// Guard validates every file in a multipart request against its declared
// field mapping and writes accepted files into the store.
type Guard struct {
	fields map[string]Kind
	store  *Store
}

func NewGuard(store *Store, fields map[string]Kind) *Guard {
	return &Guard{store: store, fields: fields}
}

// Process parses the multipart form and validates and persists every file.
// On any failure it deletes everything already written for this request, so
// a rejected request never leaves partial uploads behind.
func (g *Guard) Process(r *http.Request) ([]SavedFile, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, &FieldError{Field: "form", Message: "malformed multipart body"}
	}
	if r.MultipartForm == nil {
		return nil, nil
	}

	var saved []SavedFile
	fail := func(err error) ([]SavedFile, error) {
		g.store.Remove(saved)
		return nil, err
	}

	var total int64
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			kind, err := g.classify(field, fh)
			if err != nil {
				return fail(err)
			}
			sf, err := g.store.Save(kind, fh)
			if err != nil {
				return fail(fmt.Errorf("store %s: %w", fh.Filename, err))
			}
			sf.Field = field
			saved = append(saved, sf)
			total += sf.Size
		}
	}

	// Size ceilings are checked only after the whole request body has been
	// received and written out.
	for _, sf := range saved {
		rule := kindRules[sf.Kind]
		if sf.Size > rule.maxSize {
			return fail(&TooLargeError{
				Message: fmt.Sprintf("%s exceeds the %d MiB limit for %s files", sf.OriginalName, rule.maxSize>>20, sf.Kind),
			})
		}
	}
	if total > aggregateLimit {
		return fail(&TooLargeError{
			Message: fmt.Sprintf("combined upload size exceeds the %d MiB limit", aggregateLimit>>20),
		})
	}
	return saved, nil
}

// classify decides the kind for one file. Photoshop files are rejected
// outright before the field mapping is even consulted.
func (g *Guard) classify(field string, fh *multipart.FileHeader) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == ".psd" {
		return "", &FieldError{Field: field, Message: "Photoshop (.psd) files are not accepted"}
	}
	kind, ok := g.fields[field]
	if !ok {
		return "", &FieldError{Field: field, Message: "unexpected upload field"}
	}
	rule := kindRules[kind]
	if _, ok := rule.exts[ext]; !ok {
		return "", &FieldError{Field: field, Message: fmt.Sprintf("file extension %q is not allowed for %s uploads", ext, kind)}
	}
	ctype := fh.Header.Get("Content-Type")
	if _, ok := rule.mimes[ctype]; !ok {
		return "", &FieldError{Field: field, Message: fmt.Sprintf("content type %q is not allowed for %s uploads", ctype, kind)}
	}
	return kind, nil
}
