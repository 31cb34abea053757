package sanitize

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"agrotrack/internal/httpx"
)

// Body size ceiling for JSON payloads passing through the sanitizer.
const maxBodySize = 1 << 20

// Middleware applies the policy to create/update requests with JSON bodies.
// Multipart requests are skipped: their text parts are validated by the
// handlers that parse them. The body is restored for downstream handlers.
func Middleware(p *Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) || !jsonBody(r) {
				next.ServeHTTP(w, r)
				return
			}
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
			if err != nil {
				httpx.Error(w, http.StatusBadRequest, "unreadable request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var decoded any
			if len(body) > 0 {
				if err := json.Unmarshal(body, &decoded); err != nil {
					// Malformed JSON is the handler's 400 to give.
					next.ServeHTTP(w, r)
					return
				}
			}
			if errs := p.Check(decoded); len(errs) > 0 {
				httpx.FieldErrors(w, http.StatusBadRequest, "request contains disallowed content", errs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func jsonBody(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json")
}
