// Package httpx holds the JSON response envelope shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	ForceLogout bool     `json:"forceLogout,omitempty"`
	Data        any      `json:"data,omitempty"`
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Data(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

func OK(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, envelope{Success: true, Message: message})
}

func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Success: false, Message: message})
}

// FieldErrors rejects a request with the full accumulated list of per-field
// messages.
func FieldErrors(w http.ResponseWriter, status int, message string, errs []string) {
	write(w, status, envelope{Success: false, Message: message, Errors: errs})
}

// ForceLogout carries the extra flag the front end uses to purge its local
// session state.
func ForceLogout(w http.ResponseWriter, message string) {
	write(w, http.StatusForbidden, envelope{Success: false, Message: message, ForceLogout: true})
}
