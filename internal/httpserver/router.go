package httpserver

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"agrotrack/internal/auth"
	"agrotrack/internal/livestock"
	"agrotrack/internal/metrics"
	"agrotrack/internal/sanitize"
	"agrotrack/internal/upload"
)

func NewRouter(
	logger *slog.Logger,
	authSvc *auth.Service,
	store *livestock.Store,
	files *upload.Store,
) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", metrics.Handler())

	// Auth. Logout is deliberately outside the verify middleware: revoking an
	// already-revoked token must stay a no-op, not a 401.
	mux.Handle("/api/v1/auth/login", loginHandler(authSvc, logger))
	mux.Handle("/api/v1/auth/logout", logoutHandler(authSvc, logger))
	mux.Handle("/api/v1/auth/forgot-password", forgotPasswordHandler(authSvc, logger))
	mux.Handle("/api/v1/auth/reset-password", resetPasswordHandler(authSvc, logger))

	secured := auth.Middleware(authSvc)
	sanitized := sanitize.Middleware(sanitize.DefaultPolicy())

	// Viewers can read everything; creating and editing needs admin or
	// manager.
	writeGuard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			auth.RequireRole(next.ServeHTTP, auth.RoleAdmin, auth.RoleManager)(w, r)
		})
	}

	agents := &livestock.AgentsHandler{Store: store, Logger: logger}
	agentDetail := &livestock.AgentDetailHandler{Store: store, Logger: logger}
	sellers := &livestock.SellersHandler{Store: store, Logger: logger}
	sellerDetail := &livestock.SellerDetailHandler{Store: store, Logger: logger}

	mux.Handle("/api/v1/agents", secured(sanitized(writeGuard(agents))))
	mux.Handle("/api/v1/agents/", secured(sanitized(writeGuard(agentDetail))))
	mux.Handle("/api/v1/sellers", secured(sanitized(writeGuard(sellers))))
	mux.Handle("/api/v1/sellers/", secured(sanitized(writeGuard(sellerDetail))))

	animals := &livestock.AnimalsHandler{
		Store:  store,
		Files:  files,
		Guard:  upload.NewGuard(files, map[string]upload.Kind{
			"photo":    upload.KindImage,
			"document": upload.KindDocument,
			"video":    upload.KindVideo,
		}),
		Logger: logger,
	}
	payments := &livestock.PaymentsHandler{
		Store:  store,
		Files:  files,
		Guard:  upload.NewGuard(files, map[string]upload.Kind{
			"receipt": upload.KindDocument,
		}),
		Logger: logger,
	}
	mux.Handle("/api/v1/animals", secured(writeGuard(animals)))
	mux.Handle("/api/v1/payments", secured(writeGuard(payments)))

	return metrics.Middleware(withCORS(mux))
}
