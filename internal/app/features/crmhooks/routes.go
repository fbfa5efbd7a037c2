// internal/app/features/crmhooks/routes.go
package crmhooks

import "github.com/go-chi/chi/v5"

// Routes returns the webhook subrouter; mounted under /hooks.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/civicrm", h.ServeHook)
	return r
}
