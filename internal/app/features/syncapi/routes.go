// internal/app/features/syncapi/routes.go
package syncapi

import "github.com/go-chi/chi/v5"

// Routes returns the operator subrouter; mounted under /sync.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/sweep", h.ServeSweepAll)
	r.Post("/groups/{crmGroupID}/sweep", h.ServeSweepGroup)
	r.Get("/mappings/crm/{crmGroupID}", h.ServeMappingByCRM)
	r.Get("/mappings/member/{memberGroupID}", h.ServeMappingByMember)
	r.Get("/failures", h.ServeFailures)
	r.Get("/settings", h.ServeSettings)
	return r
}
