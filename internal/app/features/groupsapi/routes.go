// internal/app/features/groupsapi/routes.go
package groupsapi

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter for member group CRUD; mounted under /groups.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/{groupID}", h.ServeGet)
	r.Put("/{groupID}", h.ServeUpdate)
	r.Delete("/{groupID}", h.ServeDelete)
	r.Get("/{groupID}/members", h.ServeMembers)
	r.Put("/{groupID}/members/{userID}", h.ServeAddMember)
	r.Delete("/{groupID}/members/{userID}", h.ServeRemoveMember)
	return r
}
