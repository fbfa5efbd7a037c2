// internal/app/features/groupsapi/handler.go
package groupsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	groupstore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/groups"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/timeouts"
)

// Handler serves the member-side group CRUD surface used by the host
// platform. Everything that mutates goes through the group service, so
// each change enters the sync engine.
type Handler struct {
	Svc *groupsvc.Service
	// SyncUIEnabled mirrors the host setting that hides the "sync this
	// group" checkbox. When off, create requests cannot opt groups into
	// syncing.
	SyncUIEnabled bool
	Log           *zap.Logger
}

// NewHandler constructs a groupsapi Handler.
func NewHandler(svc *groupsvc.Service, syncUIEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, SyncUIEnabled: syncUIEnabled, Log: logger}
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SyncToCRM   bool   `json:"sync_to_crm"`
}

type updateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func groupIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ServeList handles GET /groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Svc.Groups(ctx)
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list groups")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ServeCreate handles POST /groups.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !h.SyncUIEnabled {
		req.SyncToCRM = false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Svc.CreateGroup(ctx, req.Name, req.Description, req.SyncToCRM)
	if errors.Is(err, groupstore.ErrDuplicateGroupName) {
		writeError(w, http.StatusConflict, "a group with that name already exists")
		return
	}
	if err != nil {
		h.Log.Error("create group failed", zap.String("name", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create group")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// ServeGet handles GET /groups/{groupID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := groupIDParam(r, "groupID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Svc.Group(ctx, id)
	if errors.Is(err, groupstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("get group failed", zap.Int64("group_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load group")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ServeUpdate handles PUT /groups/{groupID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := groupIDParam(r, "groupID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	var req updateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Svc.UpdateGroup(ctx, id, req.Name, req.Description)
	if errors.Is(err, groupstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("update group failed", zap.Int64("group_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not update group")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ServeDelete handles DELETE /groups/{groupID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := groupIDParam(r, "groupID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Svc.DeleteGroup(ctx, id)
	if errors.Is(err, groupstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("delete group failed", zap.Int64("group_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMembers handles GET /groups/{groupID}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := groupIDParam(r, "groupID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Svc.Group(ctx, id); errors.Is(err, groupstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	userIDs, err := h.Svc.Members(ctx, id)
	if err != nil {
		h.Log.Error("list members failed", zap.Int64("group_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list members")
		return
	}
	if userIDs == nil {
		userIDs = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"group_id": id, "user_ids": userIDs})
}

// ServeAddMember handles PUT /groups/{groupID}/members/{userID}.
// Adding an existing member reports changed=false and succeeds.
func (h *Handler) ServeAddMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDParam(r, "groupID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	userID, ok := groupIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	changed, err := h.Svc.AddMember(ctx, groupID, userID)
	if errors.Is(err, groupstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("add member failed", zap.Int64("group_id", groupID), zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add member")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

// ServeRemoveMember handles DELETE /groups/{groupID}/members/{userID}.
// Removing an absent member reports changed=false and succeeds.
func (h *Handler) ServeRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDParam(r, "groupID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	userID, ok := groupIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	changed, err := h.Svc.RemoveMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("remove member failed", zap.Int64("group_id", groupID), zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not remove member")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}
