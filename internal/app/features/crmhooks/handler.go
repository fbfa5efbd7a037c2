// internal/app/features/crmhooks/handler.go
package crmhooks

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/timeouts"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// Handler is the webhook bridge. A shim inside CiviCRM forwards its
// civicrm_pre / civicrm_post hook invocations here; the bridge republishes
// them on the local bus so CRM-origin changes run through exactly the same
// handlers as changes this service makes itself.
//
// Pre-phase calls are synchronous: the response returns the payload as
// amended by local handlers (the shim writes it back into the pending CRM
// operation) together with a state blob the shim must echo on the matching
// post call.
type Handler struct {
	Gateway *crm.Gateway
	Log     *zap.Logger
}

// NewHandler constructs a crmhooks Handler.
func NewHandler(gateway *crm.Gateway, logger *zap.Logger) *Handler {
	return &Handler{Gateway: gateway, Log: logger}
}

type hookRequest struct {
	Phase      string           `json:"phase"`
	OpID       string           `json:"op_id"`
	Op         string           `json:"op"`
	ObjectName string           `json:"object_name"`
	ObjectID   int64            `json:"object_id"`
	Group      *crm.GroupFields `json:"group,omitempty"`
	ContactIDs []int64          `json:"contact_ids,omitempty"`
	State      *crm.OpState     `json:"state,omitempty"`
}

type preResponse struct {
	OpID  string           `json:"op_id"`
	Group *crm.GroupFields `json:"group,omitempty"`
	State *crm.OpState     `json:"state"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validOp(op string) bool {
	return op == crm.OpCreate || op == crm.OpEdit || op == crm.OpDelete
}

func validObject(name string) bool {
	return name == crm.ObjectGroup || name == crm.ObjectGroupContact
}

// ServeHook handles POST /hooks/civicrm.
func (h *Handler) ServeHook(w http.ResponseWriter, r *http.Request) {
	var req hookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Phase != "pre" && req.Phase != "post" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phase must be pre or post"})
		return
	}
	if !validOp(req.Op) || !validObject(req.ObjectName) {
		// Uninteresting hooks are acknowledged, not rejected; the shim
		// forwards unfiltered.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ev := &crm.HookEvent{
		OpID:       req.OpID,
		Op:         req.Op,
		Object:     req.ObjectName,
		ObjectID:   req.ObjectID,
		Group:      req.Group,
		ContactIDs: req.ContactIDs,
		State:      req.State,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	switch req.Phase {
	case "pre":
		h.Gateway.Publish(ctx, crm.TopicPre, ev)
		writeJSON(w, http.StatusOK, preResponse{OpID: ev.OpID, Group: ev.Group, State: ev.State})
	case "post":
		h.Gateway.Publish(ctx, crm.TopicPost, ev)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
