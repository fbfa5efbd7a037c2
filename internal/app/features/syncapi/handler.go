// internal/app/features/syncapi/handler.go
package syncapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/store/syncfailures"
	appsync "github.com/mjwconsult/civicrm-groups-sync/internal/app/sync"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/timeouts"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// Handler serves the operator surface of the sync engine: sweep triggers,
// mapping lookups and the failure log.
type Handler struct {
	Engine   *appsync.Engine
	Mapper   *appsync.Mapper
	Failures *syncfailures.Store
	// CRMAdminBase and MemberAdminBase are the base URLs the mapping
	// endpoints use to build edit links for operators. Either may be empty.
	CRMAdminBase    string
	MemberAdminBase string
	SyncUIEnabled   bool
	Log             *zap.Logger
}

// NewHandler constructs a syncapi Handler.
func NewHandler(engine *appsync.Engine, mapper *appsync.Mapper, failures *syncfailures.Store, crmAdminBase, memberAdminBase string, syncUIEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Engine:          engine,
		Mapper:          mapper,
		Failures:        failures,
		CRMAdminBase:    crmAdminBase,
		MemberAdminBase: memberAdminBase,
		SyncUIEnabled:   syncUIEnabled,
		Log:             logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) crmEditURL(crmGroupID int64) string {
	if h.CRMAdminBase == "" {
		return ""
	}
	return fmt.Sprintf("%s/civicrm/group/edit?reset=1&action=update&id=%d", h.CRMAdminBase, crmGroupID)
}

func (h *Handler) memberEditURL(memberGroupID int64) string {
	if h.MemberAdminBase == "" {
		return ""
	}
	return fmt.Sprintf("%s/groups/%d/edit", h.MemberAdminBase, memberGroupID)
}

// mappingResponse describes one synced pair for operators.
type mappingResponse struct {
	CRMGroupID    int64  `json:"crm_group_id"`
	MemberGroupID int64  `json:"member_group_id"`
	CRMEditURL    string `json:"crm_edit_url,omitempty"`
	MemberEditURL string `json:"member_edit_url,omitempty"`
}

// ServeSweepGroup handles POST /sync/groups/{crmGroupID}/sweep.
func (h *Handler) ServeSweepGroup(w http.ResponseWriter, r *http.Request) {
	crmGroupID, err := strconv.ParseInt(chi.URLParam(r, "crmGroupID"), 10, 64)
	if err != nil || crmGroupID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid crm group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Sweep())
	defer cancel()

	res, err := h.Engine.SyncGroupToMembers(ctx, crmGroupID)
	if err != nil {
		h.Log.Warn("group sweep failed", zap.Int64("crm_group_id", crmGroupID), zap.Error(err))
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ServeSweepAll handles POST /sync/sweep.
func (h *Handler) ServeSweepAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Sweep())
	defer cancel()

	results, err := h.Engine.SyncAllGroups(ctx)
	if err != nil {
		h.Log.Error("full sweep failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not enumerate synced groups")
		return
	}
	if results == nil {
		results = []appsync.SweepResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": results})
}

// ServeMappingByCRM handles GET /sync/mappings/crm/{crmGroupID}.
func (h *Handler) ServeMappingByCRM(w http.ResponseWriter, r *http.Request) {
	crmGroupID, err := strconv.ParseInt(chi.URLParam(r, "crmGroupID"), 10, 64)
	if err != nil || crmGroupID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid crm group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	memberID, mapped, err := h.Mapper.MemberGroupIDFor(ctx, crmGroupID)
	if err != nil {
		h.Log.Error("mapping lookup failed", zap.Int64("crm_group_id", crmGroupID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "crm lookup failed")
		return
	}
	if !mapped {
		writeError(w, http.StatusNotFound, "no member counterpart")
		return
	}
	writeJSON(w, http.StatusOK, mappingResponse{
		CRMGroupID:    crmGroupID,
		MemberGroupID: memberID,
		CRMEditURL:    h.crmEditURL(crmGroupID),
		MemberEditURL: h.memberEditURL(memberID),
	})
}

// ServeMappingByMember handles GET /sync/mappings/member/{memberGroupID}.
func (h *Handler) ServeMappingByMember(w http.ResponseWriter, r *http.Request) {
	memberGroupID, err := strconv.ParseInt(chi.URLParam(r, "memberGroupID"), 10, 64)
	if err != nil || memberGroupID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid member group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	crmGroup, mapped, err := h.Mapper.CRMGroupForMember(ctx, memberGroupID)
	if err != nil {
		h.Log.Error("mapping lookup failed", zap.Int64("member_group_id", memberGroupID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "crm lookup failed")
		return
	}
	if !mapped {
		writeError(w, http.StatusNotFound, "no crm counterpart")
		return
	}
	writeJSON(w, http.StatusOK, mappingResponse{
		CRMGroupID:    crmGroup.ID,
		MemberGroupID: memberGroupID,
		CRMEditURL:    h.crmEditURL(crmGroup.ID),
		MemberEditURL: h.memberEditURL(memberGroupID),
	})
}

// ServeFailures handles GET /sync/failures with optional operation,
// crm_group_id and limit query parameters.
func (h *Handler) ServeFailures(w http.ResponseWriter, r *http.Request) {
	if h.Failures == nil {
		writeError(w, http.StatusNotFound, "failure log not persisted in this configuration")
		return
	}
	filter := syncfailures.QueryFilter{
		Operation: r.URL.Query().Get("operation"),
	}
	if raw := r.URL.Query().Get("crm_group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid crm_group_id")
			return
		}
		filter.CRMGroupID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	records, err := h.Failures.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failure query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not query failures")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"failures": records})
}

// ServeSettings handles GET /sync/settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sync_ui_enabled": h.SyncUIEnabled,
		"marker_prefix":   appsync.MarkerPrefix,
		"group_type":      crm.GroupTypeAccessControl,
	})
}
