// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/timeouts"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	CRM    crm.API
	Log    *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, api crm.API, logger *zap.Logger) *Handler {
	return &Handler{Client: client, CRM: api, Log: logger}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	CRM      string `json:"crm,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "crm":"reachable" }
//
// A Mongo failure is a 503; a CRM probe failure is reported but keeps the
// status ok, since the engine degrades to logged failures and sweeps.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.CRM != nil {
		resp.CRM = "reachable"
		if err := h.probeCRM(ctx); err != nil {
			h.Log.Warn("health-check: crm probe failed", zap.Error(err))
			resp.CRM = "unreachable"
			resp.Error = err.Error()
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// probeCRM verifies the CRM API answers at all. An API-level error still
// proves the endpoint is up; only transport failures count as unreachable.
func (h *Handler) probeCRM(ctx context.Context) error {
	_, err := h.CRM.GroupByID(ctx, 1)
	if err == nil || errors.Is(err, crm.ErrNotFound) {
		return nil
	}
	var apiErr *crm.APIError
	if errors.As(err, &apiErr) {
		return nil
	}
	return err
}
