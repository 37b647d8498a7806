package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/handler/http/response"
)

// AlertHandler defines the alert handler interface
type AlertHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	GetConfigs(w http.ResponseWriter, r *http.Request)
	UpdateConfig(w http.ResponseWriter, r *http.Request)
}

type alertHandlerImpl struct {
	alertService alert.Service
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService alert.Service) AlertHandler {
	return &alertHandlerImpl{alertService: alertService}
}

// getUserIDFromContext extracts user_id from JWT context
func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// Generate triggers an on-demand detection scan. Concurrent triggers share
// the in-flight scan rather than stacking.
func (h *alertHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	created, err := h.alertService.Scan(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Alert scan completed", alert.GenerateResponse{Created: created})
}

// List returns alerts matching the optional severity, type and resolved
// filters, newest first
func (h *alertHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := alert.Filter{
		Page:  getIntQueryParam(r, "page", 1),
		Limit: getIntQueryParam(r, "limit", 20),
	}

	if v := r.URL.Query().Get("severity"); v != "" {
		severity := alert.Severity(v)
		if !severity.IsValid() {
			response.HandleError(w, alert.ErrInvalidSeverity)
			return
		}
		filter.Severity = &severity
	}
	if v := r.URL.Query().Get("type"); v != "" {
		alertType := alert.AlertType(v)
		if !alertType.IsValid() {
			response.HandleError(w, alert.ErrInvalidAlertType)
			return
		}
		filter.Type = &alertType
	}
	if v := r.URL.Query().Get("resolved"); v != "" {
		resolved := v == "true" || v == "1"
		filter.Resolved = &resolved
	}

	result, err := h.alertService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Alerts, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.Total,
		TotalPages: (result.Total + result.Limit - 1) / result.Limit,
	})
}

// Resolve marks an alert resolved. Resolving twice succeeds without change.
func (h *alertHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")

	var req alert.ResolveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}

	if err := h.alertService.Resolve(r.Context(), alertID, req.Reason); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Alert resolved", nil)
}

// Stats returns aggregate alert counts for the dashboard
func (h *alertHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alertService.Stats(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, stats)
}

// GetConfigs returns every alert type's configuration
func (h *alertHandlerImpl) GetConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.alertService.GetConfigs(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, configs)
}

// UpdateConfig applies a partial update to one alert type's configuration
func (h *alertHandlerImpl) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req alert.UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.Type = alert.AlertType(chi.URLParam(r, "alertType"))

	cfg, err := h.alertService.UpdateConfig(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Alert configuration updated", cfg)
}
