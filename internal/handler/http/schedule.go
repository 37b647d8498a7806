package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
	"github.com/openlab-hq/labops-backend-go/internal/handler/http/response"
)

// ScheduleHandler defines the work schedule handler interface
type ScheduleHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)

	CreateBlock(w http.ResponseWriter, r *http.Request)
	UpdateBlock(w http.ResponseWriter, r *http.Request)
	DeleteBlock(w http.ResponseWriter, r *http.Request)

	GetCompliance(w http.ResponseWriter, r *http.Request)

	Submit(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Reopen(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.Service
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService schedule.Service) ScheduleHandler {
	return &scheduleHandlerImpl{scheduleService: scheduleService}
}

// getRoleFromContext extracts role from JWT context
func getRoleFromContext(r *http.Request) user.Role {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if role, ok := claims["role"].(string); ok {
		return user.Role(role)
	}
	return ""
}

// Create opens a new draft schedule for a week
func (h *scheduleHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req schedule.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.UserID = userID

	result, err := h.scheduleService.CreateSchedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Schedule created", result)
}

// Get returns a schedule with its blocks and a live compliance evaluation.
// Students can only read their own schedules.
func (h *scheduleHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.scheduleService.GetSchedule(r.Context(), chi.URLParam(r, "scheduleID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !getRoleFromContext(r).IsStaff() && result.UserID != userID {
		response.HandleError(w, schedule.ErrNotScheduleOwner)
		return
	}

	response.Success(w, result)
}

// ListMine returns the authenticated user's schedules, most recent first
func (h *scheduleHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.scheduleService.ListMySchedules(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPending lists submitted schedules awaiting review
func (h *scheduleHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListPending(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// CreateBlock adds a working interval to a draft schedule
func (h *scheduleHandlerImpl) CreateBlock(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req schedule.CreateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ScheduleID = chi.URLParam(r, "scheduleID")
	req.UserID = userID

	result, err := h.scheduleService.CreateBlock(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Block created", result)
}

// UpdateBlock rewrites a block on a draft schedule
func (h *scheduleHandlerImpl) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req schedule.UpdateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ScheduleID = chi.URLParam(r, "scheduleID")
	req.BlockID = chi.URLParam(r, "blockID")
	req.UserID = userID

	result, err := h.scheduleService.UpdateBlock(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DeleteBlock removes a block from a draft schedule
func (h *scheduleHandlerImpl) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	err := h.scheduleService.DeleteBlock(r.Context(), chi.URLParam(r, "blockID"), chi.URLParam(r, "scheduleID"), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Block deleted", nil)
}

// GetCompliance evaluates the schedule's current blocks against lab policy
// without changing its status. Students can only preview their own schedules.
func (h *scheduleHandlerImpl) GetCompliance(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	scheduleID := chi.URLParam(r, "scheduleID")
	ws, err := h.scheduleService.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !getRoleFromContext(r).IsStaff() && ws.UserID != userID {
		response.HandleError(w, schedule.ErrNotScheduleOwner)
		return
	}

	result, err := h.scheduleService.GetCompliance(r.Context(), scheduleID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Submit validates the draft against lab policy and moves it to review.
// A failing validation leaves the schedule in draft.
func (h *scheduleHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.scheduleService.Submit(r.Context(), chi.URLParam(r, "scheduleID"), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule submitted for review", result)
}

// Approve accepts a submitted schedule
func (h *scheduleHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduleService.Approve(r.Context(), chi.URLParam(r, "scheduleID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule approved", nil)
}

// Reject sends a submitted schedule back with an optional reason
func (h *scheduleHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req schedule.RejectScheduleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}

	if err := h.scheduleService.Reject(r.Context(), chi.URLParam(r, "scheduleID"), req.Reason); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule rejected", nil)
}

// Reopen returns a rejected schedule to draft for editing
func (h *scheduleHandlerImpl) Reopen(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.scheduleService.Reopen(r.Context(), chi.URLParam(r, "scheduleID"), userID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule reopened", nil)
}
