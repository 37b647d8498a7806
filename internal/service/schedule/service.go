package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openlab-hq/labops-backend-go/internal/domain/notification"
	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/validator"
)

type scheduleService struct {
	schedules  schedule.WorkScheduleRepository
	blocks     schedule.ScheduleBlockRepository
	validator  *ComplianceValidator
	dispatcher notification.Dispatcher
}

// NewScheduleService creates the weekly-schedule service
func NewScheduleService(
	schedules schedule.WorkScheduleRepository,
	blocks schedule.ScheduleBlockRepository,
	complianceValidator *ComplianceValidator,
	dispatcher notification.Dispatcher,
) schedule.Service {
	return &scheduleService{
		schedules:  schedules,
		blocks:     blocks,
		validator:  complianceValidator,
		dispatcher: dispatcher,
	}
}

// weekStartOf normalizes any date to the Monday of its calendar week
func weekStartOf(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

func (s *scheduleService) CreateSchedule(ctx context.Context, req schedule.CreateScheduleRequest) (schedule.ScheduleResponse, error) {
	date, ok := validator.IsValidDate(req.WeekStartDate)
	if !ok {
		return schedule.ScheduleResponse{}, validator.ValidationErrors{
			{Field: "week_start_date", Message: "invalid date format, use YYYY-MM-DD"},
		}
	}

	weekStart := weekStartOf(date)

	// The unique constraint is the real guard; this check just gives a clean
	// error without burning the insert.
	if _, err := s.schedules.GetByUserWeek(ctx, req.UserID, weekStart); err == nil {
		return schedule.ScheduleResponse{}, schedule.ErrScheduleExists
	} else if !errors.Is(err, schedule.ErrScheduleNotFound) {
		return schedule.ScheduleResponse{}, err
	}

	ws := schedule.WorkSchedule{
		UserID:        req.UserID,
		WeekStartDate: weekStart,
		Status:        schedule.StatusDraft,
		Notes:         req.Notes,
	}

	created, err := s.schedules.Create(ctx, ws)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	return s.toResponse(created, nil), nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, id string) (schedule.ScheduleResponse, error) {
	ws, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	blocks, err := s.blocks.GetByScheduleID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	return s.toResponse(ws, blocks), nil
}

func (s *scheduleService) ListMySchedules(ctx context.Context, userID string) (schedule.ScheduleListResponse, error) {
	schedules, err := s.schedules.ListByUser(ctx, userID, 26)
	if err != nil {
		return schedule.ScheduleListResponse{}, err
	}

	responses := make([]schedule.ScheduleResponse, len(schedules))
	for i, ws := range schedules {
		blocks, err := s.blocks.GetByScheduleID(ctx, ws.ID)
		if err != nil {
			return schedule.ScheduleListResponse{}, err
		}
		responses[i] = s.toResponse(ws, blocks)
	}

	return schedule.ScheduleListResponse{Schedules: responses, Total: len(responses)}, nil
}

func (s *scheduleService) ListPending(ctx context.Context) (schedule.ScheduleListResponse, error) {
	schedules, err := s.schedules.ListByStatus(ctx, schedule.StatusSubmitted)
	if err != nil {
		return schedule.ScheduleListResponse{}, err
	}

	responses := make([]schedule.ScheduleResponse, len(schedules))
	for i, ws := range schedules {
		blocks, err := s.blocks.GetByScheduleID(ctx, ws.ID)
		if err != nil {
			return schedule.ScheduleListResponse{}, err
		}
		responses[i] = s.toResponse(ws, blocks)
	}

	return schedule.ScheduleListResponse{Schedules: responses, Total: len(responses)}, nil
}

// editableSchedule loads a schedule and verifies the caller may edit it
func (s *scheduleService) editableSchedule(ctx context.Context, scheduleID, userID string) (schedule.WorkSchedule, error) {
	ws, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return schedule.WorkSchedule{}, err
	}
	if ws.UserID != userID {
		return schedule.WorkSchedule{}, schedule.ErrNotScheduleOwner
	}
	if ws.Status != schedule.StatusDraft {
		return schedule.WorkSchedule{}, schedule.ErrScheduleNotDraft
	}
	return ws, nil
}

func (s *scheduleService) CreateBlock(ctx context.Context, req schedule.CreateBlockRequest) (schedule.BlockResponse, error) {
	if _, err := s.editableSchedule(ctx, req.ScheduleID, req.UserID); err != nil {
		return schedule.BlockResponse{}, err
	}

	block, err := buildBlock(req.ScheduleID, req.DayOfWeek, req.StartTime, req.EndTime, req.Location, req.Activity)
	if err != nil {
		return schedule.BlockResponse{}, err
	}

	created, err := s.blocks.Create(ctx, block)
	if err != nil {
		return schedule.BlockResponse{}, err
	}

	return toBlockResponse(created), nil
}

// buildBlock parses and validates block fields. Non-positive durations are
// rejected here, never clamped.
func buildBlock(scheduleID string, dayOfWeek int, startTime, endTime, location, activity string) (schedule.ScheduleBlock, error) {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return schedule.ScheduleBlock{}, schedule.ErrInvalidDayOfWeek
	}

	start, err := validator.ParseClock(startTime)
	if err != nil {
		return schedule.ScheduleBlock{}, validator.ValidationErrors{{Field: "start_time", Message: err.Error()}}
	}
	end, err := validator.ParseClock(endTime)
	if err != nil {
		return schedule.ScheduleBlock{}, validator.ValidationErrors{{Field: "end_time", Message: err.Error()}}
	}
	if end <= start {
		return schedule.ScheduleBlock{}, schedule.ErrInvalidBlockDuration
	}

	return schedule.ScheduleBlock{
		ScheduleID:  scheduleID,
		DayOfWeek:   dayOfWeek,
		StartMinute: start,
		EndMinute:   end,
		Location:    location,
		Activity:    activity,
	}, nil
}

func (s *scheduleService) UpdateBlock(ctx context.Context, req schedule.UpdateBlockRequest) (schedule.BlockResponse, error) {
	if _, err := s.editableSchedule(ctx, req.ScheduleID, req.UserID); err != nil {
		return schedule.BlockResponse{}, err
	}

	block, err := s.blocks.GetByID(ctx, req.BlockID)
	if err != nil {
		return schedule.BlockResponse{}, err
	}
	if block.ScheduleID != req.ScheduleID {
		return schedule.BlockResponse{}, schedule.ErrBlockNotFound
	}

	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 1 || *req.DayOfWeek > 7 {
			return schedule.BlockResponse{}, schedule.ErrInvalidDayOfWeek
		}
		block.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		start, err := validator.ParseClock(*req.StartTime)
		if err != nil {
			return schedule.BlockResponse{}, validator.ValidationErrors{{Field: "start_time", Message: err.Error()}}
		}
		block.StartMinute = start
	}
	if req.EndTime != nil {
		end, err := validator.ParseClock(*req.EndTime)
		if err != nil {
			return schedule.BlockResponse{}, validator.ValidationErrors{{Field: "end_time", Message: err.Error()}}
		}
		block.EndMinute = end
	}
	if block.EndMinute <= block.StartMinute {
		return schedule.BlockResponse{}, schedule.ErrInvalidBlockDuration
	}
	if req.Location != nil {
		block.Location = *req.Location
	}
	if req.Activity != nil {
		block.Activity = *req.Activity
	}

	if err := s.blocks.Update(ctx, block); err != nil {
		return schedule.BlockResponse{}, err
	}

	return toBlockResponse(block), nil
}

func (s *scheduleService) DeleteBlock(ctx context.Context, blockID, scheduleID, userID string) error {
	if _, err := s.editableSchedule(ctx, scheduleID, userID); err != nil {
		return err
	}
	return s.blocks.Delete(ctx, blockID, scheduleID)
}

func (s *scheduleService) GetCompliance(ctx context.Context, scheduleID string) (schedule.ComplianceResult, error) {
	if _, err := s.schedules.GetByID(ctx, scheduleID); err != nil {
		return schedule.ComplianceResult{}, err
	}

	blocks, err := s.blocks.GetByScheduleID(ctx, scheduleID)
	if err != nil {
		return schedule.ComplianceResult{}, err
	}

	return s.validator.Validate(blocks), nil
}

// Submit moves a draft schedule to submitted. The transition is allowed only
// when every compliance check passes; otherwise the caller receives the full
// violation list and the schedule stays a draft.
func (s *scheduleService) Submit(ctx context.Context, scheduleID, userID string) (schedule.ScheduleResponse, error) {
	ws, err := s.editableSchedule(ctx, scheduleID, userID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	blocks, err := s.blocks.GetByScheduleID(ctx, scheduleID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	result := s.validator.Validate(blocks)
	if !result.IsValid {
		return schedule.ScheduleResponse{}, &schedule.ComplianceError{Result: result}
	}

	totalHours := result.TotalHours
	err = s.schedules.UpdateStatus(ctx, schedule.UpdateStatusRequest{
		ScheduleID: scheduleID,
		FromStatus: schedule.StatusDraft,
		ToStatus:   schedule.StatusSubmitted,
		TotalHours: &totalHours,
	})
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	ws.Status = schedule.StatusSubmitted
	ws.TotalScheduledHours = totalHours

	s.notify(notification.Event{
		Type:          notification.EventScheduleSubmitted,
		Title:         "Schedule submitted",
		Message:       "A weekly schedule was submitted for review",
		RecipientRole: rolePtr(user.RoleProfessor),
		SenderID:      &userID,
		Data: map[string]interface{}{
			"schedule_id":     scheduleID,
			"user_id":         userID,
			"week_start_date": ws.WeekStartDate.Format("2006-01-02"),
			"total_hours":     totalHours,
		},
	})

	return s.toResponse(ws, blocks), nil
}

func (s *scheduleService) Approve(ctx context.Context, scheduleID string) error {
	ws, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if ws.Status != schedule.StatusSubmitted {
		return schedule.ErrScheduleNotSubmitted
	}

	approved := true
	err = s.schedules.UpdateStatus(ctx, schedule.UpdateStatusRequest{
		ScheduleID: scheduleID,
		FromStatus: schedule.StatusSubmitted,
		ToStatus:   schedule.StatusApproved,
		Approved:   &approved,
	})
	if err != nil {
		return err
	}

	s.notify(notification.Event{
		Type:       notification.EventScheduleApproved,
		Title:      "Schedule approved",
		Message:    "Your weekly schedule was approved",
		Recipients: []string{ws.UserID},
		Data: map[string]interface{}{
			"schedule_id":     scheduleID,
			"week_start_date": ws.WeekStartDate.Format("2006-01-02"),
		},
	})
	return nil
}

func (s *scheduleService) Reject(ctx context.Context, scheduleID string, reason *string) error {
	ws, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if ws.Status != schedule.StatusSubmitted {
		return schedule.ErrScheduleNotSubmitted
	}

	err = s.schedules.UpdateStatus(ctx, schedule.UpdateStatusRequest{
		ScheduleID: scheduleID,
		FromStatus: schedule.StatusSubmitted,
		ToStatus:   schedule.StatusRejected,
		Notes:      reason,
	})
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"schedule_id":     scheduleID,
		"week_start_date": ws.WeekStartDate.Format("2006-01-02"),
	}
	if reason != nil {
		data["reason"] = *reason
	}
	s.notify(notification.Event{
		Type:       notification.EventScheduleRejected,
		Title:      "Schedule rejected",
		Message:    "Your weekly schedule was rejected, please revise and resubmit",
		Recipients: []string{ws.UserID},
		Data:       data,
	})
	return nil
}

// Reopen returns a rejected schedule to draft so the student can resubmit
func (s *scheduleService) Reopen(ctx context.Context, scheduleID, userID string) error {
	ws, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if ws.UserID != userID {
		return schedule.ErrNotScheduleOwner
	}
	if ws.Status != schedule.StatusRejected {
		return schedule.ErrScheduleNotRejected
	}

	return s.schedules.UpdateStatus(ctx, schedule.UpdateStatusRequest{
		ScheduleID: scheduleID,
		FromStatus: schedule.StatusRejected,
		ToStatus:   schedule.StatusDraft,
	})
}

// notify dispatches without blocking the caller. The schedule mutation has
// already been persisted; notification is best effort.
func (s *scheduleService) notify(event notification.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report := s.dispatcher.Dispatch(ctx, event)
		if report.Failed > 0 {
			slog.Warn("Schedule notification partially failed",
				"event_type", event.Type, "delivered", report.Delivered, "failed", report.Failed)
		}
	}()
}

func rolePtr(r user.Role) *user.Role {
	return &r
}

func (s *scheduleService) toResponse(ws schedule.WorkSchedule, blocks []schedule.ScheduleBlock) schedule.ScheduleResponse {
	blockResponses := make([]schedule.BlockResponse, len(blocks))
	for i, b := range blocks {
		blockResponses[i] = toBlockResponse(b)
	}

	return schedule.ScheduleResponse{
		ID:                  ws.ID,
		UserID:              ws.UserID,
		WeekStartDate:       ws.WeekStartDate.Format("2006-01-02"),
		Status:              ws.Status,
		Approved:            ws.Approved,
		TotalScheduledHours: ws.TotalScheduledHours,
		Notes:               ws.Notes,
		Blocks:              blockResponses,
		Compliance:          s.validator.Validate(blocks),
		CreatedAt:           ws.CreatedAt,
		UpdatedAt:           ws.UpdatedAt,
	}
}

func toBlockResponse(b schedule.ScheduleBlock) schedule.BlockResponse {
	return schedule.BlockResponse{
		ID:        b.ID,
		DayOfWeek: b.DayOfWeek,
		StartTime: schedule.FormatMinute(b.StartMinute),
		EndTime:   schedule.FormatMinute(b.EndMinute),
		Hours:     b.Hours(),
		Location:  b.Location,
		Activity:  b.Activity,
	}
}
