package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlab-hq/labops-backend-go/internal/domain/notification"
	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

type fakeScheduleRepo struct {
	schedules map[string]schedule.WorkSchedule

	// forcedStatusErr simulates a concurrent transition stealing the CAS
	forcedStatusErr error
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]schedule.WorkSchedule)}
}

func (f *fakeScheduleRepo) Create(_ context.Context, ws schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	for _, existing := range f.schedules {
		if existing.UserID == ws.UserID && existing.WeekStartDate.Equal(ws.WeekStartDate) {
			return schedule.WorkSchedule{}, schedule.ErrScheduleExists
		}
	}
	ws.ID = uuid.New().String()
	ws.CreatedAt = time.Now()
	ws.UpdatedAt = ws.CreatedAt
	f.schedules[ws.ID] = ws
	return ws, nil
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id string) (schedule.WorkSchedule, error) {
	ws, ok := f.schedules[id]
	if !ok {
		return schedule.WorkSchedule{}, schedule.ErrScheduleNotFound
	}
	return ws, nil
}

func (f *fakeScheduleRepo) GetByUserWeek(_ context.Context, userID string, weekStart time.Time) (schedule.WorkSchedule, error) {
	for _, ws := range f.schedules {
		if ws.UserID == userID && ws.WeekStartDate.Equal(weekStart) {
			return ws, nil
		}
	}
	return schedule.WorkSchedule{}, schedule.ErrScheduleNotFound
}

func (f *fakeScheduleRepo) ListByUser(_ context.Context, userID string, _ int) ([]schedule.WorkSchedule, error) {
	var out []schedule.WorkSchedule
	for _, ws := range f.schedules {
		if ws.UserID == userID {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListByStatus(_ context.Context, status schedule.ScheduleStatus) ([]schedule.WorkSchedule, error) {
	var out []schedule.WorkSchedule
	for _, ws := range f.schedules {
		if ws.Status == status {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) UpdateStatus(_ context.Context, req schedule.UpdateStatusRequest) error {
	if f.forcedStatusErr != nil {
		return f.forcedStatusErr
	}
	ws, ok := f.schedules[req.ScheduleID]
	if !ok {
		return schedule.ErrScheduleNotFound
	}
	if ws.Status != req.FromStatus {
		return schedule.ErrStatusConflict
	}
	ws.Status = req.ToStatus
	if req.Approved != nil {
		ws.Approved = *req.Approved
	}
	if req.TotalHours != nil {
		ws.TotalScheduledHours = *req.TotalHours
	}
	if req.Notes != nil {
		ws.Notes = req.Notes
	}
	ws.UpdatedAt = time.Now()
	f.schedules[req.ScheduleID] = ws
	return nil
}

type fakeBlockRepo struct {
	blocks map[string]schedule.ScheduleBlock
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[string]schedule.ScheduleBlock)}
}

func (f *fakeBlockRepo) Create(_ context.Context, b schedule.ScheduleBlock) (schedule.ScheduleBlock, error) {
	b.ID = uuid.New().String()
	f.blocks[b.ID] = b
	return b, nil
}

func (f *fakeBlockRepo) GetByID(_ context.Context, id string) (schedule.ScheduleBlock, error) {
	b, ok := f.blocks[id]
	if !ok {
		return schedule.ScheduleBlock{}, schedule.ErrBlockNotFound
	}
	return b, nil
}

func (f *fakeBlockRepo) GetByScheduleID(_ context.Context, scheduleID string) ([]schedule.ScheduleBlock, error) {
	var out []schedule.ScheduleBlock
	for _, b := range f.blocks {
		if b.ScheduleID == scheduleID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlockRepo) Update(_ context.Context, b schedule.ScheduleBlock) error {
	if _, ok := f.blocks[b.ID]; !ok {
		return schedule.ErrBlockNotFound
	}
	f.blocks[b.ID] = b
	return nil
}

func (f *fakeBlockRepo) Delete(_ context.Context, id, scheduleID string) error {
	b, ok := f.blocks[id]
	if !ok || b.ScheduleID != scheduleID {
		return schedule.ErrBlockNotFound
	}
	delete(f.blocks, id)
	return nil
}

// fakeDispatcher records events on a channel so tests can wait for the
// fire-and-forget dispatch goroutine
type fakeDispatcher struct {
	events chan notification.Event
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{events: make(chan notification.Event, 16)}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event notification.Event) notification.DeliveryReport {
	f.events <- event
	return notification.DeliveryReport{Delivered: 1}
}

func (f *fakeDispatcher) waitForEvent(t *testing.T) notification.Event {
	t.Helper()
	select {
	case event := <-f.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched event")
		return notification.Event{}
	}
}

func newTestService(t *testing.T) (schedule.Service, *fakeScheduleRepo, *fakeBlockRepo, *fakeDispatcher) {
	t.Helper()
	scheduleRepo := newFakeScheduleRepo()
	blockRepo := newFakeBlockRepo()
	dispatcher := newFakeDispatcher()
	svc := NewScheduleService(scheduleRepo, blockRepo, NewComplianceValidator(20), dispatcher)
	return svc, scheduleRepo, blockRepo, dispatcher
}

func addDraft(t *testing.T, repo *fakeScheduleRepo, userID string) schedule.WorkSchedule {
	t.Helper()
	ws, err := repo.Create(context.Background(), schedule.WorkSchedule{
		UserID:        userID,
		WeekStartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:        schedule.StatusDraft,
	})
	require.NoError(t, err)
	return ws
}

// fillCompliantWeek adds Mon-Fri 09:00-13:00, 20 hours total
func fillCompliantWeek(t *testing.T, blocks *fakeBlockRepo, scheduleID string) {
	t.Helper()
	for day := 1; day <= 5; day++ {
		_, err := blocks.Create(context.Background(), schedule.ScheduleBlock{
			ScheduleID:  scheduleID,
			DayOfWeek:   day,
			StartMinute: 9 * 60,
			EndMinute:   13 * 60,
		})
		require.NoError(t, err)
	}
}

func TestCreateSchedule_NormalizesToMonday(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	// 2026-03-04 is a Wednesday
	resp, err := svc.CreateSchedule(context.Background(), schedule.CreateScheduleRequest{
		UserID:        "student-1",
		WeekStartDate: "2026-03-04",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", resp.WeekStartDate)
	assert.Equal(t, schedule.StatusDraft, resp.Status)

	stored := repo.schedules[resp.ID]
	assert.Equal(t, time.Monday, stored.WeekStartDate.Weekday())
}

func TestCreateSchedule_DuplicateWeek(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := schedule.CreateScheduleRequest{UserID: "student-1", WeekStartDate: "2026-03-02"}
	_, err := svc.CreateSchedule(context.Background(), req)
	require.NoError(t, err)

	// A different day of the same week normalizes to the same Monday
	req.WeekStartDate = "2026-03-06"
	_, err = svc.CreateSchedule(context.Background(), req)
	assert.ErrorIs(t, err, schedule.ErrScheduleExists)
}

func TestCreateBlock_RejectsNonPositiveDuration(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")

	_, err := svc.CreateBlock(context.Background(), schedule.CreateBlockRequest{
		ScheduleID: ws.ID,
		UserID:     "student-1",
		DayOfWeek:  1,
		StartTime:  "14:00",
		EndTime:    "14:00",
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidBlockDuration)
}

func TestCreateBlock_NonOwner(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")

	_, err := svc.CreateBlock(context.Background(), schedule.CreateBlockRequest{
		ScheduleID: ws.ID,
		UserID:     "student-2",
		DayOfWeek:  1,
		StartTime:  "09:00",
		EndTime:    "12:00",
	})
	assert.ErrorIs(t, err, schedule.ErrNotScheduleOwner)
}

func TestCreateBlock_NonDraftSchedule(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")
	submitted := repo.schedules[ws.ID]
	submitted.Status = schedule.StatusSubmitted
	repo.schedules[ws.ID] = submitted

	_, err := svc.CreateBlock(context.Background(), schedule.CreateBlockRequest{
		ScheduleID: ws.ID,
		UserID:     "student-1",
		DayOfWeek:  1,
		StartTime:  "09:00",
		EndTime:    "12:00",
	})
	assert.ErrorIs(t, err, schedule.ErrScheduleNotDraft)
}

func TestSubmit_InvalidScheduleStaysDraft(t *testing.T) {
	svc, repo, blocks, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")

	// 12 hours, below the 20 hour floor
	_, err := blocks.Create(context.Background(), schedule.ScheduleBlock{
		ScheduleID: ws.ID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 12 * 60,
	})
	require.NoError(t, err)
	_, err = blocks.Create(context.Background(), schedule.ScheduleBlock{
		ScheduleID: ws.ID, DayOfWeek: 2, StartMinute: 9 * 60, EndMinute: 18 * 60,
	})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), ws.ID, "student-1")

	var complianceErr *schedule.ComplianceError
	require.ErrorAs(t, err, &complianceErr)
	assert.Equal(t, 12.0, complianceErr.Result.TotalHours)
	assert.Equal(t, schedule.StatusDraft, repo.schedules[ws.ID].Status)
}

func TestSubmit_ValidScheduleNotifiesProfessors(t *testing.T) {
	svc, repo, blocks, dispatcher := newTestService(t)
	ws := addDraft(t, repo, "student-1")
	fillCompliantWeek(t, blocks, ws.ID)

	resp, err := svc.Submit(context.Background(), ws.ID, "student-1")
	require.NoError(t, err)

	assert.Equal(t, schedule.StatusSubmitted, resp.Status)
	assert.Equal(t, 20.0, resp.TotalScheduledHours)
	assert.Equal(t, schedule.StatusSubmitted, repo.schedules[ws.ID].Status)

	event := dispatcher.waitForEvent(t)
	assert.Equal(t, notification.EventScheduleSubmitted, event.Type)
	require.NotNil(t, event.RecipientRole)
	assert.Equal(t, user.RoleProfessor, *event.RecipientRole)
}

func TestSubmit_StatusConflictSurfaces(t *testing.T) {
	svc, repo, blocks, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")
	fillCompliantWeek(t, blocks, ws.ID)
	repo.forcedStatusErr = schedule.ErrStatusConflict

	_, err := svc.Submit(context.Background(), ws.ID, "student-1")
	assert.ErrorIs(t, err, schedule.ErrStatusConflict)
}

func TestApprove_NotifiesOwner(t *testing.T) {
	svc, repo, blocks, dispatcher := newTestService(t)
	ws := addDraft(t, repo, "student-1")
	fillCompliantWeek(t, blocks, ws.ID)

	_, err := svc.Submit(context.Background(), ws.ID, "student-1")
	require.NoError(t, err)
	dispatcher.waitForEvent(t)

	require.NoError(t, svc.Approve(context.Background(), ws.ID))

	assert.Equal(t, schedule.StatusApproved, repo.schedules[ws.ID].Status)
	assert.True(t, repo.schedules[ws.ID].Approved)

	event := dispatcher.waitForEvent(t)
	assert.Equal(t, notification.EventScheduleApproved, event.Type)
	assert.Equal(t, []string{"student-1"}, event.Recipients)
}

func TestApprove_RequiresSubmitted(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")

	err := svc.Approve(context.Background(), ws.ID)
	assert.ErrorIs(t, err, schedule.ErrScheduleNotSubmitted)
}

func TestReject_CarriesReason(t *testing.T) {
	svc, repo, blocks, dispatcher := newTestService(t)
	ws := addDraft(t, repo, "student-1")
	fillCompliantWeek(t, blocks, ws.ID)

	_, err := svc.Submit(context.Background(), ws.ID, "student-1")
	require.NoError(t, err)
	dispatcher.waitForEvent(t)

	reason := "lab is closed on Friday"
	require.NoError(t, svc.Reject(context.Background(), ws.ID, &reason))

	assert.Equal(t, schedule.StatusRejected, repo.schedules[ws.ID].Status)

	event := dispatcher.waitForEvent(t)
	assert.Equal(t, notification.EventScheduleRejected, event.Type)
	assert.Equal(t, reason, event.Data["reason"])
}

func TestReopen_RejectedBackToDraft(t *testing.T) {
	svc, repo, blocks, dispatcher := newTestService(t)
	ws := addDraft(t, repo, "student-1")
	fillCompliantWeek(t, blocks, ws.ID)

	_, err := svc.Submit(context.Background(), ws.ID, "student-1")
	require.NoError(t, err)
	dispatcher.waitForEvent(t)
	require.NoError(t, svc.Reject(context.Background(), ws.ID, nil))
	dispatcher.waitForEvent(t)

	require.NoError(t, svc.Reopen(context.Background(), ws.ID, "student-1"))
	assert.Equal(t, schedule.StatusDraft, repo.schedules[ws.ID].Status)
}

func TestReopen_OnlyRejected(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")

	err := svc.Reopen(context.Background(), ws.ID, "student-1")
	assert.ErrorIs(t, err, schedule.ErrScheduleNotRejected)
}

func TestGetCompliance_DoesNotChangeStatus(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ws := addDraft(t, repo, "student-1")

	result, err := svc.GetCompliance(context.Background(), ws.ID)
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, schedule.StatusDraft, repo.schedules[ws.ID].Status)
}

func TestListPending_OnlySubmitted(t *testing.T) {
	svc, repo, blocks, _ := newTestService(t)

	submitted := addDraft(t, repo, "student-1")
	fillCompliantWeek(t, blocks, submitted.ID)
	_, err := svc.Submit(context.Background(), submitted.ID, "student-1")
	require.NoError(t, err)

	addDraft(t, repo, "student-2")

	result, err := svc.ListPending(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Schedules, 1)
	assert.Equal(t, submitted.ID, result.Schedules[0].ID)
	assert.Equal(t, schedule.StatusSubmitted, result.Schedules[0].Status)
	assert.Equal(t, 1, result.Total)
}
