package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
	"github.com/openlab-hq/labops-backend-go/internal/handler/http/middleware"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/jwt"
)

// stubScheduleService serves one fixed schedule owned by ownerID
type stubScheduleService struct {
	ownerID    string
	scheduleID string
}

func (s *stubScheduleService) schedule() schedule.ScheduleResponse {
	return schedule.ScheduleResponse{
		ID:     s.scheduleID,
		UserID: s.ownerID,
		Status: schedule.StatusDraft,
	}
}

func (s *stubScheduleService) CreateSchedule(_ context.Context, _ schedule.CreateScheduleRequest) (schedule.ScheduleResponse, error) {
	return s.schedule(), nil
}

func (s *stubScheduleService) GetSchedule(_ context.Context, id string) (schedule.ScheduleResponse, error) {
	if id != s.scheduleID {
		return schedule.ScheduleResponse{}, schedule.ErrScheduleNotFound
	}
	return s.schedule(), nil
}

func (s *stubScheduleService) ListMySchedules(_ context.Context, _ string) (schedule.ScheduleListResponse, error) {
	return schedule.ScheduleListResponse{}, nil
}

func (s *stubScheduleService) ListPending(_ context.Context) (schedule.ScheduleListResponse, error) {
	return schedule.ScheduleListResponse{}, nil
}

func (s *stubScheduleService) CreateBlock(_ context.Context, _ schedule.CreateBlockRequest) (schedule.BlockResponse, error) {
	return schedule.BlockResponse{}, nil
}

func (s *stubScheduleService) UpdateBlock(_ context.Context, _ schedule.UpdateBlockRequest) (schedule.BlockResponse, error) {
	return schedule.BlockResponse{}, nil
}

func (s *stubScheduleService) DeleteBlock(_ context.Context, _, _, _ string) error {
	return nil
}

func (s *stubScheduleService) GetCompliance(_ context.Context, id string) (schedule.ComplianceResult, error) {
	if id != s.scheduleID {
		return schedule.ComplianceResult{}, schedule.ErrScheduleNotFound
	}
	return schedule.ComplianceResult{TotalHours: 12, IsValid: false}, nil
}

func (s *stubScheduleService) Submit(_ context.Context, _, _ string) (schedule.ScheduleResponse, error) {
	return s.schedule(), nil
}

func (s *stubScheduleService) Approve(_ context.Context, _ string) error { return nil }

func (s *stubScheduleService) Reject(_ context.Context, _ string, _ *string) error { return nil }

func (s *stubScheduleService) Reopen(_ context.Context, _, _ string) error { return nil }

// newScheduleTestServer mounts the schedule routes behind the real auth
// middleware chain so tests exercise token handling end to end
func newScheduleTestServer(t *testing.T) (*httptest.Server, jwt.Service) {
	t.Helper()

	jwtService := jwt.NewJWTService("handler-test-secret", "1h")
	handler := NewScheduleHandler(&stubScheduleService{ownerID: "student-owner", scheduleID: "s1"})

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
		r.Use(middleware.AuthRequired(jwtService.JWTAuth()))
		r.Route("/schedules/{scheduleID}", func(r chi.Router) {
			r.Get("/", handler.Get)
			r.Get("/compliance", handler.GetCompliance)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, jwtService
}

func getAs(t *testing.T, server *httptest.Server, jwtService jwt.Service, userID string, role user.Role, path string) *http.Response {
	t.Helper()

	token, _, err := jwtService.GenerateAccessToken(userID, userID+"@lab.test", role)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetCompliance_OwnerAllowed(t *testing.T) {
	server, jwtService := newScheduleTestServer(t)

	resp := getAs(t, server, jwtService, "student-owner", user.RoleStudent, "/schedules/s1/compliance")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetCompliance_ForeignStudentForbidden(t *testing.T) {
	server, jwtService := newScheduleTestServer(t)

	resp := getAs(t, server, jwtService, "student-intruder", user.RoleStudent, "/schedules/s1/compliance")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetCompliance_StaffAllowed(t *testing.T) {
	server, jwtService := newScheduleTestServer(t)

	resp := getAs(t, server, jwtService, "prof-1", user.RoleProfessor, "/schedules/s1/compliance")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetSchedule_ForeignStudentForbidden(t *testing.T) {
	server, jwtService := newScheduleTestServer(t)

	resp := getAs(t, server, jwtService, "student-intruder", user.RoleStudent, "/schedules/s1")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetCompliance_NoToken(t *testing.T) {
	server, _ := newScheduleTestServer(t)

	resp, err := server.Client().Get(server.URL + "/schedules/s1/compliance")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
