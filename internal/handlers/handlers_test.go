package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/services"
)

type stubLeaveService struct {
	submitFn            func(request *models.LeaveRequest) error
	cancelFn            func(requestID int, cancellingUserID int) error
	approveFn           func(requestID int, approverID int) error
	rejectFn            func(requestID int, rejecterID int, reason string) error
	approveHRFn         func(requestID int, approverID int) error
	rejectHRFn          func(requestID int, rejecterID int, reason string) error
	getUserRequestsFn   func(userID int, p models.ListParams) ([]models.LeaveRequest, error)
	assignedBreakdownFn func(approverID int) (*models.PendingBreakdown, error)
}

func (s *stubLeaveService) Submit(request *models.LeaveRequest) error {
	if s.submitFn == nil {
		return nil
	}
	return s.submitFn(request)
}

func (s *stubLeaveService) Cancel(requestID int, cancellingUserID int) error {
	if s.cancelFn == nil {
		return nil
	}
	return s.cancelFn(requestID, cancellingUserID)
}

func (s *stubLeaveService) Approve(requestID int, approverID int) error {
	if s.approveFn == nil {
		return nil
	}
	return s.approveFn(requestID, approverID)
}

func (s *stubLeaveService) Reject(requestID int, rejecterID int, reason string) error {
	if s.rejectFn == nil {
		return nil
	}
	return s.rejectFn(requestID, rejecterID, reason)
}

func (s *stubLeaveService) ApproveHR(requestID int, approverID int) error {
	if s.approveHRFn == nil {
		return nil
	}
	return s.approveHRFn(requestID, approverID)
}

func (s *stubLeaveService) RejectHR(requestID int, rejecterID int, reason string) error {
	if s.rejectHRFn == nil {
		return nil
	}
	return s.rejectHRFn(requestID, rejecterID, reason)
}

func (s *stubLeaveService) GetUserRequests(userID int, p models.ListParams) ([]models.LeaveRequest, error) {
	if s.getUserRequestsFn == nil {
		return []models.LeaveRequest{}, nil
	}
	return s.getUserRequestsFn(userID, p)
}

func (s *stubLeaveService) GetAssignedRequests(approverID int, statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error) {
	return []models.LeaveRequestAdminView{}, nil
}

func (s *stubLeaveService) AssignedBreakdown(approverID int) (*models.PendingBreakdown, error) {
	if s.assignedBreakdownFn == nil {
		return &models.PendingBreakdown{ByType: map[string]int{}}, nil
	}
	return s.assignedBreakdownFn(approverID)
}

type stubAttendanceService struct {
	checkGeofenceFn   func(lat, lng float64) ([]models.ProjectRange, *int, error)
	decideNextPunchFn func(userID int, now time.Time) (string, error)
	submitPunchFn     func(userID int, input services.PunchInput, now time.Time) (*models.AttendanceEvent, error)
}

func (s *stubAttendanceService) CheckGeofence(lat, lng float64) ([]models.ProjectRange, *int, error) {
	if s.checkGeofenceFn == nil {
		return []models.ProjectRange{}, nil, nil
	}
	return s.checkGeofenceFn(lat, lng)
}

func (s *stubAttendanceService) DecideNextPunch(userID int, now time.Time) (string, error) {
	if s.decideNextPunchFn == nil {
		return models.PunchCheckIn, nil
	}
	return s.decideNextPunchFn(userID, now)
}

func (s *stubAttendanceService) SubmitPunch(userID int, input services.PunchInput, now time.Time) (*models.AttendanceEvent, error) {
	if s.submitPunchFn == nil {
		return &models.AttendanceEvent{UserID: userID, Type: input.Type}, nil
	}
	return s.submitPunchFn(userID, input, now)
}

func (s *stubAttendanceService) GetUserEvents(userID int, p models.ListParams) ([]models.AttendanceEvent, error) {
	return []models.AttendanceEvent{}, nil
}

func (s *stubAttendanceService) GetDayEvents(userID int, day time.Time) ([]models.AttendanceEvent, error) {
	return []models.AttendanceEvent{}, nil
}

// testRouter собирает маршруты с фиктивной авторизацией: userID=7 в контексте.
func testRouter(h *AppHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 7)
		c.Next()
	})
	r.PATCH("/employee/vacation-requests/:id", h.PatchMyLeaveRequest)
	r.PATCH("/manager/vacation-requests/:id", h.PatchAssignedLeaveRequest)
	r.GET("/hr-requests/assigned-pending-breakdown", h.GetAssignedPendingBreakdown)
	r.POST("/attendances", h.PostAttendance)
	r.GET("/attendances/functionlati", h.CheckGeofence)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not a JSON object: %v (%s)", err, w.Body.String())
		}
	}
	return w, decoded
}

func TestPatchMyLeaveRequestCancelConflict(t *testing.T) {
	leave := &stubLeaveService{
		cancelFn: func(requestID int, cancellingUserID int) error {
			return apperror.Newf(apperror.CodeConflict, "заявка %d уже обработана", requestID)
		},
	}
	h := NewAppHandler(leave, &stubAttendanceService{}, nil, nil, nil, "")
	r := testRouter(h)

	w, body := doJSON(t, r, http.MethodPatch, "/employee/vacation-requests/5", `{"action":"cancel"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if body["error"] == nil || body["error"] == "" {
		t.Error("conflict response must carry an error message")
	}
}

func TestPatchMyLeaveRequestRejectsForeignActions(t *testing.T) {
	cancelled := false
	leave := &stubLeaveService{
		cancelFn: func(requestID int, cancellingUserID int) error {
			cancelled = true
			return nil
		},
	}
	h := NewAppHandler(leave, &stubAttendanceService{}, nil, nil, nil, "")
	r := testRouter(h)

	w, _ := doJSON(t, r, http.MethodPatch, "/employee/vacation-requests/5", `{"action":"approve"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: employee may only cancel", w.Code)
	}
	if cancelled {
		t.Error("cancel must not be called for a non-cancel action")
	}
}

func TestPatchAssignedRequestRoutesDecision(t *testing.T) {
	var approvedID, approverID int
	leave := &stubLeaveService{
		approveFn: func(requestID int, deciderID int) error {
			approvedID, approverID = requestID, deciderID
			return nil
		},
	}
	h := NewAppHandler(leave, &stubAttendanceService{}, nil, nil, nil, "")
	r := testRouter(h)

	w, _ := doJSON(t, r, http.MethodPatch, "/manager/vacation-requests/9", `{"action":"approve"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if approvedID != 9 || approverID != 7 {
		t.Errorf("approve called with (request %d, approver %d), want (9, 7)", approvedID, approverID)
	}
}

func TestPostAttendanceConflictCarriesHint(t *testing.T) {
	attendance := &stubAttendanceService{
		submitPunchFn: func(userID int, input services.PunchInput, now time.Time) (*models.AttendanceEvent, error) {
			return nil, apperror.New(apperror.CodeConflict, "конфликт отметки: вход уже отмечен").WithHint(models.PunchCheckOut)
		},
	}
	h := NewAppHandler(&stubLeaveService{}, attendance, nil, nil, nil, "")
	r := testRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/attendances",
		`{"type":"check_in","latitude":24.7136,"longitude":46.6753,"biometric_verified":true}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if body["hint"] != models.PunchCheckOut {
		t.Errorf("hint = %v, want %q", body["hint"], models.PunchCheckOut)
	}
}

func TestCheckGeofenceValidatesCoordinates(t *testing.T) {
	h := NewAppHandler(&stubLeaveService{}, &stubAttendanceService{}, nil, nil, nil, "")
	r := testRouter(h)

	w, _ := doJSON(t, r, http.MethodGet, "/attendances/functionlati?lat=abc&lng=46.7", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed coordinates", w.Code)
	}
}

func TestCheckGeofenceReturnsSelection(t *testing.T) {
	attendance := &stubAttendanceService{
		checkGeofenceFn: func(lat, lng float64) ([]models.ProjectRange, *int, error) {
			id := 2
			return []models.ProjectRange{
				{ProjectID: 2, Name: "HQ", DistanceMeters: 12, InRange: true},
			}, &id, nil
		},
	}
	h := NewAppHandler(&stubLeaveService{}, attendance, nil, nil, nil, "")
	r := testRouter(h)

	w, body := doJSON(t, r, http.MethodGet, "/attendances/functionlati?lat=24.7136&lng=46.6753", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["project_id"] != float64(2) {
		t.Errorf("project_id = %v, want 2", body["project_id"])
	}
}

func TestAssignedBreakdownResponse(t *testing.T) {
	leave := &stubLeaveService{
		assignedBreakdownFn: func(approverID int) (*models.PendingBreakdown, error) {
			return &models.PendingBreakdown{
				Total:  3,
				ByType: map[string]int{models.LeaveTypeAnnual: 3, models.LeaveTypeSick: 0},
			}, nil
		},
	}
	h := NewAppHandler(leave, &stubAttendanceService{}, nil, nil, nil, "")
	r := testRouter(h)

	w, body := doJSON(t, r, http.MethodGet, "/hr-requests/assigned-pending-breakdown", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["total"] != float64(3) {
		t.Errorf("total = %v, want 3", body["total"])
	}
}
