package services

import (
	"testing"
	"time"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
)

type stubLeaveRepo struct {
	getByIDFn            func(requestID int) (*models.LeaveRequest, error)
	saveFn               func(request *models.LeaveRequest) error
	updateStatusFn       func(requestID int, newStatusID int) (bool, error)
	updateHRStatusFn     func(requestID int, newStatusID int) (bool, error)
	listByUserFn         func(userID int, p models.ListParams) ([]models.LeaveRequest, error)
	listAllFn            func(statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error)
	countPendingByTypeFn func() (map[string]int, error)
	countPendingByUserFn func(userID int) (int, error)
}

func (s *stubLeaveRepo) GetByID(requestID int) (*models.LeaveRequest, error) {
	if s.getByIDFn == nil {
		return nil, repositories.ErrRequestNotFound
	}
	return s.getByIDFn(requestID)
}

func (s *stubLeaveRepo) Save(request *models.LeaveRequest) error {
	if s.saveFn == nil {
		return nil
	}
	return s.saveFn(request)
}

func (s *stubLeaveRepo) UpdateStatusIfPending(requestID int, newStatusID int) (bool, error) {
	if s.updateStatusFn == nil {
		return true, nil
	}
	return s.updateStatusFn(requestID, newStatusID)
}

func (s *stubLeaveRepo) UpdateHRStatusIfPending(requestID int, newStatusID int) (bool, error) {
	if s.updateHRStatusFn == nil {
		return true, nil
	}
	return s.updateHRStatusFn(requestID, newStatusID)
}

func (s *stubLeaveRepo) ListByUser(userID int, p models.ListParams) ([]models.LeaveRequest, error) {
	if s.listByUserFn == nil {
		return []models.LeaveRequest{}, nil
	}
	return s.listByUserFn(userID, p)
}

func (s *stubLeaveRepo) ListAll(statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error) {
	if s.listAllFn == nil {
		return []models.LeaveRequestAdminView{}, nil
	}
	return s.listAllFn(statusFilter, p)
}

func (s *stubLeaveRepo) CountPendingByType() (map[string]int, error) {
	if s.countPendingByTypeFn == nil {
		return map[string]int{}, nil
	}
	return s.countPendingByTypeFn()
}

func (s *stubLeaveRepo) CountPendingByUser(userID int) (int, error) {
	if s.countPendingByUserFn == nil {
		return 0, nil
	}
	return s.countPendingByUserFn(userID)
}

type stubUserRepo struct {
	findByLoginFn     func(login string) (*models.User, error)
	findByIDFn        func(id int) (*models.User, error)
	createUserFn      func(user *models.User) error
	updateUserFn      func(userID int, updateData *models.UserUpdateDTO) error
	addLeaveBalanceFn func(userID int, delta int) error
	setLeaveBalanceFn func(userID int, days int) error
}

func (s *stubUserRepo) FindByLogin(login string) (*models.User, error) {
	if s.findByLoginFn == nil {
		return nil, nil
	}
	return s.findByLoginFn(login)
}

func (s *stubUserRepo) FindByID(id int) (*models.User, error) {
	if s.findByIDFn == nil {
		return nil, nil
	}
	return s.findByIDFn(id)
}

func (s *stubUserRepo) CreateUser(user *models.User) error {
	if s.createUserFn == nil {
		return nil
	}
	return s.createUserFn(user)
}

func (s *stubUserRepo) UpdateUser(userID int, updateData *models.UserUpdateDTO) error {
	if s.updateUserFn == nil {
		return nil
	}
	return s.updateUserFn(userID, updateData)
}

func (s *stubUserRepo) AddLeaveBalance(userID int, delta int) error {
	if s.addLeaveBalanceFn == nil {
		return nil
	}
	return s.addLeaveBalanceFn(userID, delta)
}

func (s *stubUserRepo) SetLeaveBalance(userID int, days int) error {
	if s.setLeaveBalanceFn == nil {
		return nil
	}
	return s.setLeaveBalanceFn(userID, days)
}

type stubFeedRepo struct {
	createNotificationFn func(notification *models.Notification) error
	listNotificationsFn  func(userID int) ([]models.Notification, error)
	markReadFn           func(notificationID int, userID int) error
	listAnnouncementsFn  func(limit int) ([]models.Announcement, error)
	listHolidaysFn       func() ([]models.Holiday, error)
}

func (s *stubFeedRepo) CreateNotification(notification *models.Notification) error {
	if s.createNotificationFn == nil {
		return nil
	}
	return s.createNotificationFn(notification)
}

func (s *stubFeedRepo) ListNotifications(userID int) ([]models.Notification, error) {
	if s.listNotificationsFn == nil {
		return []models.Notification{}, nil
	}
	return s.listNotificationsFn(userID)
}

func (s *stubFeedRepo) MarkNotificationRead(notificationID int, userID int) error {
	if s.markReadFn == nil {
		return nil
	}
	return s.markReadFn(notificationID, userID)
}

func (s *stubFeedRepo) ListAnnouncements(limit int) ([]models.Announcement, error) {
	if s.listAnnouncementsFn == nil {
		return []models.Announcement{}, nil
	}
	return s.listAnnouncementsFn(limit)
}

func (s *stubFeedRepo) ListHolidays() ([]models.Holiday, error) {
	if s.listHolidaysFn == nil {
		return []models.Holiday{}, nil
	}
	return s.listHolidaysFn()
}

func date(value string) models.CustomDate {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return models.CustomDate{Time: t}
}

func userWithRole(id int, role string) func(int) (*models.User, error) {
	return func(queriedID int) (*models.User, error) {
		return &models.User{ID: queriedID, Role: role, EmployeeCode: "E100", LeaveBalance: 21}, nil
	}
}

func TestSubmitComputesInclusiveDays(t *testing.T) {
	var saved *models.LeaveRequest
	leaveRepo := &stubLeaveRepo{
		saveFn: func(request *models.LeaveRequest) error {
			saved = request
			return nil
		},
	}
	service := NewLeaveService(leaveRepo, &stubUserRepo{}, &stubFeedRepo{})

	request := &models.LeaveRequest{
		UserID:    7,
		LeaveType: models.LeaveTypeAnnual,
		StartDate: date("2024-06-10"),
		EndDate:   date("2024-06-12"),
	}
	if err := service.Submit(request); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("Submit did not save the request")
	}
	if saved.Days != 3 {
		t.Errorf("Days = %d, want 3 (inclusive span 2024-06-10..2024-06-12)", saved.Days)
	}
	if saved.StatusID != models.StatusPending || saved.HRStatusID != models.StatusPending {
		t.Errorf("new request must start Pending on both tracks, got status=%d hr=%d", saved.StatusID, saved.HRStatusID)
	}
}

func TestSubmitRejectsInvertedDates(t *testing.T) {
	service := NewLeaveService(&stubLeaveRepo{}, &stubUserRepo{}, &stubFeedRepo{})
	request := &models.LeaveRequest{
		UserID:    7,
		LeaveType: models.LeaveTypeSick,
		StartDate: date("2024-06-12"),
		EndDate:   date("2024-06-10"),
	}
	err := service.Submit(request)
	if apperror.GetCode(err) != apperror.CodeValidation {
		t.Fatalf("Submit with end before start: code = %v, want validation", apperror.GetCode(err))
	}
}

func TestCancelOnlyOwnerAndOnlyPending(t *testing.T) {
	pending := &models.LeaveRequest{ID: 1, UserID: 7, StatusID: models.StatusPending}
	leaveRepo := &stubLeaveRepo{
		getByIDFn: func(requestID int) (*models.LeaveRequest, error) {
			return pending, nil
		},
		updateStatusFn: func(requestID int, newStatusID int) (bool, error) {
			if newStatusID != models.StatusCancelled {
				t.Fatalf("cancel must set StatusCancelled, got %d", newStatusID)
			}
			pending.StatusID = newStatusID
			return true, nil
		},
	}
	service := NewLeaveService(leaveRepo, &stubUserRepo{}, &stubFeedRepo{})

	// Чужой пользователь не может отменить заявку
	if err := service.Cancel(1, 99); apperror.GetCode(err) != apperror.CodeForbidden {
		t.Fatalf("cancel by non-owner: code = %v, want forbidden", apperror.GetCode(err))
	}

	// Владелец отменяет ожидающую заявку
	if err := service.Cancel(1, 7); err != nil {
		t.Fatalf("cancel by owner of pending request failed: %v", err)
	}

	// Повторная отмена - конфликт: заявка уже в терминальном статусе
	if err := service.Cancel(1, 7); apperror.GetCode(err) != apperror.CodeConflict {
		t.Fatalf("cancel of cancelled request: code = %v, want conflict", apperror.GetCode(err))
	}
}

func TestTerminalStatusesAreImmutable(t *testing.T) {
	for _, terminal := range []int{models.StatusApproved, models.StatusRejected, models.StatusCancelled} {
		leaveRepo := &stubLeaveRepo{
			getByIDFn: func(requestID int) (*models.LeaveRequest, error) {
				return &models.LeaveRequest{ID: 2, UserID: 7, StatusID: terminal, Days: 4}, nil
			},
			updateStatusFn: func(requestID int, newStatusID int) (bool, error) {
				t.Fatalf("terminal request (status %d) must never reach the status update", terminal)
				return false, nil
			},
		}
		userRepo := &stubUserRepo{findByIDFn: userWithRole(3, roles.RoleManager)}
		service := NewLeaveService(leaveRepo, userRepo, &stubFeedRepo{})

		if err := service.Approve(2, 3); apperror.GetCode(err) != apperror.CodeConflict {
			t.Errorf("approve of terminal status %d: code = %v, want conflict", terminal, apperror.GetCode(err))
		}
		if err := service.Reject(2, 3, "late"); apperror.GetCode(err) != apperror.CodeConflict {
			t.Errorf("reject of terminal status %d: code = %v, want conflict", terminal, apperror.GetCode(err))
		}
	}
}

func TestApproveSpendsBalanceAndNotifies(t *testing.T) {
	var spentUserID, spentDelta int
	var notified *models.Notification

	leaveRepo := &stubLeaveRepo{
		getByIDFn: func(requestID int) (*models.LeaveRequest, error) {
			return &models.LeaveRequest{ID: 5, UserID: 7, StatusID: models.StatusPending, Days: 3}, nil
		},
	}
	userRepo := &stubUserRepo{
		findByIDFn: userWithRole(3, roles.RoleManager),
		addLeaveBalanceFn: func(userID int, delta int) error {
			spentUserID, spentDelta = userID, delta
			return nil
		},
	}
	feedRepo := &stubFeedRepo{
		createNotificationFn: func(n *models.Notification) error {
			notified = n
			return nil
		},
	}
	service := NewLeaveService(leaveRepo, userRepo, feedRepo)

	if err := service.Approve(5, 3); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if spentUserID != 7 || spentDelta != -3 {
		t.Errorf("balance change = (user %d, delta %d), want (7, -3)", spentUserID, spentDelta)
	}
	if notified == nil || notified.UserID != 7 {
		t.Error("owner must be notified about the approval")
	}
}

func TestApproveRequiresLineApproverRole(t *testing.T) {
	leaveRepo := &stubLeaveRepo{
		getByIDFn: func(requestID int) (*models.LeaveRequest, error) {
			return &models.LeaveRequest{ID: 5, UserID: 7, StatusID: models.StatusPending}, nil
		},
	}
	for _, role := range []string{roles.RoleEmployee, roles.RoleFinance, roles.RoleHRAdmin} {
		userRepo := &stubUserRepo{findByIDFn: userWithRole(3, role)}
		service := NewLeaveService(leaveRepo, userRepo, &stubFeedRepo{})
		if err := service.Approve(5, 3); apperror.GetCode(err) != apperror.CodeForbidden {
			t.Errorf("approve by role %q: code = %v, want forbidden", role, apperror.GetCode(err))
		}
	}
}

func TestHRTrackIsIndependent(t *testing.T) {
	// Заявка уже утверждена руководителем, но HR-трек ещё Pending
	leaveRepo := &stubLeaveRepo{
		getByIDFn: func(requestID int) (*models.LeaveRequest, error) {
			return &models.LeaveRequest{ID: 6, UserID: 7, StatusID: models.StatusApproved, HRStatusID: models.StatusPending}, nil
		},
	}
	userRepo := &stubUserRepo{findByIDFn: userWithRole(4, roles.RoleHRAdmin)}
	service := NewLeaveService(leaveRepo, userRepo, &stubFeedRepo{})

	if err := service.ApproveHR(6, 4); err != nil {
		t.Fatalf("ApproveHR on line-approved request failed: %v", err)
	}
}

func TestHRDecisionConflictWhenDecided(t *testing.T) {
	leaveRepo := &stubLeaveRepo{
		getByIDFn: func(requestID int) (*models.LeaveRequest, error) {
			return &models.LeaveRequest{ID: 6, UserID: 7, StatusID: models.StatusPending, HRStatusID: models.StatusRejected}, nil
		},
	}
	userRepo := &stubUserRepo{findByIDFn: userWithRole(4, roles.RoleHRAdmin)}
	service := NewLeaveService(leaveRepo, userRepo, &stubFeedRepo{})

	if err := service.ApproveHR(6, 4); apperror.GetCode(err) != apperror.CodeConflict {
		t.Fatalf("ApproveHR on decided HR track: code = %v, want conflict", apperror.GetCode(err))
	}
}

func TestAssignedBreakdownIncludesZeroCounts(t *testing.T) {
	leaveRepo := &stubLeaveRepo{
		countPendingByTypeFn: func() (map[string]int, error) {
			return map[string]int{models.LeaveTypeAnnual: 2}, nil
		},
	}
	userRepo := &stubUserRepo{findByIDFn: userWithRole(3, roles.RoleManager)}
	service := NewLeaveService(leaveRepo, userRepo, &stubFeedRepo{})

	breakdown, err := service.AssignedBreakdown(3)
	if err != nil {
		t.Fatalf("AssignedBreakdown failed: %v", err)
	}
	if breakdown.Total != 2 {
		t.Errorf("Total = %d, want 2", breakdown.Total)
	}
	if breakdown.ByType[models.LeaveTypeAnnual] != 2 {
		t.Errorf("annual count = %d, want 2", breakdown.ByType[models.LeaveTypeAnnual])
	}
	if count, ok := breakdown.ByType[models.LeaveTypeSick]; !ok || count != 0 {
		t.Errorf("sick count must be present and zero, got %d (present=%v)", count, ok)
	}
}

func TestAssignedBreakdownForbiddenForEmployee(t *testing.T) {
	userRepo := &stubUserRepo{findByIDFn: userWithRole(7, roles.RoleEmployee)}
	service := NewLeaveService(&stubLeaveRepo{}, userRepo, &stubFeedRepo{})

	if _, err := service.AssignedBreakdown(7); apperror.GetCode(err) != apperror.CodeForbidden {
		t.Fatalf("breakdown for employee: code = %v, want forbidden", apperror.GetCode(err))
	}
}
