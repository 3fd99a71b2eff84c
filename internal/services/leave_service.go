package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
)

// LeaveServiceInterface определяет методы для сервиса заявок на отпуск
type LeaveServiceInterface interface {
	Submit(request *models.LeaveRequest) error
	Cancel(requestID int, cancellingUserID int) error
	Approve(requestID int, approverID int) error
	Reject(requestID int, rejecterID int, reason string) error
	ApproveHR(requestID int, approverID int) error
	RejectHR(requestID int, rejecterID int, reason string) error
	GetUserRequests(userID int, p models.ListParams) ([]models.LeaveRequest, error)
	GetAssignedRequests(approverID int, statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error)
	AssignedBreakdown(approverID int) (*models.PendingBreakdown, error)
}

// LeaveService реализует жизненный цикл заявки на отпуск:
// Pending -> Approved | Rejected | Cancelled; терминальные статусы неизменяемы.
type LeaveService struct {
	leaveRepo repositories.LeaveRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	feedRepo  repositories.FeedRepositoryInterface
}

// NewLeaveService создает новый экземпляр LeaveService
func NewLeaveService(leaveRepo repositories.LeaveRepositoryInterface, userRepo repositories.UserRepositoryInterface, feedRepo repositories.FeedRepositoryInterface) *LeaveService {
	return &LeaveService{
		leaveRepo: leaveRepo,
		userRepo:  userRepo,
		feedRepo:  feedRepo,
	}
}

// Submit создает заявку в статусе Pending.
// Остаток дней списывается только при утверждении, не при подаче.
func (s *LeaveService) Submit(request *models.LeaveRequest) error {
	if !models.KnownLeaveTypes[request.LeaveType] {
		return apperror.Newf(apperror.CodeValidation, "неизвестная категория отпуска '%s'", request.LeaveType)
	}
	if request.StartDate.IsZero() || request.EndDate.IsZero() {
		return apperror.New(apperror.CodeValidation, "необходимо указать даты начала и окончания отпуска")
	}
	if request.EndDate.Time.Before(request.StartDate.Time) {
		return apperror.Newf(apperror.CodeValidation,
			"дата окончания %s раньше даты начала %s",
			request.EndDate.Format("2006-01-02"), request.StartDate.Format("2006-01-02"))
	}

	request.Days = models.DaysInclusive(request.StartDate, request.EndDate)
	request.StatusID = models.StatusPending
	request.HRStatusID = models.StatusPending
	request.FillStatusNames()

	log.Printf("[Service Submit] UserID: %d, Type: %s, Days: %d", request.UserID, request.LeaveType, request.Days)
	if err := s.leaveRepo.Save(request); err != nil {
		return fmt.Errorf("ошибка сохранения заявки: %w", err)
	}
	return nil
}

// Cancel отменяет заявку. Разрешено только владельцу и только из статуса Pending.
func (s *LeaveService) Cancel(requestID int, cancellingUserID int) error {
	req, err := s.getRequest(requestID)
	if err != nil {
		return err
	}
	if req.UserID != cancellingUserID {
		return apperror.New(apperror.CodeForbidden, "отменить заявку может только её автор")
	}
	if req.StatusID != models.StatusPending {
		return apperror.Newf(apperror.CodeConflict,
			"заявка %d уже в статусе '%s' и не может быть отменена", requestID, models.StatusName(req.StatusID))
	}

	updated, err := s.leaveRepo.UpdateStatusIfPending(requestID, models.StatusCancelled)
	if err != nil {
		return fmt.Errorf("ошибка установки статуса 'Отменена' для заявки %d: %w", requestID, err)
	}
	if !updated {
		// Статус изменился между чтением и обновлением
		return apperror.Newf(apperror.CodeConflict, "заявка %d уже обработана", requestID)
	}
	log.Printf("[Service Cancel] RequestID: %d cancelled by owner %d", requestID, cancellingUserID)
	return nil
}

// Approve утверждает заявку по треку линейного руководителя.
// Списывает дни из остатка владельца только после успешного перехода статуса.
func (s *LeaveService) Approve(requestID int, approverID int) error {
	req, err := s.checkDecision(requestID, approverID, roles.IsLineApprover)
	if err != nil {
		return err
	}

	updated, err := s.leaveRepo.UpdateStatusIfPending(requestID, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("ошибка установки статуса 'Утверждена' для заявки %d: %w", requestID, err)
	}
	if !updated {
		return apperror.Newf(apperror.CodeConflict, "заявка %d уже обработана", requestID)
	}

	if req.Days > 0 {
		if errSpend := s.userRepo.AddLeaveBalance(req.UserID, -req.Days); errSpend != nil {
			// Статус уже переведен; списание дней не удалось - логируем как критическое
			log.Printf("[Service Approve] CRITICAL ERROR: Failed to spend %d days for user %d after approving request %d: %v",
				req.Days, req.UserID, requestID, errSpend)
			return fmt.Errorf("заявка утверждена, но произошла ошибка списания дней из остатка: %w", errSpend)
		}
	}

	s.notifyOwner(req.UserID, "Заявка утверждена",
		fmt.Sprintf("Ваша заявка на отпуск №%d (%d дн.) утверждена руководителем.", requestID, req.Days))
	log.Printf("[Service Approve] RequestID: %d approved by %d, %d days spent", requestID, approverID, req.Days)
	return nil
}

// Reject отклоняет заявку по треку линейного руководителя. Остаток не меняется.
func (s *LeaveService) Reject(requestID int, rejecterID int, reason string) error {
	req, err := s.checkDecision(requestID, rejecterID, roles.IsLineApprover)
	if err != nil {
		return err
	}

	updated, err := s.leaveRepo.UpdateStatusIfPending(requestID, models.StatusRejected)
	if err != nil {
		return fmt.Errorf("ошибка установки статуса 'Отклонена' для заявки %d: %w", requestID, err)
	}
	if !updated {
		return apperror.Newf(apperror.CodeConflict, "заявка %d уже обработана", requestID)
	}

	msg := fmt.Sprintf("Ваша заявка на отпуск №%d отклонена руководителем.", requestID)
	if reason != "" {
		msg += " Причина: " + reason
	}
	s.notifyOwner(req.UserID, "Заявка отклонена", msg)
	log.Printf("[Service Reject] RequestID: %d rejected by %d", requestID, rejecterID)
	return nil
}

// ApproveHR утверждает заявку по HR-треку. Трек независим от решения руководителя.
func (s *LeaveService) ApproveHR(requestID int, approverID int) error {
	req, err := s.checkHRDecision(requestID, approverID)
	if err != nil {
		return err
	}

	updated, err := s.leaveRepo.UpdateHRStatusIfPending(requestID, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("ошибка установки HR-статуса 'Утверждена' для заявки %d: %w", requestID, err)
	}
	if !updated {
		return apperror.Newf(apperror.CodeConflict, "заявка %d уже обработана HR-отделом", requestID)
	}

	s.notifyOwner(req.UserID, "Заявка согласована HR",
		fmt.Sprintf("Ваша заявка на отпуск №%d согласована HR-отделом.", requestID))
	log.Printf("[Service ApproveHR] RequestID: %d approved by HR %d", requestID, approverID)
	return nil
}

// RejectHR отклоняет заявку по HR-треку
func (s *LeaveService) RejectHR(requestID int, rejecterID int, reason string) error {
	req, err := s.checkHRDecision(requestID, rejecterID)
	if err != nil {
		return err
	}

	updated, err := s.leaveRepo.UpdateHRStatusIfPending(requestID, models.StatusRejected)
	if err != nil {
		return fmt.Errorf("ошибка установки HR-статуса 'Отклонена' для заявки %d: %w", requestID, err)
	}
	if !updated {
		return apperror.Newf(apperror.CodeConflict, "заявка %d уже обработана HR-отделом", requestID)
	}

	msg := fmt.Sprintf("Ваша заявка на отпуск №%d отклонена HR-отделом.", requestID)
	if reason != "" {
		msg += " Причина: " + reason
	}
	s.notifyOwner(req.UserID, "Заявка отклонена HR", msg)
	log.Printf("[Service RejectHR] RequestID: %d rejected by HR %d", requestID, rejecterID)
	return nil
}

// GetUserRequests получает заявки пользователя
func (s *LeaveService) GetUserRequests(userID int, p models.ListParams) ([]models.LeaveRequest, error) {
	return s.leaveRepo.ListByUser(userID, p)
}

// GetAssignedRequests получает очередь заявок согласующего
func (s *LeaveService) GetAssignedRequests(approverID int, statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error) {
	approver, err := s.getUser(approverID)
	if err != nil {
		return nil, err
	}
	if !roles.IsApprover(approver.Role) {
		return nil, apperror.New(apperror.CodeForbidden, "недостаточно прав для просмотра очереди заявок")
	}
	return s.leaveRepo.ListAll(statusFilter, p)
}

// AssignedBreakdown возвращает распределение ожидающих заявок по категориям
// для очереди согласующего. Нулевые значения валидны.
func (s *LeaveService) AssignedBreakdown(approverID int) (*models.PendingBreakdown, error) {
	approver, err := s.getUser(approverID)
	if err != nil {
		return nil, err
	}
	if !roles.IsApprover(approver.Role) {
		return nil, apperror.New(apperror.CodeForbidden, "недостаточно прав для просмотра очереди заявок")
	}

	counts, err := s.leaveRepo.CountPendingByType()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения распределения заявок: %w", err)
	}

	breakdown := &models.PendingBreakdown{ByType: map[string]int{}}
	// Нулевые категории присутствуют в ответе явно - клиент скрывает бейдж по нулю
	for leaveType := range models.KnownLeaveTypes {
		breakdown.ByType[leaveType] = 0
	}
	for leaveType, count := range counts {
		breakdown.ByType[leaveType] = count
		breakdown.Total += count
	}
	return breakdown, nil
}

// --- Вспомогательные методы ---

func (s *LeaveService) getRequest(requestID int) (*models.LeaveRequest, error) {
	req, err := s.leaveRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, apperror.Newf(apperror.CodeNotFound, "заявка %d не найдена", requestID)
		}
		return nil, fmt.Errorf("ошибка получения заявки %d: %w", requestID, err)
	}
	return req, nil
}

func (s *LeaveService) getUser(userID int) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения данных пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperror.Newf(apperror.CodeNotFound, "пользователь %d не найден", userID)
	}
	return user, nil
}

// checkDecision выполняет общие проверки для approve/reject по треку руководителя
func (s *LeaveService) checkDecision(requestID int, deciderID int, roleCheck func(string) bool) (*models.LeaveRequest, error) {
	decider, err := s.getUser(deciderID)
	if err != nil {
		return nil, err
	}
	if !roleCheck(decider.Role) {
		log.Printf("[Service checkDecision] Access denied: user %d (role %s) cannot decide request %d",
			deciderID, decider.Role, requestID)
		return nil, apperror.Newf(apperror.CodeForbidden,
			"пользователь %d не имеет прав для обработки заявки %d", deciderID, requestID)
	}
	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.StatusID != models.StatusPending {
		return nil, apperror.Newf(apperror.CodeConflict,
			"заявка %d уже в статусе '%s'", requestID, models.StatusName(req.StatusID))
	}
	return req, nil
}

// checkHRDecision выполняет общие проверки для решений HR-трека
func (s *LeaveService) checkHRDecision(requestID int, deciderID int) (*models.LeaveRequest, error) {
	decider, err := s.getUser(deciderID)
	if err != nil {
		return nil, err
	}
	if !roles.IsHRApprover(decider.Role) {
		return nil, apperror.Newf(apperror.CodeForbidden,
			"пользователь %d не имеет прав для HR-согласования заявки %d", deciderID, requestID)
	}
	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.HRStatusID != models.StatusPending {
		return nil, apperror.Newf(apperror.CodeConflict,
			"заявка %d уже в HR-статусе '%s'", requestID, models.StatusName(req.HRStatusID))
	}
	return req, nil
}

// notifyOwner создает уведомление владельцу заявки; ошибка не прерывает операцию
func (s *LeaveService) notifyOwner(userID int, title, message string) {
	notification := &models.Notification{UserID: userID, Title: title, Message: message}
	if err := s.feedRepo.CreateNotification(notification); err != nil {
		log.Printf("[Service notifyOwner] Failed to create notification for user %d: %v", userID, err)
	}
}
