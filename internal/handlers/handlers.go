package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/services"
)

// GetIntQueryParam возвращает целочисленный query-параметр или nil
func GetIntQueryParam(c *gin.Context, paramName string) *int {
	valStr := c.Query(paramName)
	if valStr == "" {
		return nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Некорректное значение для параметра '%s': %v", paramName, err)
		return nil
	}
	return &val
}

// parseListParams читает параметры пагинации и фильтров по датам
func parseListParams(c *gin.Context) models.ListParams {
	p := models.ListParams{Page: 1, PerPage: 20}
	if v := GetIntQueryParam(c, "page"); v != nil {
		p.Page = *v
	}
	if v := GetIntQueryParam(c, "per_page"); v != nil {
		p.PerPage = *v
	}
	if s := c.Query("start_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			p.StartDate = &models.CustomDate{Time: t}
		}
	}
	if s := c.Query("end_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			p.EndDate = &models.CustomDate{Time: t}
		}
	}
	return p
}

// respondError маппит ошибку бизнес-логики в HTTP ответ.
// Конфликты несут подсказку дополняющего действия в поле hint.
func respondError(c *gin.Context, err error) {
	code := apperror.GetCode(err)
	body := gin.H{"error": err.Error()}
	if hint := apperror.GetHint(err); hint != "" {
		body["hint"] = hint
	}
	if code == apperror.CodeInternal {
		// Внутренние детали не раскрываем, но логируем
		log.Printf("[Handler] Internal error: %v", err)
		body["error"] = "Внутренняя ошибка сервера"
	}
	c.JSON(apperror.HTTPStatus(code), body)
}

// currentUserID возвращает ID пользователя из контекста запроса
func currentUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не авторизован"})
		return 0, false
	}
	return userID.(int), true
}

// AppHandler объединяет обработчики для разных частей приложения
type AppHandler struct {
	leaveService      services.LeaveServiceInterface
	attendanceService services.AttendanceServiceInterface
	feedService       services.FeedServiceInterface
	dashboardService  services.DashboardServiceInterface
	userService       services.UserServiceInterface
	storageBaseURL    string
}

// NewAppHandler создает новый экземпляр AppHandler
func NewAppHandler(
	ls services.LeaveServiceInterface,
	as services.AttendanceServiceInterface,
	fs services.FeedServiceInterface,
	ds services.DashboardServiceInterface,
	us services.UserServiceInterface,
	storageBaseURL string,
) *AppHandler {
	return &AppHandler{
		leaveService:      ls,
		attendanceService: as,
		feedService:       fs,
		dashboardService:  ds,
		userService:       us,
		storageBaseURL:    storageBaseURL,
	}
}

// resolveAttachment превращает ссылку на вложение в полный URL хранилища
func (h *AppHandler) resolveAttachment(ref *string) *string {
	if ref == nil || *ref == "" {
		return ref
	}
	if strings.HasPrefix(*ref, "http://") || strings.HasPrefix(*ref, "https://") {
		return ref
	}
	full := strings.TrimRight(h.storageBaseURL, "/") + "/" + *ref
	return &full
}

// --- Дашборд ---

// GetDashboard обработчик главного экрана; форма ответа зависит от роли
func (h *AppHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboardService.GetDashboard(userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// --- Заявки на отпуск ---

// leaveRequestInput - тело запроса создания заявки
type leaveRequestInput struct {
	LeaveType      string            `json:"leave_type"`
	StartDate      models.CustomDate `json:"start_date"`
	EndDate        models.CustomDate `json:"end_date"`
	Description    string            `json:"description"`
	AttachmentName string            `json:"attachment_name"`
}

// CreateLeaveRequest обработчик подачи заявки на отпуск
func (h *AppHandler) CreateLeaveRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input leaveRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения данных: " + err.Error()})
		return
	}

	request := &models.LeaveRequest{
		UserID:      userID,
		LeaveType:   input.LeaveType,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Description: input.Description,
	}
	if input.AttachmentName != "" {
		// Ссылка на вложение генерируется сервером и разрешается
		// относительно базового URL хранилища
		ref := uuid.NewString() + "_" + input.AttachmentName
		request.Attachment = &ref
	}

	if err := h.leaveService.Submit(request); err != nil {
		respondError(c, err)
		return
	}

	request.Attachment = h.resolveAttachment(request.Attachment)
	c.JSON(http.StatusCreated, request)
}

// GetMyLeaveRequests обработчик списка собственных заявок
func (h *AppHandler) GetMyLeaveRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.leaveService.GetUserRequests(userID, parseListParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range requests {
		requests[i].Attachment = h.resolveAttachment(requests[i].Attachment)
	}
	c.JSON(http.StatusOK, requests)
}

// patchRequestInput - тело PATCH запроса по заявке
type patchRequestInput struct {
	Action string `json:"action"` // cancel | approve | reject
	Reason string `json:"reason"`
}

// PatchMyLeaveRequest обработчик PATCH по собственной заявке (только отмена)
func (h *AppHandler) PatchMyLeaveRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID заявки"})
		return
	}

	var input patchRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения данных: " + err.Error()})
		return
	}
	if input.Action != "cancel" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Сотруднику доступно только действие 'cancel'"})
		return
	}

	if err := h.leaveService.Cancel(requestID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Заявка успешно отменена"})
}

// GetAssignedLeaveRequests обработчик очереди заявок согласующего
func (h *AppHandler) GetAssignedLeaveRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	statusFilter := GetIntQueryParam(c, "status")

	requests, err := h.leaveService.GetAssignedRequests(userID, statusFilter, parseListParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range requests {
		requests[i].Attachment = h.resolveAttachment(requests[i].Attachment)
	}
	c.JSON(http.StatusOK, requests)
}

// PatchAssignedLeaveRequest обработчик решения по треку линейного руководителя
func (h *AppHandler) PatchAssignedLeaveRequest(c *gin.Context) {
	h.patchDecision(c, false)
}

// PatchHRLeaveRequest обработчик решения по HR-треку
func (h *AppHandler) PatchHRLeaveRequest(c *gin.Context) {
	h.patchDecision(c, true)
}

func (h *AppHandler) patchDecision(c *gin.Context, hrTrack bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID заявки"})
		return
	}

	var input patchRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения данных: " + err.Error()})
		return
	}

	switch input.Action {
	case "approve":
		if hrTrack {
			err = h.leaveService.ApproveHR(requestID, userID)
		} else {
			err = h.leaveService.Approve(requestID, userID)
		}
	case "reject":
		if hrTrack {
			err = h.leaveService.RejectHR(requestID, userID, input.Reason)
		} else {
			err = h.leaveService.Reject(requestID, userID, input.Reason)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Допустимые действия: 'approve' или 'reject'"})
		return
	}

	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Решение по заявке сохранено"})
}

// GetAssignedPendingBreakdown обработчик распределения ожидающих заявок
func (h *AppHandler) GetAssignedPendingBreakdown(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	breakdown, err := h.leaveService.AssignedBreakdown(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// --- Посещаемость ---

// GetAttendances обработчик журнала посещаемости пользователя
func (h *AppHandler) GetAttendances(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	events, err := h.attendanceService.GetUserEvents(userID, parseListParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// PostAttendance обработчик отметки входа/выхода
func (h *AppHandler) PostAttendance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.PunchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения данных: " + err.Error()})
		return
	}

	event, err := h.attendanceService.SubmitPunch(userID, input, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// CheckGeofence обработчик проверки геозоны по координатам.
// Имя маршрута /attendances/functionlati сохранено из контракта API.
func (h *AppHandler) CheckGeofence(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные координаты"})
		return
	}

	results, projectID, err := h.attendanceService.CheckGeofence(lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projects":   results,
		"project_id": projectID, // null, если координаты вне всех геозон
	})
}

// --- Информационная лента ---

// GetNotifications обработчик списка уведомлений
func (h *AppHandler) GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	notifications, err := h.feedService.GetNotifications(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead обработчик пометки уведомления прочитанным
func (h *AppHandler) MarkNotificationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	notificationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID уведомления"})
		return
	}
	if err := h.feedService.MarkRead(notificationID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Уведомление помечено прочитанным"})
}

// GetAnnouncements обработчик списка объявлений
func (h *AppHandler) GetAnnouncements(c *gin.Context) {
	announcements, err := h.feedService.GetAnnouncements()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, announcements)
}

// GetHolidays обработчик списка праздничных дней
func (h *AppHandler) GetHolidays(c *gin.Context) {
	holidays, err := h.feedService.GetHolidays()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, holidays)
}

// GetFeed обработчик объединенной информационной ленты
func (h *AppHandler) GetFeed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	feed, err := h.feedService.GetFeed(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// --- Профиль ---

// GetMyProfile обработчик получения профиля текущего пользователя
func (h *AppHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUserProfile обработчик обновления профиля (свои данные или HR-админ)
func (h *AppHandler) UpdateUserProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetUserID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID пользователя"})
		return
	}

	requestingUser, err := h.userService.GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	var updateData models.UserUpdateDTO
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения данных: " + err.Error()})
		return
	}

	if err := h.userService.UpdateUserProfile(requestingUser, targetUserID, &updateData); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Профиль успешно обновлен"})
}

// SetLeaveBalance обработчик установки остатка дней отпуска (HR-админ)
func (h *AppHandler) SetLeaveBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetUserID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID пользователя"})
		return
	}

	var input struct {
		Days int `json:"days"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения данных: " + err.Error()})
		return
	}

	requestingUser, err := h.userService.GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.userService.SetLeaveBalance(requestingUser, targetUserID, input.Days); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Остаток дней отпуска установлен"})
}
