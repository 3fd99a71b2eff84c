package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code - класс ошибки бизнес-логики. Обработчики HTTP маппят код в статус ответа.
type Code string

const (
	CodeValidation Code = "validation"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeForbidden  Code = "forbidden"
	CodeInternal   Code = "internal"
)

// Error - ошибка с кодом класса и, опционально, подсказкой корректирующего действия
// (например, "доступна только отметка выхода" при повторной отметке входа).
type Error struct {
	Code    Code
	Message string
	Hint    string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithHint добавляет к ошибке подсказку корректирующего действия для клиента.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// GetCode возвращает код ошибки; для обычных ошибок считаем их внутренними.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeInternal
}

// GetHint возвращает подсказку, если ошибка её несёт.
func GetHint(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Hint
	}
	return ""
}

// HTTPStatus маппит код ошибки в HTTP статус ответа.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
