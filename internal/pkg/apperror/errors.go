package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodePaymentRequired ErrorCode = "PAYMENT_REQUIRED"
	ErrCodeAlreadyPromoted ErrorCode = "ALREADY_PROMOTED"
	ErrCodeGatewayError    ErrorCode = "PAYMENT_GATEWAY_ERROR"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал с копиями sentinel-ошибок.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithStatus возвращает копию ошибки с другим HTTP статусом.
func (e *AppError) WithStatus(status int) *AppError {
	cp := *e
	cp.HTTPStatus = status
	return &cp
}

// WithDetails возвращает копию ошибки с дополнительными данными для клиента.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeAlreadyPromoted:
		return http.StatusBadRequest
	case ErrCodePaymentRequired:
		return http.StatusPaymentRequired
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeGatewayError:
		return http.StatusBadGateway
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsPaymentRequired(err error) bool {
	return hasCode(err, ErrCodePaymentRequired)
}

func IsAlreadyPromoted(err error) bool {
	return hasCode(err, ErrCodeAlreadyPromoted)
}

func IsGatewayError(err error) bool {
	return hasCode(err, ErrCodeGatewayError)
}

var (
	ErrListingNotFound  = New(ErrCodeNotFound, "объявление не найдено")
	ErrPaymentNotFound  = New(ErrCodeNotFound, "платёж не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden        = New(ErrCodeForbidden, "недостаточно прав")
	ErrListingInactive  = New(ErrCodeForbidden, "объявление удалено и не может быть изменено")
	ErrPaymentRequired  = New(ErrCodePaymentRequired, "объявление не оплачено")
	ErrAlreadyPromoted  = New(ErrCodeAlreadyPromoted, "объявление уже продвигается")
	ErrInvalidDuration  = New(ErrCodeValidation, "срок продвижения должен быть положительным числом дней")
	ErrInvalidPromotion = New(ErrCodeValidation, "некорректный тип продвижения")
)
