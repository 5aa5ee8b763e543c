package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMITED"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidPhone     ErrorCode = "INVALID_PHONE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidSource    ErrorCode = "INVALID_SOURCE"
	ErrCodeInvalidCSV       ErrorCode = "INVALID_CSV"

	ErrCodeLeadNotFound          ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeLeadAlreadyExists     ErrorCode = "LEAD_ALREADY_EXISTS"
	ErrCodeInvalidTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeNotificationNotFound  ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeUnknownNotification   ErrorCode = "UNKNOWN_NOTIFICATION_TYPE"
	ErrCodeSurveyNotFound        ErrorCode = "SURVEY_NOT_FOUND"
	ErrCodeSurveyInactive        ErrorCode = "SURVEY_INACTIVE"
	ErrCodeInvalidAnswer         ErrorCode = "INVALID_ANSWER"
	ErrCodeRaffleNotFound        ErrorCode = "RAFFLE_NOT_FOUND"
	ErrCodeRaffleClosed          ErrorCode = "RAFFLE_CLOSED"
	ErrCodeRaffleAlreadyDrawn    ErrorCode = "RAFFLE_ALREADY_DRAWN"
	ErrCodeRaffleNoEntries       ErrorCode = "RAFFLE_NO_ENTRIES"
	ErrCodeAlreadyEntered        ErrorCode = "ALREADY_ENTERED"
	ErrCodeCompanyNotFound       ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeUserNotFound          ErrorCode = "USER_NOT_FOUND"
	ErrCodeUnknownPermission     ErrorCode = "UNKNOWN_PERMISSION"
	ErrCodeCompanyScopeRequired  ErrorCode = "COMPANY_SCOPE_REQUIRED"
	ErrCodeNoCompany             ErrorCode = "NO_COMPANY"
	ErrCodeNotCompanyMember      ErrorCode = "NOT_COMPANY_MEMBER"
	ErrCodePermissionDenied      ErrorCode = "PERMISSION_DENIED"
	ErrCodePermissionsLoading    ErrorCode = "PERMISSIONS_LOADING"
	ErrCodeUnauthorizedAccess    ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeMissingToken          ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken          ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired          ErrorCode = "TOKEN_EXPIRED"
	ErrCodeNotificationForbidden ErrorCode = "NOTIFICATION_FORBIDDEN"
	ErrCodeTooManyRequests       ErrorCode = "TOO_MANY_REQUESTS"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on code so sentinel values survive copies made by With* helpers.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// WithCause returns a copy, leaving package-level sentinels untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrLeadNotFound         = NewNotFoundError("Lead not found", ErrCodeLeadNotFound)
	ErrLeadAlreadyExists    = NewConflictError("A lead with this email already exists", ErrCodeLeadAlreadyExists)
	ErrNotificationNotFound = NewNotFoundError("Notification not found", ErrCodeNotificationNotFound)
	ErrSurveyNotFound       = NewNotFoundError("Survey not found", ErrCodeSurveyNotFound)
	ErrSurveyInactive       = NewConflictError("Survey is no longer accepting responses", ErrCodeSurveyInactive)
	ErrRaffleNotFound       = NewNotFoundError("Raffle not found", ErrCodeRaffleNotFound)
	ErrRaffleClosed         = NewConflictError("Raffle is not accepting entries", ErrCodeRaffleClosed)
	ErrRaffleAlreadyDrawn   = NewConflictError("Raffle winner has already been drawn", ErrCodeRaffleAlreadyDrawn)
	ErrRaffleNoEntries      = NewConflictError("Raffle has no entries to draw from", ErrCodeRaffleNoEntries)
	ErrAlreadyEntered       = NewConflictError("Lead has already entered this raffle", ErrCodeAlreadyEntered)
	ErrCompanyNotFound      = NewNotFoundError("Company not found", ErrCodeCompanyNotFound)
	ErrUserNotFound         = NewNotFoundError("User not found", ErrCodeUserNotFound)

	ErrCompanyScopeRequired = NewValidationError("X-Company-ID header is required when you belong to more than one company", ErrCodeCompanyScopeRequired)
	ErrNoCompany            = NewForbiddenError("You are not a member of any company", ErrCodeNoCompany)
	ErrNotCompanyMember     = NewForbiddenError("You are not a member of this company", ErrCodeNotCompanyMember)
	ErrPermissionDenied     = NewForbiddenError("You do not have permission to perform this action", ErrCodePermissionDenied)
	ErrPermissionsLoading   = NewForbiddenError("Permissions are still loading", ErrCodePermissionsLoading)
	ErrUnauthorizedAccess   = NewUnauthorizedError("Authentication required", ErrCodeUnauthorizedAccess)

	ErrMissingToken = NewUnauthorizedError("Missing authorization token", ErrCodeMissingToken)
	ErrInvalidToken = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrTooManyRequests = &AppError{
		Type:       ErrorTypeRateLimit,
		Code:       ErrCodeTooManyRequests,
		Message:    "Too many requests, slow down",
		StatusCode: http.StatusTooManyRequests,
	}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
