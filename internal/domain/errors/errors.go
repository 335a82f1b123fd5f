package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidStatus = errors.New("invalid status value")
)

// Session errors
var (
	ErrNoActiveSession  = errors.New("no active session")
	ErrViewNotAllowed   = errors.New("view not available for this role")
	ErrBriefingRequired = errors.New("briefing must be watched before enrolling")
)

// Enrollment wizard errors
var (
	ErrVideoRequired       = errors.New("identification video is required")
	ErrCameraUnavailable   = fmt.Errorf("camera unavailable: %w", ErrVideoRequired)
	ErrGuardianRequired    = errors.New("guardian name and phone are required for minors")
	ErrTermsNotAccepted    = errors.New("terms must be accepted")
	ErrFirstStep           = errors.New("already at the first step")
	ErrTerminalStep        = errors.New("already at the last step")
	ErrNotTerminalStep     = errors.New("enrollment can only be submitted from the last step")
	ErrPaymentNotProcessed = errors.New("payment method not processed")
	ErrWizardNotStarted    = errors.New("enrollment wizard not started")
	ErrConsentNotReady     = errors.New("consent term has not been generated")
)

// Capture errors
var (
	ErrInvalidCaptureState = errors.New("invalid capture state for this operation")
	ErrRecordingTooLarge   = errors.New("recording exceeds maximum size")
)

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNoActiveSession     = "NO_ACTIVE_SESSION"
	CodeInvalidCaptureState = "INVALID_CAPTURE_STATE"
	CodeVideoRequired       = "VIDEO_REQUIRED"
	CodeGuardianRequired    = "GUARDIAN_REQUIRED"
	CodeTermsNotAccepted    = "TERMS_NOT_ACCEPTED"
	CodeBriefingRequired    = "BRIEFING_REQUIRED"
	CodeWizardState         = "INVALID_WIZARD_STATE"
	CodeWizardNotStarted    = "WIZARD_NOT_STARTED"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

// UnprocessableEntity is returned for user-correctable wizard validation failures.
func UnprocessableEntity(code, message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, code, message, err)
}

// Conflict is returned when an operation does not fit the current state.
func Conflict(code string, err error) *AppError {
	return NewAppError(http.StatusConflict, code, err.Error(), err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}
