package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeInvalidInput = "INVALID_INPUT"
	CodeRateLimited  = "RATE_LIMITED"

	// rejected reservation windows and series
	CodeInvalidWindow = "INVALID_WINDOW"
	CodeTooShort      = "TOO_SHORT"
	CodeTooLong       = "TOO_LONG"
	CodePastStart     = "PAST_START"
	CodeNoOccurrences = "NO_OCCURRENCES"
	CodeRoomInactive  = "ROOM_INACTIVE"
)

var statusByCode = map[string]int{
	CodeNotFound:      http.StatusNotFound,
	CodeValidation:    http.StatusUnprocessableEntity,
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
	CodeConflict:      http.StatusConflict,
	CodeInternal:      http.StatusInternalServerError,
	CodeBadRequest:    http.StatusBadRequest,
	CodeTimeout:       http.StatusGatewayTimeout,
	CodeInvalidInput:  http.StatusBadRequest,
	CodeRateLimited:   http.StatusTooManyRequests,
	CodeInvalidWindow: http.StatusBadRequest,
	CodeTooShort:      http.StatusBadRequest,
	CodeTooLong:       http.StatusBadRequest,
	CodePastStart:     http.StatusBadRequest,
	CodeNoOccurrences: http.StatusBadRequest,
	CodeRoomInactive:  http.StatusBadRequest,
}

// AppError is an error that knows how it is rendered to API clients. Err is never exposed.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// New builds an error whose status is derived from code. Unknown codes map to 500.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code, Details: e.Details}
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e.Response())
	return data
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found")
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{"resource": resource, "id": id})
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message).WithDetails(details)
}

func InvalidInput(message string) *AppError { return New(CodeInvalidInput, message) }
func Unauthorized(message string) *AppError { return New(CodeUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(CodeForbidden, message) }
func Conflict(message string) *AppError     { return New(CodeConflict, message) }
func Timeout(message string) *AppError      { return New(CodeTimeout, message) }
func RateLimited(message string) *AppError  { return New(CodeRateLimited, message) }

func Internal(message string, err error) *AppError {
	e := New(CodeInternal, message)
	e.Err = err
	return e
}

func InvalidWindow(message string) *AppError { return New(CodeInvalidWindow, message) }
func TooShort(message string) *AppError      { return New(CodeTooShort, message) }
func TooLong(message string) *AppError       { return New(CodeTooLong, message) }
func PastStart(message string) *AppError     { return New(CodePastStart, message) }
func NoOccurrences(message string) *AppError { return New(CodeNoOccurrences, message) }

func RoomInactive(roomID string) *AppError {
	return New(CodeRoomInactive, "Room is not active").WithDetails(map[string]any{"room_id": roomID})
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError returns the AppError in err's chain, or wraps err as an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
