// Package errors provides custom error types for the Harambee API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrInvalidState) matches copies made by Wrap and WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Member errors.
var (
	ErrMemberNotFound     = &AppError{Code: "MEMBER_NOT_FOUND", Message: "Member not found", StatusCode: http.StatusNotFound}
	ErrDuplicatePhone     = &AppError{Code: "DUPLICATE_PHONE", Message: "A member with this phone number already exists", StatusCode: http.StatusConflict}
	ErrMemberInUse        = &AppError{Code: "MEMBER_IN_USE", Message: "Member has existing contributions or pledges", StatusCode: http.StatusConflict}
	ErrMemberCodeConflict = &AppError{Code: "MEMBER_CODE_CONFLICT", Message: "Could not allocate a unique member code", StatusCode: http.StatusConflict}
)

// Group errors.
var (
	ErrGroupNotFound          = &AppError{Code: "GROUP_NOT_FOUND", Message: "Group not found", StatusCode: http.StatusNotFound}
	ErrGroupInUse             = &AppError{Code: "GROUP_IN_USE", Message: "Group has existing contributions or pledges", StatusCode: http.StatusConflict}
	ErrInvalidGroupMembership = &AppError{Code: "INVALID_GROUP_MEMBERSHIP", Message: "Member does not belong to this group", StatusCode: http.StatusBadRequest}
	ErrAlreadyGroupMember     = &AppError{Code: "ALREADY_GROUP_MEMBER", Message: "Member already belongs to this group", StatusCode: http.StatusConflict}
)

// Goal errors.
var (
	ErrGoalNotFound    = &AppError{Code: "GOAL_NOT_FOUND", Message: "Fundraising goal not found", StatusCode: http.StatusNotFound}
	ErrGoalInUse       = &AppError{Code: "GOAL_IN_USE", Message: "Fundraising goal has existing contributions or pledges", StatusCode: http.StatusConflict}
	ErrDuplicateName   = &AppError{Code: "DUPLICATE_NAME", Message: "A record with this name already exists", StatusCode: http.StatusConflict}
	ErrTargetNotFound  = &AppError{Code: "TARGET_NOT_FOUND", Message: "Target not found", StatusCode: http.StatusNotFound}
	ErrDuplicateTarget = &AppError{Code: "DUPLICATE_TARGET", Message: "A target is already set for this scope", StatusCode: http.StatusConflict}
)

// Ledger errors.
var (
	ErrContributionNotFound = &AppError{Code: "CONTRIBUTION_NOT_FOUND", Message: "Contribution not found", StatusCode: http.StatusNotFound}
	ErrPledgeNotFound       = &AppError{Code: "PLEDGE_NOT_FOUND", Message: "Pledge not found", StatusCode: http.StatusNotFound}
	ErrInvalidAmount        = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero with at most two decimal places", StatusCode: http.StatusBadRequest}
	ErrInvalidDateRange     = &AppError{Code: "INVALID_DATE_RANGE", Message: "Due date must not be before the pledge date", StatusCode: http.StatusBadRequest}
	ErrInvalidState         = &AppError{Code: "INVALID_STATE", Message: "Operation not allowed in the current status", StatusCode: http.StatusConflict}
)
