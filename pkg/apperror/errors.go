package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Plan Catalog (PLAN) ----

func ErrPlanNotFound() *AppError {
	return New("PLAN_001", "Plan not found", http.StatusNotFound)
}

func ErrPlanInactive() *AppError {
	return New("PLAN_002", "Plan is not available for subscription", http.StatusUnprocessableEntity)
}

func ErrPlanCodeExists() *AppError {
	return New("PLAN_003", "Plan code already exists", http.StatusConflict)
}

// ---- Subscriptions (SUB) ----

func ErrSubscriptionNotFound() *AppError {
	return New("SUB_001", "Subscription not found", http.StatusNotFound)
}

func ErrSubscriptionNotCancelable() *AppError {
	return New("SUB_002", "Subscription cannot be canceled in its current state", http.StatusUnprocessableEntity)
}

// ---- Payments (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_001", "Invalid amount", http.StatusBadRequest)
}

func ErrDuplicateReference() *AppError {
	return New("PAY_002", "External reference already used", http.StatusConflict)
}

func ErrPaymentNotFound() *AppError {
	return New("PAY_003", "Payment not found", http.StatusNotFound)
}

func ErrChargeRejected(err error) *AppError {
	return Wrap("PAY_004", "Charge was not accepted by the payment service", http.StatusBadGateway, err)
}

// ---- Security (SEC) ----

func ErrInvalidAPIKey() *AppError {
	return New("SEC_001", "Invalid API key", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
