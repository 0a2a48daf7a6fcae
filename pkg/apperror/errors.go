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

// ---- Validation (VAL) ----

// Validation returns a VAL_001 error for bad input shape or range.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be greater than zero", http.StatusBadRequest)
}

// ---- Wallets (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrLastWallet() *AppError {
	return New("WAL_002", "The last remaining wallet cannot be deleted", http.StatusConflict)
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient available balance", http.StatusPaymentRequired)
}

func ErrInsufficientFrozenFunds() *AppError {
	return New("LED_002", "Insufficient frozen funds", http.StatusPaymentRequired)
}

func ErrTransactionNotFound() *AppError {
	return New("LED_003", "Transaction not found", http.StatusNotFound)
}

// ---- Transfers (TRF) ----

func ErrSameWalletTransfer() *AppError {
	return New("TRF_001", "Source and destination wallets must differ", http.StatusBadRequest)
}

func ErrInvalidExchangeRate() *AppError {
	return New("TRF_002", "Invalid exchange rate for this currency pair", http.StatusBadRequest)
}

// ---- Debts (DBT) ----

func ErrDebtNotFound() *AppError {
	return New("DBT_001", "Debt not found", http.StatusNotFound)
}

func ErrPaymentExceedsRemaining() *AppError {
	return New("DBT_002", "Payment exceeds the remaining debt amount", http.StatusBadRequest)
}

// ---- Business payment protocol (QRP) ----

func ErrMalformedPayload() *AppError {
	return New("QRP_001", "Malformed QR payload", http.StatusBadRequest)
}

func ErrDuplicatePayment() *AppError {
	return New("QRP_002", "Payment has already been consumed", http.StatusConflict)
}

func ErrUnknownPaymentRequest() *AppError {
	return New("QRP_003", "Unknown or expired payment request", http.StatusNotFound)
}

// ---- Unlock gate (SEC) ----

func ErrInvalidPin() *AppError {
	return New("SEC_001", "Invalid PIN", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("SEC_002", "Invalid or expired session token", http.StatusUnauthorized)
}

func ErrPinNotSet() *AppError {
	return New("SEC_003", "No PIN has been configured", http.StatusConflict)
}

// ---- System & Infrastructure (SYS) ----

// ErrStorage wraps a durable-store failure. Always surfaced to the caller,
// never silently retried.
func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "Storage failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal error", http.StatusInternalServerError, err)
}
