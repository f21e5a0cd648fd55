package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatTransport   ErrorCategory = "transport"   // Provider call failed (network, HTTP, parse)
	ErrCatExtraction  ErrorCategory = "extraction"  // Model replied but no valid artifact found
	ErrCatValidation  ErrorCategory = "validation"  // User input violated a contract
	ErrCatAdmission   ErrorCategory = "admission"   // Cost gate denied the consultation
	ErrCatBudget      ErrorCategory = "budget"      // In-flight spend crossed the estimate guard
	ErrCatState       ErrorCategory = "state"       // Illegal state machine transition
	ErrCatPersistence ErrorCategory = "persistence" // Checkpoint or partial-result write failed
	ErrCatTimeout     ErrorCategory = "timeout"     // Operation timed out
	ErrCatInternal    ErrorCategory = "internal"    // Unexpected internal error
)

// DomainError represents a structured error from the consultation core.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrTransport creates a transport error for a failed provider call.
func ErrTransport(provider, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTransport,
		Code:      CodeProviderFailed,
		Message:   message,
		Retryable: true,
		Details:   map[string]interface{}{"provider": provider},
	}
}

// ErrExtraction creates an extraction error for unusable model output.
func ErrExtraction(round int, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExtraction,
		Code:      CodeNoArtifact,
		Message:   message,
		Retryable: false,
		Details:   map[string]interface{}{"round": round},
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrAdmissionDenied creates an error for a cost-gate denial.
func ErrAdmissionDenied(estimateUSD float64) *DomainError {
	return &DomainError{
		Category:  ErrCatAdmission,
		Code:      CodeConsentDenied,
		Message:   fmt.Sprintf("user declined consultation with estimated cost $%.4f", estimateUSD),
		Retryable: false,
		Details:   map[string]interface{}{"estimate_usd": estimateUSD},
	}
}

// ErrCostExceeded creates an error when in-flight spend crosses the guard.
func ErrCostExceeded(actual, limit float64) *DomainError {
	return &DomainError{
		Category:  ErrCatBudget,
		Code:      CodeCostExceeded,
		Message:   fmt.Sprintf("actual cost $%.4f exceeds limit $%.4f", actual, limit),
		Retryable: false,
		Details: map[string]interface{}{
			"actual_usd": actual,
			"limit_usd":  limit,
		},
	}
}

// ErrInvalidTransition creates a state machine misuse error.
func ErrInvalidTransition(from, to State) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      CodeInvalidTransition,
		Message:   fmt.Sprintf("illegal transition %s -> %s", from, to),
		Retryable: false,
	}
}

// ErrPersistence creates a persistence error for a failed durable write.
func ErrPersistence(message string, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatPersistence,
		Code:      CodeWriteFailed,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes.
const (
	CodeProviderFailed    = "PROVIDER_FAILED"
	CodeNoArtifact        = "NO_ARTIFACT"
	CodeConsentDenied     = "CONSENT_DENIED"
	CodeCostExceeded      = "COST_EXCEEDED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeWriteFailed       = "WRITE_FAILED"

	// Validation error codes
	CodeEmptyQuestion    = "EMPTY_QUESTION"
	CodeQuestionTooLong  = "QUESTION_TOO_LONG"
	CodeInvalidMode      = "INVALID_MODE"
	CodeInvalidThreshold = "INVALID_THRESHOLD"
	CodeInvalidAgent     = "INVALID_AGENT"
	CodeNoAgents         = "NO_AGENTS"

	// Execution error codes
	CodeAllAgentsFailed = "ALL_AGENTS_FAILED"
	CodeSynthesisFailed = "SYNTHESIS_FAILED"
	CodeVerdictFailed   = "VERDICT_FAILED"
	CodeUserCancelled   = "USER_CANCELLED"
)

// MaxQuestionLength is the maximum allowed question length.
const MaxQuestionLength = 100000
