package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Wrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrTransport("openai", "chat call failed").WithCause(cause)

	if !errors.Is(err, ErrTransport("openai", "other message")) {
		t.Fatalf("expected Is match on category+code")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}

	var domErr *DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("expected As to find DomainError")
	}
	if domErr.Category != ErrCatTransport {
		t.Fatalf("unexpected category: %s", domErr.Category)
	}
}

func TestDomainError_Categories(t *testing.T) {
	cases := []struct {
		err error
		cat ErrorCategory
	}{
		{ErrTransport("p", "m"), ErrCatTransport},
		{ErrExtraction(2, "no json"), ErrCatExtraction},
		{ErrValidation(CodeEmptyQuestion, "empty"), ErrCatValidation},
		{ErrAdmissionDenied(0.8), ErrCatAdmission},
		{ErrCostExceeded(0.8, 0.75), ErrCatBudget},
		{ErrInvalidTransition(StateComplete, StateVerdict), ErrCatState},
		{ErrPersistence("write failed", nil), ErrCatPersistence},
		{ErrTimeout("deadline"), ErrCatTimeout},
		{fmt.Errorf("plain"), ErrCatInternal},
	}
	for _, tc := range cases {
		if got := GetCategory(tc.err); got != tc.cat {
			t.Fatalf("GetCategory(%v) = %s, want %s", tc.err, got, tc.cat)
		}
	}
}

func TestDomainError_Retryable(t *testing.T) {
	if !IsRetryable(ErrTransport("p", "m")) {
		t.Fatalf("transport errors should be retryable")
	}
	if IsRetryable(ErrExtraction(1, "m")) {
		t.Fatalf("extraction errors should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors should not be retryable")
	}
}
