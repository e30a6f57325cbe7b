package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidBounds, "bounds want %d values", 4)

	if err.Code != ErrCodeInvalidBounds {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidBounds)
	}

	if err.Message != "bounds want 4 values" {
		t.Errorf("Message = %v, want %v", err.Message, "bounds want 4 values")
	}

	expected := "INVALID_BOUNDS: bounds want 4 values"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeFetchFailed, cause, "street network")

	if err.Code != ErrCodeFetchFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFetchFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeLocationNotFound, "no match"),
			code:     ErrCodeLocationNotFound,
			expected: true,
		},
		{
			name:     "different code",
			err:      New(ErrCodeLocationNotFound, "no match"),
			code:     ErrCodeNetwork,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeNetwork,
			expected: false,
		},
		{
			name:     "wrapped structured error",
			err:      Wrap(ErrCodeFetchFailed, errors.New("boom"), "water layer"),
			code:     ErrCodeFetchFailed,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(New(ErrCodeRender, "oops")); code != ErrCodeRender {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeRender)
	}
	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode(plain) = %v, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(New(ErrCodeLocationNotFound, "could not find coordinates for Atlantis")); msg != "could not find coordinates for Atlantis" {
		t.Errorf("UserMessage() = %v", msg)
	}
	if msg := UserMessage(errors.New("plain")); msg != "plain" {
		t.Errorf("UserMessage(plain) = %v", msg)
	}
}
