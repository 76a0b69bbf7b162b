package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeEval, cause, "evaluating dataset")

	if err.Code != ErrCodeEval {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEval)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
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
			err:      New(ErrCodeDuplicateName, "test"),
			code:     ErrCodeDuplicateName,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeDuplicateName, "test"),
			code:     ErrCodeCycleDetected,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeEval, New(ErrCodeInvalidReference, "inner"), "outer"),
			code:     ErrCodeEval,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeDuplicateName,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeDuplicateName,
			expected: false,
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
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeShapeMismatch, "test"),
			expected: ErrCodeShapeMismatch,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInUseError(t *testing.T) {
	t.Run("with dependents", func(t *testing.T) {
		err := &InUseError{Name: "x", Dependents: []string{"y", "z"}}
		expected := `dataset "x" is referenced by y, z`
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("without dependents", func(t *testing.T) {
		err := &InUseError{Name: "x"}
		expected := `dataset "x" is in use`
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("code method", func(t *testing.T) {
		err := &InUseError{Name: "x"}
		if err.Code() != ErrCodeInUse {
			t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeInUse)
		}
	})

	t.Run("wrapped carries code", func(t *testing.T) {
		inner := &InUseError{Name: "x", Dependents: []string{"y"}}
		err := Wrap(ErrCodeInUse, inner, "cannot delete dataset %q", "x")
		if !Is(err, ErrCodeInUse) {
			t.Error("Is(err, ErrCodeInUse) = false, want true")
		}
		var extracted *InUseError
		if !errors.As(err, &extracted) {
			t.Fatal("errors.As failed to extract InUseError")
		}
		if len(extracted.Dependents) != 1 || extracted.Dependents[0] != "y" {
			t.Errorf("Dependents = %v, want [y]", extracted.Dependents)
		}
	})
}
