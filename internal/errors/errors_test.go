package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrTypeUnsafeQuery, "query contains unsafe operations"),
			want: "unsafe_query: query contains unsafe operations",
		},
		{
			name: "with cause",
			err:  Wrap(fmt.Errorf("connection refused"), ErrTypeExecution, "query failed"),
			want: "execution: query failed (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(cause, ErrTypeDatabase, "wrapped")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIsType(t *testing.T) {
	err := New(ErrTypeGeneration, "provider unavailable")

	if !IsType(err, ErrTypeGeneration) {
		t.Error("expected IsType to match generation error")
	}

	if IsType(err, ErrTypeDatabase) {
		t.Error("expected IsType to reject mismatched type")
	}

	if IsType(fmt.Errorf("plain error"), ErrTypeGeneration) {
		t.Error("expected IsType to reject plain errors")
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(New(ErrTypeIndex, "count mismatch")); got != ErrTypeIndex {
		t.Errorf("GetType() = %v, want %v", got, ErrTypeIndex)
	}

	if got := GetType(fmt.Errorf("plain")); got != ErrTypeInternal {
		t.Errorf("GetType() = %v, want %v", got, ErrTypeInternal)
	}
}

func TestWithSuggestion(t *testing.T) {
	err := NewConfigError("invalid provider", "llm.provider")

	if len(err.Suggestions) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(err.Suggestions))
	}
}
