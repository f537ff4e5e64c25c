// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// One slice of cases, one loop, one assertion. Adding a case is adding a struct.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("video", 42),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "InvalidInput wraps ErrInvalidInput",
			err:       InvalidInput("title", "title is required"),
			target:    ErrInvalidInput,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "email a@b.c"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("login required"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("updating video: %w", NotFound("video", 1)),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrInvalidInput",
			err:       NotFound("post", 7),
			target:    ErrInvalidInput,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("admins only"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("testimonial", 3),
			wantMessage: "testimonial not found with id 3",
		},
		{
			name:        "InvalidInput uses custom message",
			err:         InvalidInput("content", "content is required"),
			wantMessage: "content is required",
		},
		{
			name:        "Conflict message includes resource and key",
			err:         Conflict("user", "email a@b.c"),
			wantMessage: "user conflict on email a@b.c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("user", 9)
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestInvalidInputField(t *testing.T) {
	err := InvalidInput("allowedRoles", "at least one role is required")

	if err.Field != "allowedRoles" {
		t.Errorf("Field = %q, want %q", err.Field, "allowedRoles")
	}
}
