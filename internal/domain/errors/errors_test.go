package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDeskflipError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DeskflipError
		want string
	}{
		{
			name: "with cause",
			err:  NewError(CodeConflict, "delete profile 2", ErrActiveProfile),
			want: "delete profile 2: cannot delete the active profile",
		},
		{
			name: "without cause",
			err:  NewError(CodeNotFound, "profile 9 not found", nil),
			want: "profile 9 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeskflipError_Unwrap(t *testing.T) {
	err := NewError(CodePlatform, "redirect failed", ErrUnsupportedPlatform)

	if !Is(err, ErrUnsupportedPlatform) {
		t.Error("expected errors.Is to find the cause")
	}

	var de *DeskflipError
	if !As(fmt.Errorf("outer: %w", err), &de) {
		t.Fatal("expected errors.As to find DeskflipError")
	}
	if de.Code != CodePlatform {
		t.Errorf("Code = %s, want %s", de.Code, CodePlatform)
	}
}

func TestWithContext(t *testing.T) {
	err := &DeskflipError{Code: CodeValidation, Message: "bad"}
	WithContext(err, "profile_id", 3)
	WithContext(err, "path", `C:\x`)

	if err.Context["profile_id"] != 3 {
		t.Errorf("profile_id = %v", err.Context["profile_id"])
	}
	if len(err.Context) != 2 {
		t.Errorf("len(Context) = %d, want 2", len(err.Context))
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"explicit code wins", NewError(CodeStorage, "save", ErrProfileNotFound), CodeStorage},
		{"sentinel not found", fmt.Errorf("switch: %w", ErrProfileNotFound), CodeNotFound},
		{"sentinel conflict", ErrLastProfile, CodeConflict},
		{"sentinel unsupported", ErrUnsupportedPlatform, CodeUnsupported},
		{"unknown", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}
