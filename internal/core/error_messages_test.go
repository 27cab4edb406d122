package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "malformed payload sentinel",
			err:         fmt.Errorf("%w: unexpected end of JSON input", ErrMalformedPayload),
			wantCode:    "IMP001",
			wantMessage: "The file could not be parsed",
		},
		{
			name:     "unknown kind sentinel",
			err:      fmt.Errorf("%w: guards", ErrUnknownKind),
			wantCode: "IMP002",
		},
		{
			name:     "too many imports",
			err:      ErrTooManyImports,
			wantCode: "IMP003",
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("save changes: %w", context.DeadlineExceeded),
			wantCode: "IMP004",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "IMP005",
		},
		{
			name:     "payload too large",
			err:      fmt.Errorf("%w: 11 bytes exceeds 10", ErrPayloadTooLarge),
			wantCode: "IMP006",
		},
		{
			name:        "wrapped foreign key sentinel",
			err:         fmt.Errorf("save changes: %w", fmt.Errorf("%w: cell 9", ErrForeignKey)),
			wantCode:    "DB001",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:     "store unavailable sentinel",
			err:      ErrStoreUnavailable,
			wantCode: "DB002",
		},
		{
			name:     "duplicate key sentinel",
			err:      ErrDuplicateKey,
			wantCode: "DB003",
		},
		{
			name:     "invalid filter",
			err:      fmt.Errorf("%w: \"x\" is not an id", ErrInvalidFilter),
			wantCode: "EXP001",
		},
		{
			name:     "run not found",
			err:      ErrRunNotFound,
			wantCode: "ARC001",
		},
		{
			name:     "archive disabled",
			err:      ErrArchiveDisabled,
			wantCode: "ARC002",
		},
		{
			name:     "postgres foreign key text",
			err:      errors.New("ERROR: insert violates foreign key constraint \"cells_department_id_fkey\""),
			wantCode: "DB001",
		},
		{
			name:     "sqlite unique text",
			err:      errors.New("UNIQUE constraint failed: officers_prisoners.officer_id"),
			wantCode: "DB003",
		},
		{
			name:     "connection refused text",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "DB002",
		},
		{
			name:     "database locked text",
			err:      errors.New("database is locked (5) (SQLITE_BUSY)"),
			wantCode: "DB002",
		},
		{
			name:     "timeout text",
			err:      errors.New("i/o timeout"),
			wantCode: "IMP004",
		},
		{
			name:        "unknown error falls back",
			err:         errors.New("something odd"),
			wantCode:    "GEN001",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_SentinelBeatsPattern(t *testing.T) {
	// The text mentions a timeout but the sentinel is more specific.
	err := fmt.Errorf("%w: timeout while reading", ErrMalformedPayload)
	if got := MapError(err).Code; got != "IMP001" {
		t.Errorf("MapError() code = %q, want IMP001", got)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrForeignKey)
	want := "Referenced record does not exist (Code: DB001). Import departments and prisoners before the records that reference them"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrMalformedPayload, true},
		{errors.New("violates foreign key constraint"), true},
		{errors.New("random failure"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
