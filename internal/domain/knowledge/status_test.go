package knowledge

import (
	"errors"
	"testing"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name   string
		from   Status
		to     Status
		source Source
		want   bool
	}{
		{"created to processing", StatusCreated, StatusProcessing, SourceLocal, true},
		{"created to syncing for sync source", StatusCreated, StatusSyncing, SourceSync, true},
		{"created to syncing for local source", StatusCreated, StatusSyncing, SourceLocal, false},
		{"created to uploaded skips processing", StatusCreated, StatusUploaded, SourceLocal, false},
		{"processing to uploaded", StatusProcessing, StatusUploaded, SourceLocal, true},
		{"processing to error", StatusProcessing, StatusError, SourceLocal, true},
		{"processing to created", StatusProcessing, StatusCreated, SourceLocal, false},
		{"syncing to uploaded", StatusSyncing, StatusUploaded, SourceSync, true},
		{"syncing to error", StatusSyncing, StatusError, SourceSync, true},
		{"error resubmission", StatusError, StatusCreated, SourceLocal, true},
		{"error to processing directly", StatusError, StatusProcessing, SourceLocal, false},
		{"uploaded is terminal", StatusUploaded, StatusSyncing, SourceSync, false},
		{"uploaded to error", StatusUploaded, StatusError, SourceLocal, false},
		{"self transition", StatusProcessing, StatusProcessing, SourceLocal, false},
		{"unknown from", Status("bogus"), StatusProcessing, SourceLocal, false},
		{"unknown to", StatusCreated, Status("bogus"), SourceLocal, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to, tc.source); got != tc.want {
				t.Fatalf("CanTransition(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.source, got, tc.want)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	if err := ValidateTransition(StatusCreated, StatusProcessing, SourceLocal); err != nil {
		t.Fatalf("legal edge rejected: %v", err)
	}
	err := ValidateTransition(StatusUploaded, StatusSyncing, SourceSync)
	if err == nil {
		t.Fatal("expected error for UPLOADED -> SYNCING")
	}
	if !errors.Is(err, kberr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusUploaded, StatusError} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusCreated, StatusProcessing, StatusSyncing} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestSourceValid(t *testing.T) {
	for _, s := range []Source{SourceLocal, SourceExternal, SourceSync} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if Source("s3").Valid() {
		t.Fatal("unknown source should be invalid")
	}
}
