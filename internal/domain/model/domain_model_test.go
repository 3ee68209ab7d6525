//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"conference-checkin/internal/domain"
)

// --- Ticket Model Tests ---

func TestNewTicket(t *testing.T) {
	t.Run("should create a ticket with a derived email", func(t *testing.T) {
		startTime := time.Now()
		ticket, err := NewTicket("", "PART010", "  Ana Lucía Gómez ", "")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if ticket.ID == "" {
			t.Error("expected ticket ID to be generated")
		}
		if ticket.ParticipantName != "Ana Lucía Gómez" {
			t.Errorf("expected trimmed name, got %q", ticket.ParticipantName)
		}
		if ticket.Email != "ana.lucía.gómez@example.com" {
			t.Errorf("unexpected derived email %q", ticket.Email)
		}
		if ticket.Used {
			t.Error("a new ticket must not be used")
		}
		if ticket.CreatedAt.Before(startTime.Add(-time.Second)) {
			t.Errorf("CreatedAt %v is too old", ticket.CreatedAt)
		}
	})

	t.Run("should keep an explicit id and email", func(t *testing.T) {
		ticket, err := NewTicket("7", "PART007", "Luis", "luis@conf.dev")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if ticket.ID != "7" || ticket.Email != "luis@conf.dev" {
			t.Errorf("got %+v", ticket)
		}
	})

	t.Run("should reject a blank name or code", func(t *testing.T) {
		if _, err := NewTicket("", "PART001", "   ", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("blank name: expected ErrInvalidArgument, got %v", err)
		}
		if _, err := NewTicket("", "", "Juan", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("blank code: expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDefaultEmail(t *testing.T) {
	cases := map[string]string{
		"Juan Pérez":       "juan.pérez@example.com",
		"  MARIA   garcia": "maria.garcia@example.com",
		"Cher":             "cher@example.com",
	}
	for in, want := range cases {
		if got := DefaultEmail(in); got != want {
			t.Errorf("DefaultEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- Redemption Model Tests ---

func TestRedemptionResult_WithParticipant(t *testing.T) {
	tk := &Ticket{ID: "1", ParticipantName: "Juan Pérez", Email: "juan@example.com"}
	r := (&RedemptionResult{Reason: ReasonAlreadyUsed}).WithParticipant(tk)
	if r.ParticipantName != "Juan Pérez" || r.ParticipantEmail != "juan@example.com" || r.TicketID != "1" {
		t.Errorf("got %+v", r)
	}
	if got := (&RedemptionResult{}).WithParticipant(nil); got.ParticipantName != "" {
		t.Errorf("nil ticket should leave result untouched, got %+v", got)
	}
}

// --- Scan Model Tests ---

func TestFrame_Valid(t *testing.T) {
	if !(Frame{Pix: make([]byte, 2*2*4), Width: 2, Height: 2}).Valid() {
		t.Error("a full 2x2 RGBA frame should be valid")
	}
	if (Frame{Pix: make([]byte, 3), Width: 2, Height: 2}).Valid() {
		t.Error("a short pixel buffer should be invalid")
	}
	if (Frame{}).Valid() {
		t.Error("an empty frame should be invalid")
	}
}

func TestScanState_Active(t *testing.T) {
	active := map[ScanState]bool{
		ScanIdle:              false,
		ScanRequestingCapture: true,
		ScanScanning:          true,
		ScanDecoded:           false,
		ScanCancelled:         false,
		ScanCaptureFailed:     false,
	}
	for st, want := range active {
		if got := st.Active(); got != want {
			t.Errorf("%s.Active() = %t, want %t", st, got, want)
		}
	}
}
