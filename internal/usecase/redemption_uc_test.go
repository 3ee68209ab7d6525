//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/repository"
	"conference-checkin/internal/infra/db/memory"
	"conference-checkin/internal/usecase"
)

// newSeededRedemption wires the redemption use case to a fresh in-memory store
// holding the demo tickets.
func newSeededRedemption(t *testing.T, opts ...usecase.RedemptionOption) (usecase.RedemptionUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tickets := usecase.NewTicketUseCase(store.Tickets(), store.Attendance(), store.TxManager(), &MockQREncoder{}, newTestLogger())
	if _, err := tickets.SeedDemo(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	uc := usecase.NewRedemptionUseCase(store.Tickets(), store.Attendance(), memory.NewKeyedLocker(), store.TxManager(),
		newTestTranslator(), newTestLogger(), opts...)
	return uc, store
}

func attendanceFor(t *testing.T, store *memory.Store, code string) int {
	t.Helper()
	ctx := context.Background()
	tk, err := store.Tickets().FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		t.Fatalf("find %s: %v", code, err)
	}
	n, err := store.Attendance().CountByTicket(ctx, repository.NoTX, tk.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRedemptionUseCase_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("unused ticket succeeds once then reports already used", func(t *testing.T) {
		fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		uc, store := newSeededRedemption(t, usecase.WithClock(func() time.Time { return fixed }))

		first := uc.Redeem(ctx, "PART001")
		if !first.Success || first.Reason != model.ReasonNone {
			t.Fatalf("expected success, got %+v", first)
		}
		if first.ParticipantName != "Juan Pérez" || first.ParticipantEmail != "juan.perez@ejemplo.com" {
			t.Errorf("unexpected participant: %q <%s>", first.ParticipantName, first.ParticipantEmail)
		}
		if first.Message != "ok" {
			t.Errorf("message = %q", first.Message)
		}
		if first.RedeemedAt == nil || !first.RedeemedAt.Equal(fixed) {
			t.Errorf("redeemedAt = %v, want %v", first.RedeemedAt, fixed)
		}
		if first.AttendanceID == "" {
			t.Error("expected attendance id")
		}

		second := uc.Redeem(ctx, "PART001")
		if second.Success || second.Reason != model.ReasonAlreadyUsed {
			t.Fatalf("expected ALREADY_USED, got %+v", second)
		}
		if second.ParticipantName != "Juan Pérez" {
			t.Errorf("already-used result should name the participant, got %q", second.ParticipantName)
		}
		if n := attendanceFor(t, store, "PART001"); n != 1 {
			t.Errorf("attendance records = %d, want 1", n)
		}
	})

	t.Run("pre-used ticket does not record attendance again", func(t *testing.T) {
		uc, store := newSeededRedemption(t)

		res := uc.Redeem(ctx, "PART003")
		if res.Success || res.Reason != model.ReasonAlreadyUsed {
			t.Fatalf("expected ALREADY_USED, got %+v", res)
		}
		if n := attendanceFor(t, store, "PART003"); n != 1 {
			t.Errorf("attendance records = %d, want the seeded 1", n)
		}
	})

	t.Run("unknown and empty codes are invalid", func(t *testing.T) {
		uc, _ := newSeededRedemption(t)
		for _, code := range []string{"", "NOT_A_CODE", "part001", " PART001"} {
			res := uc.Redeem(ctx, code)
			if res.Success || res.Reason != model.ReasonInvalidCode || res.Message != "invalid" {
				t.Errorf("Redeem(%q) = %+v, want INVALID_CODE", code, res)
			}
		}
	})

	t.Run("repeated attempts keep exactly one record per ticket", func(t *testing.T) {
		uc, store := newSeededRedemption(t)
		for i := 0; i < 5; i++ {
			for _, code := range []string{"PART001", "PART002", "PART003"} {
				uc.Redeem(ctx, code)
			}
		}
		for _, code := range []string{"PART001", "PART002", "PART003"} {
			if n := attendanceFor(t, store, code); n != 1 {
				t.Errorf("%s: attendance records = %d, want 1", code, n)
			}
		}
		if n := attendanceFor(t, store, "PART004"); n != 0 {
			t.Errorf("PART004 untouched, got %d records", n)
		}
	})
}

func TestRedemptionUseCase_Concurrent(t *testing.T) {
	ctx := context.Background()
	const callers = 16

	run := func(t *testing.T, uc usecase.RedemptionUseCase) {
		var wg sync.WaitGroup
		results := make([]*model.RedemptionResult, callers)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				results[i] = uc.Redeem(ctx, "PART002")
			}(i)
		}
		close(start)
		wg.Wait()

		wins, used := 0, 0
		for _, r := range results {
			switch {
			case r.Success:
				wins++
			case r.Reason == model.ReasonAlreadyUsed:
				used++
			default:
				t.Errorf("unexpected result %+v", r)
			}
		}
		if wins != 1 || used != callers-1 {
			t.Fatalf("wins=%d already_used=%d, want 1 and %d", wins, used, callers-1)
		}
	}

	t.Run("with keyed lock", func(t *testing.T) {
		uc, store := newSeededRedemption(t)
		run(t, uc)
		if n := attendanceFor(t, store, "PART002"); n != 1 {
			t.Fatalf("attendance records = %d, want 1", n)
		}
	})

	t.Run("store CAS alone", func(t *testing.T) {
		store := memory.NewStore()
		tickets := usecase.NewTicketUseCase(store.Tickets(), store.Attendance(), store.TxManager(), &MockQREncoder{}, newTestLogger())
		if _, err := tickets.SeedDemo(ctx); err != nil {
			t.Fatal(err)
		}
		uc := usecase.NewRedemptionUseCase(store.Tickets(), store.Attendance(), nil, store.TxManager(), newTestTranslator(), newTestLogger())
		run(t, uc)
		if n := attendanceFor(t, store, "PART002"); n != 1 {
			t.Fatalf("attendance records = %d, want 1", n)
		}
	})
}

func TestRedemptionUseCase_Failures(t *testing.T) {
	ctx := context.Background()
	juan := ticket("t-1", "PART001", "Juan Pérez", false)

	t.Run("lost CAS is reported as already used", func(t *testing.T) {
		repo := NewMockTicketRepo(juan)
		repo.MarkUsedFunc = func(ctx context.Context, tx repository.Tx, id string) (bool, error) { return false, nil }
		att := NewMockAttendanceRepo()
		uc := usecase.NewRedemptionUseCase(repo, att, &MockLocker{}, NewMockTxManager(), newTestTranslator(), newTestLogger())

		res := uc.Redeem(ctx, "PART001")
		if res.Success || res.Reason != model.ReasonAlreadyUsed {
			t.Fatalf("expected ALREADY_USED, got %+v", res)
		}
		if att.count() != 0 {
			t.Fatal("no attendance may be written after a lost CAS")
		}
	})

	t.Run("store error maps to internal error", func(t *testing.T) {
		repo := NewMockTicketRepo()
		repo.FindByCodeFunc = func(ctx context.Context, tx repository.Tx, code string) (*model.Ticket, error) {
			return nil, errors.New("connection reset")
		}
		uc := usecase.NewRedemptionUseCase(repo, NewMockAttendanceRepo(), &MockLocker{}, NewMockTxManager(), newTestTranslator(), newTestLogger())

		res := uc.Redeem(ctx, "PART001")
		if res.Success || res.Reason != model.ReasonInternalError || res.Message != "internal" {
			t.Fatalf("expected INTERNAL_ERROR, got %+v", res)
		}
	})

	t.Run("transaction failure maps to internal error", func(t *testing.T) {
		tm := NewMockTxManager()
		tm.WithTxFunc = func(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
			if err := fn(ctx, nil); err != nil {
				return err
			}
			return errors.New("commit failed")
		}
		uc := usecase.NewRedemptionUseCase(NewMockTicketRepo(juan), NewMockAttendanceRepo(), &MockLocker{}, tm, newTestTranslator(), newTestLogger())

		if res := uc.Redeem(ctx, "PART001"); res.Reason != model.ReasonInternalError {
			t.Fatalf("expected INTERNAL_ERROR, got %+v", res)
		}
	})

	t.Run("lock timeout maps to internal error", func(t *testing.T) {
		locker := &MockLocker{TryLockFunc: func(ctx context.Context, key string, ttl time.Duration) (string, error) {
			return "", domain.ErrLockNotAcquired
		}}
		repo := NewMockTicketRepo(juan)
		uc := usecase.NewRedemptionUseCase(repo, NewMockAttendanceRepo(), locker, NewMockTxManager(), newTestTranslator(), newTestLogger())

		if res := uc.Redeem(ctx, "PART001"); res.Reason != model.ReasonInternalError {
			t.Fatalf("expected INTERNAL_ERROR, got %+v", res)
		}
		if repo.get("t-1").Used {
			t.Fatal("ticket must stay unused when the lock is not acquired")
		}
	})

	t.Run("lock is taken per code and always released", func(t *testing.T) {
		locker := &MockLocker{}
		uc := usecase.NewRedemptionUseCase(NewMockTicketRepo(juan), NewMockAttendanceRepo(), locker, NewMockTxManager(), newTestTranslator(), newTestLogger())

		uc.Redeem(ctx, "PART001")
		uc.Redeem(ctx, "NOPE")
		if len(locker.Locked) != 2 || len(locker.Unlocked) != 2 {
			t.Fatalf("locked=%v unlocked=%v", locker.Locked, locker.Unlocked)
		}
		if locker.Locked[0] != "checkin:lock:ticket:PART001" {
			t.Errorf("lock key = %q", locker.Locked[0])
		}
	})
}

func TestRedemptionUseCase_NotifiesStaff(t *testing.T) {
	ctx := context.Background()
	notifier := &MockNotifier{Err: errors.New("telegram down")}
	uc := usecase.NewRedemptionUseCase(
		NewMockTicketRepo(ticket("t-1", "PART001", "Juan Pérez", false)),
		NewMockAttendanceRepo(), &MockLocker{}, NewMockTxManager(), newTestTranslator(), newTestLogger(),
		usecase.WithStaffNotifier(notifier))

	if res := uc.Redeem(ctx, "PART001"); !res.Success {
		t.Fatalf("a failing notifier must not affect the result: %+v", res)
	}
	uc.Redeem(ctx, "PART001")

	if len(notifier.Sent) != 1 {
		t.Fatalf("notices = %d, want 1 (only successes)", len(notifier.Sent))
	}
	if want := "checked in: Juan Pérez (juan.pérez@example.com)"; notifier.Sent[0] != want {
		t.Errorf("notice = %q, want %q", notifier.Sent[0], want)
	}
}

func TestRedemptionUseCase_PublishesCheckinEvent(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	events := &MockEventPublisher{Err: errors.New("broker down")}
	uc, _ := newSeededRedemption(t,
		usecase.WithClock(func() time.Time { return fixed }),
		usecase.WithEventPublisher(events))

	ctx := usecase.WithChannel(context.Background(), "scan")
	if res := uc.Redeem(ctx, "PART002"); !res.Success {
		t.Fatalf("a failing publisher must not affect the result: %+v", res)
	}
	uc.Redeem(ctx, "PART002")
	uc.Redeem(ctx, "NOPE")

	if len(events.Events) != 1 {
		t.Fatalf("events = %d, want 1 (only successes)", len(events.Events))
	}
	ev := events.Events[0]
	if ev.Code != "PART002" || ev.ParticipantName != "María García" || ev.Channel != "scan" {
		t.Errorf("event = %+v", ev)
	}
	if ev.AttendanceID == "" || !ev.RedeemedAt.Equal(fixed) {
		t.Errorf("event attendance = %q at %s", ev.AttendanceID, ev.RedeemedAt)
	}
}

func TestWithChannel(t *testing.T) {
	if got := usecase.ChannelFrom(context.Background()); got != "unknown" {
		t.Errorf("default channel = %q", got)
	}
	ctx := usecase.WithChannel(context.Background(), "telegram")
	if got := usecase.ChannelFrom(ctx); got != "telegram" {
		t.Errorf("channel = %q", got)
	}
}
