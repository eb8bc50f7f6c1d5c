package habits

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/habitloop/habitloop/internal/app/storage/memory"
	serrors "github.com/habitloop/habitloop/internal/errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return New(memory.New(), nil)
}

func TestCreateAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "read", "read 20 pages")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected habit id to be assigned")
	}
	if created.UserID != "user-1" {
		t.Fatalf("expected owner user-1, got %s", created.UserID)
	}

	got, err := svc.Get(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "read" || got.Description != "read 20 pages" {
		t.Fatalf("unexpected habit %+v", got)
	}
}

func TestCreateRequiresCaller(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Create(context.Background(), "", "read", ""); err == nil {
		t.Fatal("expected missing caller to be rejected")
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner", "read", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ops := map[string]func() error{
		"get":      func() error { _, err := svc.Get(ctx, "intruder", created.ID); return err },
		"complete": func() error { _, err := svc.Complete(ctx, "intruder", created.ID); return err },
		"miss":     func() error { _, err := svc.Miss(ctx, "intruder", created.ID); return err },
		"progress": func() error { _, err := svc.Progress(ctx, "intruder", created.ID); return err },
	}
	for name, op := range ops {
		err := op()
		se := serrors.GetServiceError(err)
		if se == nil || se.HTTPStatus != http.StatusForbidden {
			t.Fatalf("%s: expected 403 for non-owner, got %v", name, err)
		}
	}
}

func TestUnknownHabit(t *testing.T) {
	svc := newService(t)

	_, err := svc.Complete(context.Background(), "user-1", "missing")
	se := serrors.GetServiceError(err)
	if se == nil || se.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestCompleteAndMissTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newService(t).WithClock(func() time.Time { return now })
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "run", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Complete(ctx, "user-1", created.ID); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}
	updated, err := svc.Miss(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("miss: %v", err)
	}

	if updated.Progress.CompletedEntries != 3 || updated.Progress.TotalEntries != 4 {
		t.Fatalf("unexpected progress %+v", updated.Progress)
	}
	if updated.Streak.Count != 0 {
		t.Fatalf("expected streak reset, got %d", updated.Streak.Count)
	}
	if len(updated.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(updated.Entries))
	}
}

func TestProgressIsReadOnly(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "read", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Complete(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	first, err := svc.Progress(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	second, err := svc.Progress(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if first.Progress != second.Progress || first.Streak != second.Streak {
		t.Fatalf("progress reads must not mutate state: %+v vs %+v", first, second)
	}
}

func TestConcurrentCompletesAllCount(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "run", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 64
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Complete(ctx, "user-1", created.ID); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("complete: %v", err)
	}

	final, err := svc.Progress(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if final.Progress.TotalEntries != n {
		t.Fatalf("expected %d entries after %d concurrent completes, got %d", n, n, final.Progress.TotalEntries)
	}
	if final.Progress.CompletedEntries != n {
		t.Fatalf("expected %d completed, got %d", n, final.Progress.CompletedEntries)
	}
	if final.Streak.Count != n {
		t.Fatalf("expected streak %d, got %d", n, final.Streak.Count)
	}
}
