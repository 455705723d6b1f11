package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRegistry() *Registry {
	return NewRegistry(context.Background(), zerolog.Nop())
}

func TestNewRegistry(t *testing.T) {
	r := newTestRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.Count() != 0 {
		t.Errorf("new registry should be empty, got %d jobs", r.Count())
	}
}

func TestAdd(t *testing.T) {
	r := newTestRegistry()

	ran := make(chan struct{}, 1)
	id := r.Add(func(context.Context, string) { ran <- struct{}{} })
	if id == "" {
		t.Fatal("Add() returned empty id")
	}

	if r.Status(id) != StatusPending {
		t.Errorf("expected status pending, got %s", r.Status(id))
	}

	select {
	case <-ran:
		t.Fatal("task ran before Start")
	case <-time.After(20 * time.Millisecond):
	}

	if r.Count() != 1 {
		t.Errorf("expected 1 job, got %d", r.Count())
	}
}

func TestUniqueIDs(t *testing.T) {
	r := newTestRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := r.Add(nil)
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestUnknownID(t *testing.T) {
	r := newTestRegistry()

	if r.Status("missing") != StatusRemoved {
		t.Errorf("expected removed, got %s", r.Status("missing"))
	}
	if r.Message("missing") != nil {
		t.Error("expected nil message")
	}
	if r.Progress("missing") != nil {
		t.Error("expected nil progress")
	}
	if _, ok := r.Results("missing"); ok {
		t.Error("expected no results")
	}
	if r.Start("missing") {
		t.Error("Start should fail for unknown id")
	}

	// setters are no-ops
	r.SetMessage("missing", "title", "subtitle")
	r.SetProgress("missing", 50)
	if r.Complete("missing", 1) {
		t.Error("Complete should fail for unknown id")
	}
	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
}

// pending -> running -> complete, results only visible at the end
func TestJobLifecycle(t *testing.T) {
	r := newTestRegistry()
	defer r.Wait()

	release := make(chan struct{})
	id := r.Add(func(_ context.Context, id string) {
		<-release
		r.SetMessage(id, "Working", "almost there")
		r.SetProgress(id, 75)
		r.Complete(id, map[string]int{"x": 1})
	})

	if got := r.Status(id); got != StatusPending {
		t.Fatalf("expected pending, got %s", got)
	}

	if !r.Start(id) {
		t.Fatal("Start failed")
	}
	if got := r.Status(id); got != StatusRunning {
		t.Fatalf("expected running, got %s", got)
	}
	if _, ok := r.Results(id); ok {
		t.Fatal("results should not be available while running")
	}
	if r.Start(id) {
		t.Error("second Start should fail")
	}

	close(release)
	waitForStatus(t, r, id, StatusComplete)

	results, ok := r.Results(id)
	if !ok {
		t.Fatal("expected results after complete")
	}
	if results.(map[string]int)["x"] != 1 {
		t.Errorf("unexpected results %v", results)
	}
	if r.Message(id) != nil {
		t.Error("message should be cleared on complete")
	}
	if r.Progress(id) != nil {
		t.Error("progress should be cleared on complete")
	}
}

func TestCompleteRequiresRunning(t *testing.T) {
	r := newTestRegistry()

	id := r.Add(nil)
	if r.Complete(id, "early") {
		t.Fatal("Complete should not skip running")
	}
	if r.Status(id) != StatusPending {
		t.Errorf("expected pending, got %s", r.Status(id))
	}
}

func TestMessageAndProgress(t *testing.T) {
	r := newTestRegistry()
	defer r.Wait()

	block := make(chan struct{})
	id := r.Add(func(_ context.Context, id string) { <-block; r.Complete(id, nil) })
	r.Start(id)

	before, _ := r.Snapshot(id)
	time.Sleep(2 * time.Millisecond)

	r.SetMessage(id, "Fetching", "page 1")
	r.SetProgress(id, IndeterminateProgress)

	msg := r.Message(id)
	if msg == nil || msg.Title != "Fetching" || msg.Subtitle != "page 1" {
		t.Errorf("unexpected message %+v", msg)
	}
	p := r.Progress(id)
	if p == nil || *p != IndeterminateProgress {
		t.Errorf("unexpected progress %v", p)
	}

	after, _ := r.Snapshot(id)
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}

	close(block)
	waitForStatus(t, r, id, StatusComplete)
}

func TestFail(t *testing.T) {
	r := newTestRegistry()
	defer r.Wait()

	boom := errors.New("boom")
	id := r.Add(func(_ context.Context, id string) { r.Fail(id, boom) })
	r.Start(id)
	waitForStatus(t, r, id, StatusComplete)

	if !errors.Is(r.Err(id), boom) {
		t.Errorf("expected boom, got %v", r.Err(id))
	}
	results, ok := r.Results(id)
	if !ok || results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestPrune(t *testing.T) {
	r := newTestRegistry()
	defer r.Wait()

	now := time.Now()
	r.now = func() time.Time { return now }

	done := r.Add(func(_ context.Context, id string) { r.Complete(id, nil) })
	r.Start(done)
	waitForStatus(t, r, done, StatusComplete)

	pending := r.Add(nil)

	r.now = func() time.Time { return now.Add(time.Hour) }
	if removed := r.Prune(30 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 pruned job, got %d", removed)
	}
	if r.Status(done) != StatusRemoved {
		t.Error("complete job should be pruned")
	}
	if r.Status(pending) != StatusPending {
		t.Error("pending job should survive pruning")
	}
}

func TestConcurrentJobs(t *testing.T) {
	r := newTestRegistry()
	defer r.Wait()

	ids := make([]string, 10)
	for i := range ids {
		n := i
		ids[i] = r.Add(func(_ context.Context, id string) {
			r.SetProgress(id, float64(n))
			r.Complete(id, n)
		})
	}
	for _, id := range ids {
		r.Start(id)
	}
	for i, id := range ids {
		waitForStatus(t, r, id, StatusComplete)
		got, _ := r.Results(id)
		if got.(int) != i {
			t.Errorf("job %d: expected %d, got %v", i, i, got)
		}
	}
}

func waitForStatus(t *testing.T, r *Registry, id string, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Status(id) == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("job %s never reached %s (last %s)", id, want, r.Status(id))
}
