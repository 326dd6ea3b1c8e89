package trigger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunFiresJobUntilCancelled(t *testing.T) {
	trig := New(Options{Spec: "@every 10ms"}, zerolog.Nop())

	var fired atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- trig.Run(ctx, func(context.Context) error {
			fired.Add(1)
			return nil
		})
	}()

	deadline := time.After(2 * time.Second)
	for fired.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("job fired %d times before deadline", fired.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v, want context.Canceled", err)
	}
}

func TestRunSurvivesJobErrors(t *testing.T) {
	trig := New(Options{Spec: "@every 10ms"}, zerolog.Nop())

	var fired atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- trig.Run(ctx, func(context.Context) error {
			fired.Add(1)
			return errors.New("transient store failure")
		})
	}()

	deadline := time.After(2 * time.Second)
	for fired.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job fired %d times before deadline", fired.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestRunRejectsInvalidSpec(t *testing.T) {
	trig := New(Options{Spec: "not a cron spec"}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := trig.Run(ctx, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestNewPanicsOnEmptySpec(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty spec")
		}
	}()
	New(Options{}, zerolog.Nop())
}
