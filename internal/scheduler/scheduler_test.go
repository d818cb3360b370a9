package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_ValidSchedules(t *testing.T) {
	for _, schedule := range []string{"@every 5m", "*/10 * * * *", "@hourly"} {
		_, err := New(Config{
			Schedule: schedule,
			Run:      func(ctx context.Context) error { return nil },
			Logger:   testLogger(),
		})
		if err != nil {
			t.Errorf("schedule %q: unexpected error: %v", schedule, err)
		}
	}
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(Config{
		Schedule: "every five minutes",
		Run:      func(ctx context.Context) error { return nil },
		Logger:   testLogger(),
	})
	if err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestTick_SkipsWhileRunning(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	rec, err := New(Config{
		Schedule: "@every 1h",
		Run: func(ctx context.Context) error {
			calls.Add(1)
			<-release
			return nil
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec.tick(ctx)
	}()

	// Ждём входа первой сверки.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Тик во время выполняющейся сверки пропускается.
	rec.tick(ctx)
	if calls.Load() != 1 {
		t.Errorf("expected 1 run, got %d", calls.Load())
	}

	close(release)
	wg.Wait()

	// После завершения следующий тик снова выполняется.
	rec.tick(ctx)
	if calls.Load() != 2 {
		t.Errorf("expected 2 runs, got %d", calls.Load())
	}
}

func TestTick_ErrorNotFatal(t *testing.T) {
	rec, err := New(Config{
		Schedule: "@every 1h",
		Run:      func(ctx context.Context) error { return context.DeadlineExceeded },
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ошибка сверки логируется, состояние "running" снимается.
	rec.tick(context.Background())
	if rec.running.Load() {
		t.Error("running flag must be released after a failed tick")
	}
}
