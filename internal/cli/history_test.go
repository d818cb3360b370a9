package cli

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Mastokube/internal/domain"
)

func TestRolloutRows(t *testing.T) {
	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	rollout := domain.Rollout{
		ID:          uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Environment: "social.example.org",
		Status:      domain.RolloutAborted,
		StartedAt:   &started,
		FinishedAt:  &finished,
		Error:       "stage core-services: readiness timeout",
	}

	rows := rolloutRows([]domain.Rollout{rollout})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	want := []string{
		"11111111-2222-3333-4444-555555555555",
		"social.example.org",
		"ABORTED",
		"2026-08-25T10:00:00Z",
		"1m30s",
		"stage core-services: readiness timeout",
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d: expected %q, got %q", i, want[i], row[i])
		}
	}
}

func TestRolloutRows_Unfinished(t *testing.T) {
	// У незавершённого rollout нет ни времени старта, ни длительности.
	rows := rolloutRows([]domain.Rollout{{
		ID:     uuid.New(),
		Status: domain.RolloutPending,
	}})

	if rows[0][3] != "" || rows[0][4] != "" {
		t.Errorf("expected empty started/duration, got %q and %q", rows[0][3], rows[0][4])
	}
}

func TestStageEventRows(t *testing.T) {
	at := time.Date(2026, 8, 25, 10, 0, 5, 0, time.UTC)

	rows := stageEventRows([]domain.StageEvent{{
		Stage:     domain.StageCoreServices,
		Status:    domain.StageFailed,
		Attempt:   2,
		Error:     "readiness timeout",
		CreatedAt: at,
	}})

	row := rows[0]
	want := []string{"core-services", "FAILED", "2", "2026-08-25T10:00:05Z", "readiness timeout"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d: expected %q, got %q", i, want[i], row[i])
		}
	}
}
