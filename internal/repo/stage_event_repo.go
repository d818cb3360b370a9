package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Mastokube/internal/domain"
)

// StageEventRepo — репозиторий переходов стадий.
type StageEventRepo struct {
	pool *pgxpool.Pool
}

// NewStageEventRepo создаёт новый StageEventRepo.
func NewStageEventRepo(pool *pgxpool.Pool) *StageEventRepo {
	return &StageEventRepo{pool: pool}
}

// Insert сохраняет событие перехода стадии.
func (r *StageEventRepo) Insert(ctx context.Context, event *domain.StageEvent) error {
	query := `
		INSERT INTO stage_events (id, rollout_id, stage, status, attempt, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.RolloutID,
		event.Stage,
		event.Status,
		event.Attempt,
		nullString(event.Error),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stage event: %w", err)
	}
	return nil
}

// ListByRollout возвращает события rollout в порядке записи.
func (r *StageEventRepo) ListByRollout(ctx context.Context, rolloutID uuid.UUID) ([]domain.StageEvent, error) {
	query := `
		SELECT id, rollout_id, stage, status, attempt, error, created_at
		FROM stage_events
		WHERE rollout_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, rolloutID)
	if err != nil {
		return nil, fmt.Errorf("list stage events: %w", err)
	}
	defer rows.Close()

	var events []domain.StageEvent
	for rows.Next() {
		var event domain.StageEvent
		var eventError *string

		err := rows.Scan(
			&event.ID,
			&event.RolloutID,
			&event.Stage,
			&event.Status,
			&event.Attempt,
			&eventError,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		if eventError != nil {
			event.Error = *eventError
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
