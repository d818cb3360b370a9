package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Mastokube/internal/domain"
)

// RolloutRepo — репозиторий истории rollouts.
type RolloutRepo struct {
	pool *pgxpool.Pool
}

// NewRolloutRepo создаёт новый RolloutRepo.
func NewRolloutRepo(pool *pgxpool.Pool) *RolloutRepo {
	return &RolloutRepo{pool: pool}
}

// Create сохраняет новый rollout.
func (r *RolloutRepo) Create(ctx context.Context, rollout *domain.Rollout) error {
	query := `
		INSERT INTO rollouts (id, environment, namespace, status, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		rollout.ID,
		rollout.Environment,
		rollout.Namespace,
		rollout.Status,
		rollout.StartedAt,
		rollout.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rollout: %w", err)
	}
	return nil
}

// Finish записывает терминальный статус rollout.
func (r *RolloutRepo) Finish(ctx context.Context, rollout *domain.Rollout) error {
	query := `
		UPDATE rollouts
		SET status = $2, finished_at = $3, error = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		rollout.ID,
		rollout.Status,
		rollout.FinishedAt,
		nullString(rollout.Error),
	)
	if err != nil {
		return fmt.Errorf("finish rollout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает rollout по ID.
func (r *RolloutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rollout, error) {
	query := `
		SELECT id, environment, namespace, status, started_at, finished_at, error, created_at
		FROM rollouts
		WHERE id = $1
	`
	return scanRollout(r.pool.QueryRow(ctx, query, id))
}

// ListRecent возвращает последние rollouts, новые первыми.
func (r *RolloutRepo) ListRecent(ctx context.Context, limit int) ([]domain.Rollout, error) {
	query := `
		SELECT id, environment, namespace, status, started_at, finished_at, error, created_at
		FROM rollouts
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list rollouts: %w", err)
	}
	defer rows.Close()

	var rollouts []domain.Rollout
	for rows.Next() {
		rollout, err := scanRollout(rows)
		if err != nil {
			return nil, err
		}
		rollouts = append(rollouts, *rollout)
	}
	return rollouts, rows.Err()
}

// scanRollout сканирует одну строку в Rollout.
func scanRollout(row pgx.Row) (*domain.Rollout, error) {
	var rollout domain.Rollout
	var rolloutError *string

	err := row.Scan(
		&rollout.ID,
		&rollout.Environment,
		&rollout.Namespace,
		&rollout.Status,
		&rollout.StartedAt,
		&rollout.FinishedAt,
		&rolloutError,
		&rollout.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rollout: %w", err)
	}

	if rolloutError != nil {
		rollout.Error = *rolloutError
	}
	return &rollout, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
