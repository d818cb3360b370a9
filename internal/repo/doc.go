// Package repo сохраняет историю rollouts в PostgreSQL.
//
// Хранилище опционально: оркестратор работает и без него, записи
// ведутся best-effort. Ожидаемая схема:
//
//	CREATE TABLE rollouts (
//	    id          UUID PRIMARY KEY,
//	    environment TEXT        NOT NULL,
//	    namespace   TEXT        NOT NULL,
//	    status      TEXT        NOT NULL,
//	    started_at  TIMESTAMPTZ,
//	    finished_at TIMESTAMPTZ,
//	    error       TEXT,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE stage_events (
//	    id         UUID PRIMARY KEY,
//	    rollout_id UUID        NOT NULL REFERENCES rollouts (id),
//	    stage      TEXT        NOT NULL,
//	    status     TEXT        NOT NULL,
//	    attempt    INT         NOT NULL,
//	    error      TEXT,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
package repo
