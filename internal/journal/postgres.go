package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists session exchanges in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interview_exchanges (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			question_index INT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interview_exchanges_session ON interview_exchanges (session_id, question_index);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveExchange(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO interview_exchanges (id, session_id, question_index, question, answer, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID,
		record.SessionID,
		record.QuestionIndex,
		record.Question,
		record.Answer,
		record.DurationMS,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save exchange: %w", err)
	}
	return nil
}

func (s *PostgresStore) SessionLog(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, question_index, question, answer, duration_ms, created_at
		 FROM interview_exchanges WHERE session_id=$1 ORDER BY question_index ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session log: %w", err)
	}
	defer rows.Close()

	var items []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionIndex, &r.Question, &r.Answer, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
