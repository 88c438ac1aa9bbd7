package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/turnover/internal/domain/model"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig holds connection pool settings.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnTimeout     time.Duration
}

// PostgresStore writes logs to the prediction_logs table.
type PostgresStore struct {
	db          *sql.DB
	connTimeout time.Duration
}

// OpenPostgres configures the pool. No connection is made until Ping or
// the first query.
func OpenPostgres(cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.ConnTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, connTimeout: timeout}, nil
}

// DB exposes the pool, mainly for stats.
func (s *PostgresStore) DB() *sql.DB { return s.db }

// Ping checks connectivity within the configured timeout.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.connTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Kind implements Store.
func (s *PostgresStore) Kind() string { return "postgres" }

const insertLog = `
	INSERT INTO prediction_logs
		(id, request_id, employee_id, source, input, label, probability_leave, risk_level, verdict, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, log model.PredictionLog) error { //nolint:gocritic // stored by value
	var employeeID sql.NullInt64
	if log.EmployeeID != nil {
		employeeID = sql.NullInt64{Int64: int64(*log.EmployeeID), Valid: true}
	}
	input := log.Input
	if len(input) == 0 {
		input = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, insertLog,
		log.ID, log.RequestID, employeeID, string(log.Source), string(input),
		log.Label, log.ProbabilityLeave, log.RiskLevel, log.Verdict, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction log: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM prediction_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count prediction logs: %w", err)
	}
	return n, nil
}

const selectRecent = `
	SELECT id, request_id, employee_id, source, input, label, probability_leave, risk_level, verdict, created_at
	FROM prediction_logs
	ORDER BY created_at DESC
	LIMIT $1`

// Recent implements Store.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]model.PredictionLog, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRecent, n)
	if err != nil {
		return nil, fmt.Errorf("query prediction logs: %w", err)
	}
	defer rows.Close()

	out := make([]model.PredictionLog, 0, n)
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read prediction logs: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(sc scanner) (model.PredictionLog, error) {
	var (
		log        model.PredictionLog
		id         uuid.UUID
		employeeID sql.NullInt64
		source     string
		input      []byte
	)
	err := sc.Scan(&id, &log.RequestID, &employeeID, &source, &input,
		&log.Label, &log.ProbabilityLeave, &log.RiskLevel, &log.Verdict, &log.CreatedAt)
	if err != nil {
		return model.PredictionLog{}, fmt.Errorf("scan prediction log: %w", err)
	}
	log.ID = id
	log.Source = model.Source(source)
	log.Input = input
	if employeeID.Valid {
		v := int(employeeID.Int64)
		log.EmployeeID = &v
	}
	return log, nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
