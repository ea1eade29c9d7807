package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/mensa-bot/internal/domain"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

const insertRecordQuery = `
	INSERT INTO meal_records (id, date, canteen_name, user_description, matched_items, total)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// PostgresStore appends records to the meal_records table.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresStore creates a store on top of an open database handle.
func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStore{db: db, log: log}
}

// Append inserts record as a new row.
func (s *PostgresStore) Append(ctx context.Context, record *domain.MealRecord) error {
	if record == nil {
		return errors.New("nil record")
	}

	ensureID(record)

	args, err := insertArgs(record)
	if err != nil {
		metrics.RecordAppend(DriverPostgres, "error")
		return err
	}

	if _, err := s.db.ExecContext(ctx, insertRecordQuery, args...); err != nil {
		metrics.RecordAppend(DriverPostgres, "error")
		s.log.WarnContext(ctx, "failed to insert meal record", slog.String("record_id", record.ID), slog.Any("error", err))
		return fmt.Errorf("insert meal record: %w", err)
	}

	metrics.RecordAppend(DriverPostgres, "ok")
	s.log.Info("meal record saved",
		slog.String("record_id", record.ID),
		slog.String("canteen", record.CanteenName),
		slog.Float64("total", record.Total),
	)

	return nil
}

// HealthCheck pings the database.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func insertArgs(record *domain.MealRecord) ([]any, error) {
	items := record.MatchedItems
	if items == nil {
		items = domain.MatchResult{}
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode matched items: %w", err)
	}

	return []any{
		record.ID,
		record.Date.UTC(),
		record.CanteenName,
		record.UserDescription,
		string(encoded),
		record.Total,
	}, nil
}
