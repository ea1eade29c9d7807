// Package records persists confirmed meal records.
package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

// Store is an append-only collection of meal records.
type Store interface {
	// Append durably adds record. Records are never modified afterwards.
	Append(ctx context.Context, record *domain.MealRecord) error
	// HealthCheck reports whether the store is usable.
	HealthCheck(ctx context.Context) error
}

// Drivers supported by the record store.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

func ensureID(record *domain.MealRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
}
