package gst

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/tenant"
)

// RateProvider resolves the company's configured default GST rate.
type RateProvider interface {
	Rate(ctx context.Context, scope tenant.Scope) (float64, error)
}

type settingsRepository struct {
	db *pgxpool.Pool
}

// NewRateProvider reads gst_settings from Postgres.
func NewRateProvider(db *pgxpool.Pool) RateProvider {
	return &settingsRepository{db: db}
}

// Rate returns the configured rate, or DefaultRatePercent when the
// company has no settings row. A missing row is a degraded default,
// not an error.
func (r *settingsRepository) Rate(ctx context.Context, scope tenant.Scope) (float64, error) {
	var rate float64
	err := r.db.QueryRow(ctx,
		`SELECT default_rate_percent FROM gst_settings WHERE company_id = $1`,
		scope.CompanyID).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultRatePercent, nil
		}
		return 0, err
	}
	if rate <= 0 {
		return DefaultRatePercent, nil
	}
	return rate, nil
}
