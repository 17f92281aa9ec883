package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/accounting/ledgers"
	"github.com/loomledger/loomledger/internal/tenant"
)

// BalanceRefreshJob recomputes every ledger balance of a company from
// journal history and writes the result into the advisory
// current_balance column. The column exists for reporting surfaces
// that cannot afford a replay; no core read path trusts it.
type BalanceRefreshJob struct {
	Ledgers *ledgers.Service
	Repo    ledgers.Repository
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
}

// NewBalanceRefreshJob initialises the refresh handler.
func NewBalanceRefreshJob(service *ledgers.Service, repo ledgers.Repository, pool *pgxpool.Pool, logger *slog.Logger) *BalanceRefreshJob {
	return &BalanceRefreshJob{Ledgers: service, Repo: repo, Pool: pool, Logger: logger}
}

// Handle executes the refresh.
func (j *BalanceRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil || j.Ledgers == nil {
		return errors.New("balance refresh: handler not configured")
	}
	var payload BalanceRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	companies, err := j.companies(ctx, payload)
	if err != nil {
		return err
	}

	start := time.Now()
	var refreshed, failed int
	for _, companyID := range companies {
		scope := tenant.Scope{CompanyID: companyID}
		ids, err := j.Repo.ListIDs(ctx, scope)
		if err != nil {
			return err
		}
		for _, ledgerID := range ids {
			balance, err := j.Ledgers.Balance(ctx, scope, ledgerID)
			if err != nil {
				failed++
				j.logger().Warn("replay ledger balance",
					slog.Int64("ledger_id", ledgerID),
					slog.String("company_id", companyID.String()),
					slog.Any("error", err),
				)
				continue
			}
			if err := j.Repo.UpdateCachedBalance(ctx, scope, ledgerID, balance); err != nil {
				failed++
				j.logger().Warn("store cached balance",
					slog.Int64("ledger_id", ledgerID),
					slog.Any("error", err),
				)
				continue
			}
			refreshed++
		}
	}

	j.logger().Info("balance refresh complete",
		slog.Int("companies", len(companies)),
		slog.Int("refreshed", refreshed),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)),
	)
	if failed > 0 {
		return errors.New("balance refresh: some ledgers failed, will retry")
	}
	return nil
}

func (j *BalanceRefreshJob) companies(ctx context.Context, payload BalanceRefreshPayload) ([]uuid.UUID, error) {
	if payload.CompanyID != uuid.Nil {
		return []uuid.UUID{payload.CompanyID}, nil
	}
	if j.Pool == nil {
		return nil, errors.New("balance refresh: pool required for full scan")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT company_id FROM ledger_accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		companies = append(companies, id)
	}
	return companies, rows.Err()
}

func (j *BalanceRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
