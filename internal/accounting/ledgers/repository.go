package ledgers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/tenant"
)

// Repository encapsulates DB operations for ledger accounts. Every
// method filters by the tenant scope; there is no unscoped access.
type Repository interface {
	Get(ctx context.Context, scope tenant.Scope, id int64) (*LedgerAccount, error)
	FindByPartner(ctx context.Context, scope tenant.Scope, partnerID uuid.UUID) (*LedgerAccount, error)
	FindSystemByName(ctx context.Context, scope tenant.Scope, name string) (*LedgerAccount, error)
	FindGroupIDByName(ctx context.Context, scope tenant.Scope, name string) (int64, error)
	Insert(ctx context.Context, scope tenant.Scope, account LedgerAccount) (*LedgerAccount, error)
	LineTotals(ctx context.Context, scope tenant.Scope, ledgerID int64) (debit, credit float64, lineCount int64, err error)
	ListIDs(ctx context.Context, scope tenant.Scope) ([]int64, error)
	UpdateCachedBalance(ctx context.Context, scope tenant.Scope, id int64, balance Balance) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const ledgerColumns = `id, company_id, name, account_group_id, account_type, balance_type, partner_id, is_system_ledger, current_balance, created_at, updated_at`

func scanLedger(row pgx.Row) (*LedgerAccount, error) {
	var a LedgerAccount
	err := row.Scan(&a.ID, &a.CompanyID, &a.Name, &a.AccountGroupID, &a.Type, &a.BalanceSide,
		&a.PartnerID, &a.IsSystemLedger, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Get(ctx context.Context, scope tenant.Scope, id int64) (*LedgerAccount, error) {
	account, err := scanLedger(r.db.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_accounts WHERE id = $1 AND company_id = $2`,
		id, scope.CompanyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

func (r *repository) FindByPartner(ctx context.Context, scope tenant.Scope, partnerID uuid.UUID) (*LedgerAccount, error) {
	account, err := scanLedger(r.db.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_accounts WHERE partner_id = $1 AND company_id = $2`,
		partnerID, scope.CompanyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

func (r *repository) FindSystemByName(ctx context.Context, scope tenant.Scope, name string) (*LedgerAccount, error) {
	account, err := scanLedger(r.db.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_accounts WHERE name = $1 AND is_system_ledger AND company_id = $2`,
		name, scope.CompanyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

func (r *repository) FindGroupIDByName(ctx context.Context, scope tenant.Scope, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM account_groups WHERE name = $1 AND company_id = $2`,
		name, scope.CompanyID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *repository) Insert(ctx context.Context, scope tenant.Scope, account LedgerAccount) (*LedgerAccount, error) {
	return scanLedger(r.db.QueryRow(ctx,
		`INSERT INTO ledger_accounts (company_id, name, account_group_id, account_type, balance_type, partner_id, is_system_ledger)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+ledgerColumns,
		scope.CompanyID, account.Name, account.AccountGroupID, account.Type, account.BalanceSide,
		account.PartnerID, account.IsSystemLedger))
}

func (r *repository) LineTotals(ctx context.Context, scope tenant.Scope, ledgerID int64) (float64, float64, int64, error) {
	var debit, credit float64
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(debit_amount),0), COALESCE(SUM(credit_amount),0), COUNT(*)
FROM journal_entry_lines WHERE ledger_account_id = $1 AND company_id = $2`,
		ledgerID, scope.CompanyID).Scan(&debit, &credit, &count)
	return debit, credit, count, err
}

func (r *repository) ListIDs(ctx context.Context, scope tenant.Scope) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM ledger_accounts WHERE company_id = $1 ORDER BY id`, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateCachedBalance refreshes the advisory current_balance column.
// The stored balance_type stays the account's normal-increase side; the
// cache is signed negative when the replayed balance falls on the
// opposite side.
func (r *repository) UpdateCachedBalance(ctx context.Context, scope tenant.Scope, id int64, balance Balance) error {
	_, err := r.db.Exec(ctx,
		`UPDATE ledger_accounts
SET current_balance = CASE WHEN balance_type = $4 THEN $3 ELSE -$3 END, updated_at = NOW()
WHERE id = $1 AND company_id = $2`,
		id, scope.CompanyID, balance.Amount, balance.Side)
	return err
}
