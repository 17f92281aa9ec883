package journals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/accounting/shared"
	"github.com/loomledger/loomledger/internal/tenant"
)

// Repository encapsulates DB operations for journal entries. Header,
// lines and the entry-number sequence commit or abort together inside
// WithTx; there is no partially-written entry state.
type Repository interface {
	List(ctx context.Context, scope tenant.Scope, limit int) ([]JournalEntry, error)
	Get(ctx context.Context, scope tenant.Scope, entryID int64) (*JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a posting
// transaction.
type TxRepository interface {
	NextSequence(ctx context.Context, scope tenant.Scope, year int) (int64, error)
	InsertEntry(ctx context.Context, scope tenant.Scope, entryNumber string, in CreateInput) (JournalEntry, error)
	InsertLines(ctx context.Context, scope tenant.Scope, entryID int64, lines []LineInput) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, company_id, entry_number, transaction_type, transaction_id, entry_date, narration, created_by, created_at`

func (r *repository) List(ctx context.Context, scope tenant.Scope, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE company_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		scope.CompanyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.EntryNumber, &e.TransactionType, &e.TransactionID,
			&e.EntryDate, &e.Narration, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope tenant.Scope, entryID int64) (*JournalEntry, error) {
	var e JournalEntry
	err := r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = $1 AND company_id = $2`,
		entryID, scope.CompanyID).
		Scan(&e.ID, &e.CompanyID, &e.EntryNumber, &e.TransactionType, &e.TransactionID,
			&e.EntryDate, &e.Narration, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrJournalNotFound
		}
		return nil, err
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, journal_entry_id, company_id, ledger_account_id, debit_amount, credit_amount, COALESCE(bill_reference, '')
FROM journal_entry_lines WHERE journal_entry_id = $1 AND company_id = $2 ORDER BY id`,
		entryID, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.JournalEntryID, &line.CompanyID, &line.LedgerAccountID,
			&line.DebitAmount, &line.CreditAmount, &line.BillReference); err != nil {
			return nil, err
		}
		e.Lines = append(e.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

// NextSequence atomically increments the per-company-per-year counter
// and returns the new value. The row lock taken by the upsert
// serialises concurrent postings for the same company and year.
func (r *txRepository) NextSequence(ctx context.Context, scope tenant.Scope, year int) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO journal_number_seqs (company_id, year, last_seq) VALUES ($1, $2, 1)
ON CONFLICT (company_id, year) DO UPDATE SET last_seq = journal_number_seqs.last_seq + 1
RETURNING last_seq`,
		scope.CompanyID, year).Scan(&seq)
	return seq, err
}

func (r *txRepository) InsertEntry(ctx context.Context, scope tenant.Scope, entryNumber string, in CreateInput) (JournalEntry, error) {
	entry := JournalEntry{
		CompanyID:       scope.CompanyID,
		EntryNumber:     entryNumber,
		TransactionType: in.Type,
		TransactionID:   in.TransactionID,
		EntryDate:       in.Date,
		Narration:       in.Narration,
		CreatedBy:       in.CreatedBy,
	}
	err := r.tx.QueryRow(ctx,
		`INSERT INTO journal_entries (company_id, entry_number, transaction_type, transaction_id, entry_date, narration, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		scope.CompanyID, entryNumber, in.Type, in.TransactionID, in.Date, in.Narration, in.CreatedBy).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_journal_entries_company_number" {
			return JournalEntry{}, shared.ErrDuplicateEntryNumber
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, scope tenant.Scope, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx,
			`INSERT INTO journal_entry_lines (journal_entry_id, company_id, ledger_account_id, debit_amount, credit_amount, bill_reference)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''))`,
			entryID, scope.CompanyID, line.LedgerAccountID, line.DebitAmount, line.CreditAmount, line.BillReference); err != nil {
			return err
		}
	}
	return nil
}
