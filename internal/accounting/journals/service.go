package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/loomledger/loomledger/internal/tenant"
)

// Service enforces the double-entry invariant and persists entries
// atomically with their lines.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates the posting and writes header, lines and the
// entry-number sequence in one transaction. Entry numbers are
// JE-<year>-<4-digit sequence>, unique per company per calendar year;
// the sequence row lock keeps concurrent postings from colliding, and
// a unique index on (company_id, entry_number) is the backstop.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateInput) (*JournalEntry, error) {
	if !scope.Valid() {
		return nil, tenant.ErrMissingScope
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateDoubleEntry(in.Lines).Err(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year := s.now().Year()
		seq, err := tx.NextSequence(ctx, scope, year)
		if err != nil {
			return err
		}
		entryNumber := FormatEntryNumber(year, seq)
		inserted, err := tx.InsertEntry(ctx, scope, entryNumber, in)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, scope, inserted.ID, in.Lines); err != nil {
			return err
		}
		inserted.Lines = toLines(inserted.ID, scope, in.Lines)
		entry = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the most recent entries for the company.
func (s *Service) List(ctx context.Context, scope tenant.Scope, limit int) ([]JournalEntry, error) {
	if !scope.Valid() {
		return nil, tenant.ErrMissingScope
	}
	return s.repo.List(ctx, scope, limit)
}

// Get fetches one entry with its lines.
func (s *Service) Get(ctx context.Context, scope tenant.Scope, entryID int64) (*JournalEntry, error) {
	if !scope.Valid() {
		return nil, tenant.ErrMissingScope
	}
	return s.repo.Get(ctx, scope, entryID)
}

// FormatEntryNumber renders the persisted JE-YYYY-NNNN form.
func FormatEntryNumber(year int, seq int64) string {
	return fmt.Sprintf("JE-%d-%04d", year, seq)
}

func toLines(entryID int64, scope tenant.Scope, lines []LineInput) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			JournalEntryID:  entryID,
			CompanyID:       scope.CompanyID,
			LedgerAccountID: line.LedgerAccountID,
			DebitAmount:     line.DebitAmount,
			CreditAmount:    line.CreditAmount,
			BillReference:   line.BillReference,
		})
	}
	return out
}
