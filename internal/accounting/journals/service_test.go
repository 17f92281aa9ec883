package journals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/loomledger/loomledger/internal/accounting/shared"
	"github.com/loomledger/loomledger/internal/tenant"
)

type seqKey struct {
	company uuid.UUID
	year    int
}

type memoryJournalRepo struct {
	entries     []JournalEntry
	lines       map[int64][]Line
	seqs        map[seqKey]int64
	nextEntryID int64
	failLines   bool
}

func newMemoryJournalRepo() *memoryJournalRepo {
	return &memoryJournalRepo{
		lines: make(map[int64][]Line),
		seqs:  make(map[seqKey]int64),
	}
}

func (r *memoryJournalRepo) List(ctx context.Context, scope tenant.Scope, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []JournalEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].CompanyID == scope.CompanyID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *memoryJournalRepo) Get(ctx context.Context, scope tenant.Scope, entryID int64) (*JournalEntry, error) {
	for _, e := range r.entries {
		if e.ID == entryID && e.CompanyID == scope.CompanyID {
			entry := e
			entry.Lines = r.lines[e.ID]
			return &entry, nil
		}
	}
	return nil, shared.ErrJournalNotFound
}

func (r *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := len(r.entries)
	if err := fn(ctx, &memoryTxRepo{repo: r}); err != nil {
		r.entries = r.entries[:snapshot]
		return err
	}
	return nil
}

type memoryTxRepo struct {
	repo *memoryJournalRepo
}

func (t *memoryTxRepo) NextSequence(ctx context.Context, scope tenant.Scope, year int) (int64, error) {
	key := seqKey{company: scope.CompanyID, year: year}
	t.repo.seqs[key]++
	return t.repo.seqs[key], nil
}

func (t *memoryTxRepo) InsertEntry(ctx context.Context, scope tenant.Scope, entryNumber string, in CreateInput) (JournalEntry, error) {
	for _, e := range t.repo.entries {
		if e.CompanyID == scope.CompanyID && e.EntryNumber == entryNumber {
			return JournalEntry{}, shared.ErrDuplicateEntryNumber
		}
	}
	t.repo.nextEntryID++
	entry := JournalEntry{
		ID:              t.repo.nextEntryID,
		CompanyID:       scope.CompanyID,
		EntryNumber:     entryNumber,
		TransactionType: in.Type,
		TransactionID:   in.TransactionID,
		EntryDate:       in.Date,
		Narration:       in.Narration,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       time.Now(),
	}
	t.repo.entries = append(t.repo.entries, entry)
	return entry, nil
}

func (t *memoryTxRepo) InsertLines(ctx context.Context, scope tenant.Scope, entryID int64, lines []LineInput) error {
	if t.repo.failLines {
		return fmt.Errorf("insert lines: connection reset")
	}
	for _, line := range lines {
		t.repo.lines[entryID] = append(t.repo.lines[entryID], Line{
			JournalEntryID:  entryID,
			CompanyID:       scope.CompanyID,
			LedgerAccountID: line.LedgerAccountID,
			DebitAmount:     line.DebitAmount,
			CreditAmount:    line.CreditAmount,
			BillReference:   line.BillReference,
		})
	}
	return nil
}

func balancedInput() CreateInput {
	return CreateInput{
		Type:          TransactionInvoice,
		TransactionID: uuid.New(),
		Date:          time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC),
		Narration:     "Invoice INV-001",
		CreatedBy:     uuid.New(),
		Lines: []LineInput{
			{LedgerAccountID: 1, DebitAmount: 236, BillReference: "INV-001"},
			{LedgerAccountID: 2, CreditAmount: 200},
			{LedgerAccountID: 3, CreditAmount: 18},
			{LedgerAccountID: 4, CreditAmount: 18},
		},
	}
}

func TestCreateAssignsSequentialEntryNumbers(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo)
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) })
	scope := tenant.Scope{CompanyID: uuid.New()}

	for i := 1; i <= 3; i++ {
		entry, err := svc.Create(context.Background(), scope, balancedInput())
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("JE-2025-%04d", i), entry.EntryNumber)
		require.Len(t, entry.Lines, 4)
	}
}

func TestCreateSequencesAreTenantScoped(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo)
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) })

	first, err := svc.Create(context.Background(), tenant.Scope{CompanyID: uuid.New()}, balancedInput())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), tenant.Scope{CompanyID: uuid.New()}, balancedInput())
	require.NoError(t, err)

	// each company starts its own sequence
	require.Equal(t, "JE-2025-0001", first.EntryNumber)
	require.Equal(t, "JE-2025-0001", second.EntryNumber)
}

func TestCreateSequenceResetsPerYear(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}

	svc.WithNow(func() time.Time { return time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC) })
	entry, err := svc.Create(context.Background(), scope, balancedInput())
	require.NoError(t, err)
	require.Equal(t, "JE-2025-0001", entry.EntryNumber)

	svc.WithNow(func() time.Time { return time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC) })
	entry, err = svc.Create(context.Background(), scope, balancedInput())
	require.NoError(t, err)
	require.Equal(t, "JE-2026-0001", entry.EntryNumber)
}

func TestCreateRejectsUnbalancedBeforeAnyWrite(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}

	in := balancedInput()
	in.Lines[0].DebitAmount = 500

	_, err := svc.Create(context.Background(), scope, in)
	var balanceErr *shared.BalanceError
	require.ErrorAs(t, err, &balanceErr)
	require.InDelta(t, 264, balanceErr.Difference, 0.001)
	require.Empty(t, repo.entries)
}

func TestCreateRollsBackHeaderOnLineFailure(t *testing.T) {
	repo := newMemoryJournalRepo()
	repo.failLines = true
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}

	_, err := svc.Create(context.Background(), scope, balancedInput())
	require.Error(t, err)
	require.Empty(t, repo.entries, "header must not survive a failed line insert")
}

func TestListDefaultsLimit(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), scope, balancedInput())
		require.NoError(t, err)
	}

	// an unset limit falls back to the repository default, not zero rows
	entries, err := svc.List(context.Background(), scope, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestCreateRequiresScope(t *testing.T) {
	svc := NewService(newMemoryJournalRepo())
	_, err := svc.Create(context.Background(), tenant.Scope{}, balancedInput())
	require.ErrorIs(t, err, tenant.ErrMissingScope)
}
