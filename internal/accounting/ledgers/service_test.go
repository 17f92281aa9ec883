package ledgers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/loomledger/loomledger/internal/accounting/shared"
	"github.com/loomledger/loomledger/internal/tenant"
)

type lineTotals struct {
	debit  float64
	credit float64
	count  int64
}

type memoryLedgerRepo struct {
	accounts map[int64]*LedgerAccount
	groups   map[string]int64
	totals   map[int64]lineTotals
	cached   map[int64]Balance
	nextID   int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		accounts: make(map[int64]*LedgerAccount),
		groups:   make(map[string]int64),
		totals:   make(map[int64]lineTotals),
		cached:   make(map[int64]Balance),
	}
}

func (r *memoryLedgerRepo) addGroup(name string) {
	r.nextID++
	r.groups[name] = r.nextID
}

func (r *memoryLedgerRepo) Get(ctx context.Context, scope tenant.Scope, id int64) (*LedgerAccount, error) {
	account, ok := r.accounts[id]
	if !ok || account.CompanyID != scope.CompanyID {
		return nil, nil
	}
	return account, nil
}

func (r *memoryLedgerRepo) FindByPartner(ctx context.Context, scope tenant.Scope, partnerID uuid.UUID) (*LedgerAccount, error) {
	for _, account := range r.accounts {
		if account.CompanyID == scope.CompanyID && account.PartnerID != nil && *account.PartnerID == partnerID {
			return account, nil
		}
	}
	return nil, nil
}

func (r *memoryLedgerRepo) FindSystemByName(ctx context.Context, scope tenant.Scope, name string) (*LedgerAccount, error) {
	for _, account := range r.accounts {
		if account.CompanyID == scope.CompanyID && account.IsSystemLedger && account.Name == name {
			return account, nil
		}
	}
	return nil, nil
}

func (r *memoryLedgerRepo) FindGroupIDByName(ctx context.Context, scope tenant.Scope, name string) (int64, error) {
	return r.groups[name], nil
}

func (r *memoryLedgerRepo) Insert(ctx context.Context, scope tenant.Scope, account LedgerAccount) (*LedgerAccount, error) {
	r.nextID++
	account.ID = r.nextID
	account.CompanyID = scope.CompanyID
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = &account
	return &account, nil
}

func (r *memoryLedgerRepo) LineTotals(ctx context.Context, scope tenant.Scope, ledgerID int64) (float64, float64, int64, error) {
	t := r.totals[ledgerID]
	return t.debit, t.credit, t.count, nil
}

func (r *memoryLedgerRepo) ListIDs(ctx context.Context, scope tenant.Scope) ([]int64, error) {
	var ids []int64
	for id, account := range r.accounts {
		if account.CompanyID == scope.CompanyID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memoryLedgerRepo) UpdateCachedBalance(ctx context.Context, scope tenant.Scope, id int64, balance Balance) error {
	r.cached[id] = balance
	return nil
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addGroup(GroupSundryDebtors)
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}
	partner := PartnerRef{ID: uuid.New(), Type: PartnerCustomer, Name: "Shree Textiles"}

	first, err := svc.GetOrCreate(context.Background(), scope, partner)
	require.NoError(t, err)
	require.Equal(t, AccountTypeAsset, first.Type)
	require.Equal(t, SideDebit, first.BalanceSide)
	require.Equal(t, "Shree Textiles", first.Name)

	// a second call returns the same ledger, even with a changed name
	partner.Name = "Shree Textiles Pvt Ltd"
	second, err := svc.GetOrCreate(context.Background(), scope, partner)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Shree Textiles", second.Name)
	require.Len(t, repo.accounts, 1)
}

func TestGetOrCreateSupplierUsesCreditors(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addGroup(GroupSundryCreditors)
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}

	ledger, err := svc.GetOrCreate(context.Background(), scope, PartnerRef{
		ID:   uuid.New(),
		Type: PartnerSupplier,
		Name: "Gujarat Yarn Mills",
	})
	require.NoError(t, err)
	require.Equal(t, AccountTypeLiability, ledger.Type)
	require.Equal(t, SideCredit, ledger.BalanceSide)
	require.Equal(t, repo.groups[GroupSundryCreditors], ledger.AccountGroupID)
}

func TestGetOrCreateFailsWithoutSeededGroup(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo)
	scope := tenant.Scope{CompanyID: uuid.New()}

	_, err := svc.GetOrCreate(context.Background(), scope, PartnerRef{
		ID:   uuid.New(),
		Type: PartnerCustomer,
		Name: "Shree Textiles",
	})
	var configErr *shared.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	require.Equal(t, GroupSundryDebtors, configErr.Missing)
}

func TestBalanceReplay(t *testing.T) {
	cases := []struct {
		name        string
		accountType AccountType
		debit       float64
		credit      float64
		count       int64
		wantAmount  float64
		wantSide    BalanceSide
	}{
		{"asset net debit", AccountTypeAsset, 500, 200, 4, 300, SideDebit},
		{"asset overpaid flips to credit", AccountTypeAsset, 200, 500, 4, 300, SideCredit},
		{"liability net credit", AccountTypeLiability, 200, 500, 4, 300, SideCredit},
		{"liability flips to debit", AccountTypeLiability, 500, 200, 4, 300, SideDebit},
		{"income net credit", AccountTypeIncome, 0, 1000, 2, 1000, SideCredit},
		{"expense net debit", AccountTypeExpense, 750, 0, 3, 750, SideDebit},
		{"no history asset sits at natural zero", AccountTypeAsset, 0, 0, 0, 0, SideDebit},
		{"no history income sits at natural zero", AccountTypeIncome, 0, 0, 0, 0, SideCredit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryLedgerRepo()
			svc := NewService(repo)
			scope := tenant.Scope{CompanyID: uuid.New()}
			account, err := repo.Insert(context.Background(), scope, LedgerAccount{
				Name:        "Test Ledger",
				Type:        tc.accountType,
				BalanceSide: tc.accountType.NaturalSide(),
			})
			require.NoError(t, err)
			repo.totals[account.ID] = lineTotals{debit: tc.debit, credit: tc.credit, count: tc.count}

			balance, err := svc.Balance(context.Background(), scope, account.ID)
			require.NoError(t, err)
			require.Equal(t, tc.wantAmount, balance.Amount)
			require.Equal(t, tc.wantSide, balance.Side)
		})
	}
}

func TestBalanceUnknownLedger(t *testing.T) {
	svc := NewService(newMemoryLedgerRepo())
	_, err := svc.Balance(context.Background(), tenant.Scope{CompanyID: uuid.New()}, 99)
	require.ErrorIs(t, err, shared.ErrLedgerNotFound)
}
