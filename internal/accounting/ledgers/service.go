package ledgers

import (
	"context"
	"math"

	"github.com/loomledger/loomledger/internal/accounting/shared"
	"github.com/loomledger/loomledger/internal/tenant"
)

// Service resolves partner ledgers and derives balances from journal
// history. Balances are never mutated directly; the full line history
// is the only ground truth.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetOrCreate returns the company's ledger for a partner, creating it
// on first use. Resolution is idempotent: an existing ledger is
// returned unchanged even when the partner name has since diverged
// from the stored ledger name.
func (s *Service) GetOrCreate(ctx context.Context, scope tenant.Scope, partner PartnerRef) (*LedgerAccount, error) {
	existing, err := s.repo.FindByPartner(ctx, scope, partner.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	groupName := GroupSundryDebtors
	accountType := AccountTypeAsset
	if partner.Type == PartnerSupplier {
		groupName = GroupSundryCreditors
		accountType = AccountTypeLiability
	}
	groupID, err := s.repo.FindGroupIDByName(ctx, scope, groupName)
	if err != nil {
		return nil, err
	}
	if groupID == 0 {
		return nil, shared.NewConfigurationError(groupName)
	}

	partnerID := partner.ID
	return s.repo.Insert(ctx, scope, LedgerAccount{
		Name:           partner.Name,
		AccountGroupID: groupID,
		Type:           accountType,
		BalanceSide:    accountType.NaturalSide(),
		PartnerID:      &partnerID,
	})
}

// SystemLedger looks up a fixed chart-of-accounts ledger by name.
// Returns nil when the company has no ledger of that name; callers
// decide whether that is fatal.
func (s *Service) SystemLedger(ctx context.Context, scope tenant.Scope, name string) (*LedgerAccount, error) {
	return s.repo.FindSystemByName(ctx, scope, name)
}

// Balance replays the ledger's full posting history. A ledger with no
// lines sits at zero on its natural side; otherwise the net of debits
// and credits determines both magnitude and side.
func (s *Service) Balance(ctx context.Context, scope tenant.Scope, ledgerID int64) (Balance, error) {
	account, err := s.repo.Get(ctx, scope, ledgerID)
	if err != nil {
		return Balance{}, err
	}
	if account == nil {
		return Balance{}, shared.ErrLedgerNotFound
	}

	debit, credit, count, err := s.repo.LineTotals(ctx, scope, ledgerID)
	if err != nil {
		return Balance{}, err
	}
	if count == 0 {
		return Balance{Amount: 0, Side: account.Type.NaturalSide()}, nil
	}

	var net float64
	var side BalanceSide
	switch account.Type {
	case AccountTypeAsset, AccountTypeExpense:
		net = debit - credit
		side = SideDebit
		if net < 0 {
			side = SideCredit
		}
	default:
		net = credit - debit
		side = SideCredit
		if net < 0 {
			side = SideDebit
		}
	}
	return Balance{Amount: math.Abs(net), Side: side}, nil
}
