package ledgers

import (
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates the ledger categories the books use.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// BalanceSide is the side of the ledger a balance sits on.
type BalanceSide string

const (
	SideDebit  BalanceSide = "debit"
	SideCredit BalanceSide = "credit"
)

// NaturalSide returns the side that increases an account of this type.
func (t AccountType) NaturalSide() BalanceSide {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return SideDebit
	}
	return SideCredit
}

// PartnerType distinguishes receivable from payable partners.
type PartnerType string

const (
	PartnerCustomer PartnerType = "customer"
	PartnerSupplier PartnerType = "supplier"
)

// LedgerAccount is one node of a company's chart of accounts. Partner
// ledgers are created lazily on first transaction and never deleted.
// CurrentBalance is an advisory cache maintained by the balance refresh
// job; truth is always the journal line history.
type LedgerAccount struct {
	ID             int64
	CompanyID      uuid.UUID
	Name           string
	AccountGroupID int64
	Type           AccountType
	BalanceSide    BalanceSide
	PartnerID      *uuid.UUID
	IsSystemLedger bool
	CurrentBalance float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Balance is a replayed ledger balance: always non-negative, with the
// side it falls on.
type Balance struct {
	Amount float64     `json:"balance"`
	Side   BalanceSide `json:"balance_type"`
}

// PartnerRef identifies the partner a receivable or payable ledger
// belongs to.
type PartnerRef struct {
	ID   uuid.UUID
	Type PartnerType
	Name string
}

// Fixed account group names the chart-of-accounts seed creates per
// company. Partner ledgers hang off these.
const (
	GroupSundryDebtors   = "Sundry Debtors"
	GroupSundryCreditors = "Sundry Creditors"
)
