package journals

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType names the business event behind a journal entry.
type TransactionType string

const (
	TransactionInvoice         TransactionType = "invoice"
	TransactionPurchaseInvoice TransactionType = "purchase_invoice"
	TransactionPaymentReceived TransactionType = "payment_received"
	TransactionPaymentMade     TransactionType = "payment_made"
)

// JournalEntry is the atomic transaction record: one per business
// event, immutable once created. Corrections are posted as new
// reversing entries, never edited in place.
type JournalEntry struct {
	ID              int64           `json:"id"`
	CompanyID       uuid.UUID       `json:"company_id"`
	EntryNumber     string          `json:"entry_number"`
	TransactionType TransactionType `json:"transaction_type"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	EntryDate       time.Time       `json:"entry_date"`
	Narration       string          `json:"narration"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	Lines           []Line          `json:"lines,omitempty"`
}

// Line is one debit-or-credit posting against one ledger account.
type Line struct {
	ID              int64     `json:"id"`
	JournalEntryID  int64     `json:"journal_entry_id"`
	CompanyID       uuid.UUID `json:"company_id"`
	LedgerAccountID int64     `json:"ledger_account_id"`
	DebitAmount     float64   `json:"debit_amount"`
	CreditAmount    float64   `json:"credit_amount"`
	BillReference   string    `json:"bill_reference,omitempty"`
}
