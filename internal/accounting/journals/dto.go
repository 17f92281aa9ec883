package journals

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/loomledger/loomledger/internal/accounting/shared"
)

// BalanceTolerance absorbs float rounding when comparing the two sides
// of an entry. Anything at or above a paisa of drift is a real
// imbalance.
const BalanceTolerance = 0.01

// LineInput describes one posting line for entry creation.
type LineInput struct {
	LedgerAccountID int64
	DebitAmount     float64
	CreditAmount    float64
	BillReference   string
}

// CreateInput groups the fields required to post a journal entry.
type CreateInput struct {
	Type          TransactionType
	TransactionID uuid.UUID
	Date          time.Time
	Narration     string
	CreatedBy     uuid.UUID
	Lines         []LineInput
}

// Validate checks structural sanity of the posting request. Balance is
// checked separately by ValidateDoubleEntry so its totals can be
// reported to the caller.
func (in CreateInput) Validate() error {
	if in.Type == "" {
		return errors.New("accounting: transaction type required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	for idx, line := range in.Lines {
		if line.LedgerAccountID == 0 {
			return fmt.Errorf("accounting: line %d missing ledger account", idx)
		}
		if line.DebitAmount < 0 || line.CreditAmount < 0 {
			return fmt.Errorf("accounting: line %d negative amount", idx)
		}
		if line.DebitAmount > 0 && line.CreditAmount > 0 {
			return fmt.Errorf("accounting: line %d cannot be both debit and credit", idx)
		}
	}
	return nil
}

// Validation is the result of the double-entry check, carrying the
// computed totals for caller diagnostics.
type Validation struct {
	Valid       bool    `json:"valid"`
	TotalDebit  float64 `json:"total_debit"`
	TotalCredit float64 `json:"total_credit"`
	Difference  float64 `json:"difference"`
}

// Err returns the balance error for an invalid result, nil otherwise.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	return &shared.BalanceError{
		TotalDebit:  v.TotalDebit,
		TotalCredit: v.TotalCredit,
		Difference:  v.Difference,
	}
}

// ValidateDoubleEntry sums both sides of the line set. Pure, no I/O.
func ValidateDoubleEntry(lines []LineInput) Validation {
	var debit, credit float64
	for _, line := range lines {
		debit += line.DebitAmount
		credit += line.CreditAmount
	}
	diff := math.Abs(debit - credit)
	return Validation{
		Valid:       diff < BalanceTolerance,
		TotalDebit:  debit,
		TotalCredit: credit,
		Difference:  diff,
	}
}
