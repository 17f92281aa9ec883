package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrLedgerNotFound indicates a missing ledger account.
	ErrLedgerNotFound = errors.New("accounting: ledger account not found")
	// ErrJournalNotFound indicates a missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrPartnerNotFound indicates a missing customer or supplier.
	ErrPartnerNotFound = errors.New("accounting: partner not found")
	// ErrDuplicateEntryNumber indicates the entry-number unique backstop fired.
	ErrDuplicateEntryNumber = errors.New("accounting: duplicate journal entry number")
)

// ConfigurationError reports a missing chart-of-accounts precondition:
// a system ledger or account group the seed step was expected to have
// created for the company. Not retryable.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("accounting: required ledger %q is not configured for this company", e.Missing)
}

// NewConfigurationError wraps the name of the missing seed object.
func NewConfigurationError(missing string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}

// BalanceError carries the totals computed during double-entry
// validation so callers can report what failed to balance.
type BalanceError struct {
	TotalDebit  float64
	TotalCredit float64
	Difference  float64
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("accounting: journal entry does not balance: debits %.2f, credits %.2f, difference %.2f",
		e.TotalDebit, e.TotalCredit, e.Difference)
}
