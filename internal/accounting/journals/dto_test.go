package journals

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomledger/loomledger/internal/accounting/shared"
)

func TestValidateDoubleEntryBalanced(t *testing.T) {
	lines := []LineInput{
		{LedgerAccountID: 1, DebitAmount: 11800},
		{LedgerAccountID: 2, CreditAmount: 10000},
		{LedgerAccountID: 3, CreditAmount: 900},
		{LedgerAccountID: 4, CreditAmount: 900},
	}
	v := ValidateDoubleEntry(lines)
	require.True(t, v.Valid)
	require.Equal(t, float64(11800), v.TotalDebit)
	require.Equal(t, float64(11800), v.TotalCredit)
	require.Equal(t, float64(0), v.Difference)
	require.NoError(t, v.Err())
}

func TestValidateDoubleEntryUnbalanced(t *testing.T) {
	lines := []LineInput{
		{LedgerAccountID: 1, DebitAmount: 100},
		{LedgerAccountID: 2, CreditAmount: 50},
	}
	v := ValidateDoubleEntry(lines)
	require.False(t, v.Valid)
	require.Equal(t, float64(50), v.Difference)

	var balanceErr *shared.BalanceError
	require.ErrorAs(t, v.Err(), &balanceErr)
	require.Equal(t, float64(100), balanceErr.TotalDebit)
	require.Equal(t, float64(50), balanceErr.TotalCredit)
	require.Equal(t, float64(50), balanceErr.Difference)
}

func TestValidateDoubleEntryTolerance(t *testing.T) {
	// sub-paisa drift from float arithmetic must pass
	v := ValidateDoubleEntry([]LineInput{
		{LedgerAccountID: 1, DebitAmount: 100.004},
		{LedgerAccountID: 2, CreditAmount: 100.00},
	})
	require.True(t, v.Valid)

	// a full paisa of drift must not
	v = ValidateDoubleEntry([]LineInput{
		{LedgerAccountID: 1, DebitAmount: 100.01},
		{LedgerAccountID: 2, CreditAmount: 100.00},
	})
	require.False(t, v.Valid)
}

func TestCreateInputValidate(t *testing.T) {
	base := CreateInput{
		Type: TransactionInvoice,
		Lines: []LineInput{
			{LedgerAccountID: 1, DebitAmount: 100},
			{LedgerAccountID: 2, CreditAmount: 100},
		},
	}
	require.NoError(t, base.Validate())

	tooFew := base
	tooFew.Lines = base.Lines[:1]
	require.ErrorIs(t, tooFew.Validate(), shared.ErrTooFewLines)

	bothSides := base
	bothSides.Lines = []LineInput{
		{LedgerAccountID: 1, DebitAmount: 100, CreditAmount: 100},
		{LedgerAccountID: 2, CreditAmount: 100},
	}
	require.Error(t, bothSides.Validate())

	negative := base
	negative.Lines = []LineInput{
		{LedgerAccountID: 1, DebitAmount: -100},
		{LedgerAccountID: 2, CreditAmount: -100},
	}
	require.Error(t, negative.Validate())

	noLedger := base
	noLedger.Lines = []LineInput{
		{DebitAmount: 100},
		{LedgerAccountID: 2, CreditAmount: 100},
	}
	require.Error(t, noLedger.Validate())
}

func TestFormatEntryNumber(t *testing.T) {
	require.Equal(t, "JE-2025-0001", FormatEntryNumber(2025, 1))
	require.Equal(t, "JE-2025-0042", FormatEntryNumber(2025, 42))
	require.Equal(t, "JE-2026-9999", FormatEntryNumber(2026, 9999))
	// the sequence keeps counting past four digits rather than wrapping
	require.Equal(t, "JE-2026-10000", FormatEntryNumber(2026, 10000))
}
