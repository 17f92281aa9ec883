package posting

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/loomledger/loomledger/internal/accounting/gst"
	"github.com/loomledger/loomledger/internal/accounting/journals"
	"github.com/loomledger/loomledger/internal/accounting/ledgers"
	"github.com/loomledger/loomledger/internal/accounting/shared"
	"github.com/loomledger/loomledger/internal/inventory"
	"github.com/loomledger/loomledger/internal/partners"
	"github.com/loomledger/loomledger/internal/tenant"
)

// LedgerResolver is the slice of the ledger manager the mapper needs.
type LedgerResolver interface {
	GetOrCreate(ctx context.Context, scope tenant.Scope, partner ledgers.PartnerRef) (*ledgers.LedgerAccount, error)
	SystemLedger(ctx context.Context, scope tenant.Scope, name string) (*ledgers.LedgerAccount, error)
}

// JournalPoster is the slice of the journal engine the mapper needs.
type JournalPoster interface {
	Create(ctx context.Context, scope tenant.Scope, in journals.CreateInput) (*journals.JournalEntry, error)
}

// Notifier is told after every successful posting so caches and the
// denormalized balance columns can be refreshed. Best-effort: posting
// success never depends on it.
type Notifier interface {
	JournalPosted(ctx context.Context, scope tenant.Scope)
}

// Service translates business events into balanced journal entries by
// composing the ledger manager, the GST calculator and the journal
// engine.
type Service struct {
	logger   *slog.Logger
	ledgers  LedgerResolver
	journals JournalPoster
	partners partners.Repository
	costs    inventory.CostRepository
	rates    gst.RateProvider
	notifier Notifier
}

func NewService(logger *slog.Logger, ledgerSvc LedgerResolver, journalSvc JournalPoster, partnerRepo partners.Repository, costRepo inventory.CostRepository, rates gst.RateProvider) *Service {
	return &Service{
		logger:   logger,
		ledgers:  ledgerSvc,
		journals: journalSvc,
		partners: partnerRepo,
		costs:    costRepo,
		rates:    rates,
	}
}

// WithNotifier attaches a post-commit notifier.
func (s *Service) WithNotifier(n Notifier) {
	s.notifier = n
}

// EnrichItemGST fills the tax fields of one invoice item. When rate is
// nil the company's configured default applies.
func (s *Service) EnrichItemGST(ctx context.Context, scope tenant.Scope, item InvoiceItem, customerState, companyState string, rate *float64) (InvoiceItem, error) {
	item.TaxableAmount = item.Quantity*item.UnitRate - item.DiscountAmount

	ratePercent := float64(gst.DefaultRatePercent)
	if rate != nil {
		ratePercent = *rate
	} else if s.rates != nil {
		resolved, err := s.rates.Rate(ctx, scope)
		if err != nil {
			return InvoiceItem{}, err
		}
		ratePercent = resolved
	}

	split := gst.Calculate(item.TaxableAmount, customerState, companyState, ratePercent)
	item.CGSTAmount = split.CGST
	item.SGSTAmount = split.SGST
	item.IGSTAmount = split.IGST
	// Rate fields follow the regime, not the rounded amounts: a fully
	// discounted inter-state line carries zero IGST but is still an
	// IGST-regime line.
	if customerState == companyState {
		item.CGSTRate = ratePercent / 2
		item.SGSTRate = ratePercent / 2
	} else {
		item.IGSTRate = ratePercent
	}
	item.LineTotal = item.TaxableAmount + split.TotalGST
	return item, nil
}

// PostInvoice records a finalized invoice: the customer ledger is
// debited for the grand total and Sales plus the applicable tax output
// ledgers are credited.
func (s *Service) PostInvoice(ctx context.Context, scope tenant.Scope, in InvoiceInput) (*journals.JournalEntry, error) {
	customer, err := s.partners.Get(ctx, scope, in.CustomerID)
	if err != nil {
		return nil, err
	}
	customerLedger, err := s.ledgers.GetOrCreate(ctx, scope, ledgers.PartnerRef{
		ID:   customer.ID,
		Type: ledgers.PartnerCustomer,
		Name: customer.DisplayName(),
	})
	if err != nil {
		return nil, err
	}

	salesLedger, err := s.requireSystemLedger(ctx, scope, LedgerSales)
	if err != nil {
		return nil, err
	}

	lines := []journals.LineInput{{
		LedgerAccountID: customerLedger.ID,
		DebitAmount:     in.Totals.TotalAmount,
		BillReference:   in.InvoiceNumber,
	}, {
		LedgerAccountID: salesLedger.ID,
		CreditAmount:    in.Totals.TaxableAmount,
	}}
	taxLines, err := s.taxOutputLines(ctx, scope, in.Totals, false)
	if err != nil {
		return nil, err
	}
	lines = append(lines, taxLines...)

	entry, err := s.journals.Create(ctx, scope, journals.CreateInput{
		Type:          journals.TransactionInvoice,
		TransactionID: in.InvoiceID,
		Date:          in.InvoiceDate,
		Narration:     fmt.Sprintf("Invoice %s", in.InvoiceNumber),
		CreatedBy:     in.UserID,
		Lines:         lines,
	})
	if err != nil {
		return nil, err
	}
	s.notifyPosted(ctx, scope)
	s.logger.Info("invoice posted",
		slog.String("invoice", in.InvoiceNumber),
		slog.String("entry_number", entry.EntryNumber),
		slog.Float64("total", in.Totals.TotalAmount),
	)
	return entry, nil
}

// PostCOGS recognises cost of goods sold for the dispatch backing an
// invoice. Dispatches with no items or zero-cost goods generate no
// entry and return nil without error.
func (s *Service) PostCOGS(ctx context.Context, scope tenant.Scope, in COGSInput) (*journals.JournalEntry, error) {
	cost, err := s.costs.DispatchCost(ctx, scope, in.DispatchID)
	if err != nil {
		return nil, err
	}
	if cost.ItemCount == 0 || cost.TotalCost == 0 {
		s.logger.Debug("skipping cogs entry",
			slog.String("invoice", in.InvoiceNumber),
			slog.Int64("items", cost.ItemCount),
		)
		return nil, nil
	}

	cogsLedger, err := s.requireSystemLedger(ctx, scope, LedgerCOGS)
	if err != nil {
		return nil, err
	}
	inventoryLedger, err := s.requireSystemLedger(ctx, scope, LedgerInventory)
	if err != nil {
		return nil, err
	}

	entry, err := s.journals.Create(ctx, scope, journals.CreateInput{
		Type:          journals.TransactionInvoice,
		TransactionID: in.InvoiceID,
		Date:          in.InvoiceDate,
		Narration:     fmt.Sprintf("COGS for Invoice %s", in.InvoiceNumber),
		CreatedBy:     in.UserID,
		Lines: []journals.LineInput{
			{LedgerAccountID: cogsLedger.ID, DebitAmount: cost.TotalCost},
			{LedgerAccountID: inventoryLedger.ID, CreditAmount: cost.TotalCost},
		},
	})
	if err != nil {
		return nil, err
	}
	s.notifyPosted(ctx, scope)
	return entry, nil
}

// PostCreditNote reverses an invoice posting in full: every side of
// the original entry flips, magnitudes preserved. Totals stored
// upstream may carry either sign, so all amounts pass through Abs
// rather than requiring callers to pre-normalise.
func (s *Service) PostCreditNote(ctx context.Context, scope tenant.Scope, in CreditNoteInput) (*journals.JournalEntry, error) {
	customer, err := s.partners.Get(ctx, scope, in.CustomerID)
	if err != nil {
		return nil, err
	}
	customerLedger, err := s.ledgers.GetOrCreate(ctx, scope, ledgers.PartnerRef{
		ID:   customer.ID,
		Type: ledgers.PartnerCustomer,
		Name: customer.DisplayName(),
	})
	if err != nil {
		return nil, err
	}
	salesLedger, err := s.requireSystemLedger(ctx, scope, LedgerSales)
	if err != nil {
		return nil, err
	}

	totals := absTotals(in.Totals)
	lines := []journals.LineInput{{
		LedgerAccountID: salesLedger.ID,
		DebitAmount:     totals.TaxableAmount,
	}}
	taxLines, err := s.taxOutputLines(ctx, scope, totals, true)
	if err != nil {
		return nil, err
	}
	lines = append(lines, taxLines...)
	lines = append(lines, journals.LineInput{
		LedgerAccountID: customerLedger.ID,
		CreditAmount:    totals.TotalAmount,
		BillReference:   in.CreditNoteNumber,
	})

	entry, err := s.journals.Create(ctx, scope, journals.CreateInput{
		Type:          journals.TransactionInvoice,
		TransactionID: in.CreditNoteID,
		Date:          in.CreditNoteDate,
		Narration:     fmt.Sprintf("Credit Note %s", in.CreditNoteNumber),
		CreatedBy:     in.UserID,
		Lines:         lines,
	})
	if err != nil {
		return nil, err
	}
	s.notifyPosted(ctx, scope)
	s.logger.Info("credit note posted",
		slog.String("credit_note", in.CreditNoteNumber),
		slog.String("entry_number", entry.EntryNumber),
	)
	return entry, nil
}

// taxOutputLines builds one line per nonzero tax component. The output
// ledgers are optional seed objects, but a nonzero amount with no
// ledger to post it to would unbalance the entry, so that case is a
// configuration error.
func (s *Service) taxOutputLines(ctx context.Context, scope tenant.Scope, totals Totals, debitSide bool) ([]journals.LineInput, error) {
	components := []struct {
		ledgerName string
		amount     float64
	}{
		{LedgerCGSTOutput, totals.CGSTAmount},
		{LedgerSGSTOutput, totals.SGSTAmount},
		{LedgerIGSTOutput, totals.IGSTAmount},
	}
	var lines []journals.LineInput
	for _, c := range components {
		if c.amount == 0 {
			continue
		}
		ledger, err := s.requireSystemLedger(ctx, scope, c.ledgerName)
		if err != nil {
			return nil, err
		}
		line := journals.LineInput{LedgerAccountID: ledger.ID}
		if debitSide {
			line.DebitAmount = c.amount
		} else {
			line.CreditAmount = c.amount
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) requireSystemLedger(ctx context.Context, scope tenant.Scope, name string) (*ledgers.LedgerAccount, error) {
	ledger, err := s.ledgers.SystemLedger(ctx, scope, name)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, shared.NewConfigurationError(name)
	}
	return ledger, nil
}

func (s *Service) notifyPosted(ctx context.Context, scope tenant.Scope) {
	if s.notifier != nil {
		s.notifier.JournalPosted(ctx, scope)
	}
}

func absTotals(t Totals) Totals {
	return Totals{
		Subtotal:      math.Abs(t.Subtotal),
		TotalDiscount: math.Abs(t.TotalDiscount),
		TaxableAmount: math.Abs(t.TaxableAmount),
		CGSTAmount:    math.Abs(t.CGSTAmount),
		SGSTAmount:    math.Abs(t.SGSTAmount),
		IGSTAmount:    math.Abs(t.IGSTAmount),
		GSTAmount:     math.Abs(t.GSTAmount),
		TotalAmount:   math.Abs(t.TotalAmount),
	}
}
