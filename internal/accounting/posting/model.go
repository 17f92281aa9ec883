package posting

import (
	"time"

	"github.com/google/uuid"
)

// Fixed system ledger names the posting layer resolves per company.
// Seeding these is a precondition of the chart-of-accounts setup; the
// core never creates them.
const (
	LedgerSales      = "Sales"
	LedgerCGSTOutput = "CGST Output"
	LedgerSGSTOutput = "SGST Output"
	LedgerIGSTOutput = "IGST Output"
	LedgerCOGS       = "Cost of Goods Sold"
	LedgerInventory  = "Inventory"
)

// InvoiceItem is one product line of an invoice, enriched with its tax
// split. Rates are recorded as zero for the tax types that do not
// apply to the line.
type InvoiceItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       float64   `json:"quantity"`
	UnitRate       float64   `json:"unit_rate"`
	DiscountAmount float64   `json:"discount_amount"`
	TaxableAmount  float64   `json:"taxable_amount"`
	CGSTRate       float64   `json:"cgst_rate"`
	CGSTAmount     float64   `json:"cgst_amount"`
	SGSTRate       float64   `json:"sgst_rate"`
	SGSTAmount     float64   `json:"sgst_amount"`
	IGSTRate       float64   `json:"igst_rate"`
	IGSTAmount     float64   `json:"igst_amount"`
	LineTotal      float64   `json:"line_total"`
}

// Totals is the derived invoice aggregate. Never persisted; computed
// fresh from items every time it is needed.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"total_discount"`
	TaxableAmount float64 `json:"taxable_amount"`
	CGSTAmount    float64 `json:"cgst_amount"`
	SGSTAmount    float64 `json:"sgst_amount"`
	IGSTAmount    float64 `json:"igst_amount"`
	GSTAmount     float64 `json:"gst_amount"`
	TotalAmount   float64 `json:"total_amount"`
}

// InvoiceInput carries a finalized invoice into the journal.
type InvoiceInput struct {
	InvoiceID     uuid.UUID
	CustomerID    uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time
	Totals        Totals
	UserID        uuid.UUID
}

// COGSInput carries a dispatch-backed cost recognition request.
type COGSInput struct {
	InvoiceID     uuid.UUID
	DispatchID    uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time
	UserID        uuid.UUID
}

// CreditNoteInput carries a credit note reversal request. Totals may
// arrive with either sign; the mapper normalises magnitudes itself.
type CreditNoteInput struct {
	CreditNoteID     uuid.UUID
	CustomerID       uuid.UUID
	CreditNoteNumber string
	CreditNoteDate   time.Time
	Totals           Totals
	UserID           uuid.UUID
}
