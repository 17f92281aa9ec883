package gst

import "math"

// DefaultRatePercent applies when a company has no configured rate.
const DefaultRatePercent = 18

// Breakdown is the tax split for one taxable amount. Amounts are in
// whole currency units; the round-to-rupee policy of the source books
// must be preserved for statement parity.
type Breakdown struct {
	CGST        float64 `json:"cgst"`
	SGST        float64 `json:"sgst"`
	IGST        float64 `json:"igst"`
	TotalGST    float64 `json:"total_gst"`
	TotalAmount float64 `json:"total_amount"`
}

// Calculate splits GST for a taxable amount. A sale within the
// company's own state is taxed half CGST, half SGST; a sale across
// state lines is taxed IGST at the full rate. The two halves are
// rounded independently, so on odd amounts they need not sum to the
// rounded full-rate figure. That matches the books this system
// replaces and is deliberate.
func Calculate(amount float64, customerState, companyState string, ratePercent float64) Breakdown {
	var b Breakdown
	if customerState == companyState {
		half := math.Round(amount * (ratePercent / 2) / 100)
		b.CGST = half
		b.SGST = half
	} else {
		b.IGST = math.Round(amount * ratePercent / 100)
	}
	b.TotalGST = b.CGST + b.SGST + b.IGST
	b.TotalAmount = amount + b.TotalGST
	return b
}
