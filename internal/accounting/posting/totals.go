package posting

// CalculateTotals aggregates invoice items into the derived totals.
// Item-level discounts reduce each line's taxable base before tax; the
// invoice-level discount reduces the aggregate taxable amount only, so
// item tax figures are left untouched. The adjustment lands on the
// grand total after tax.
func CalculateTotals(items []InvoiceItem, invoiceDiscount, adjustment float64) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal += item.Quantity * item.UnitRate
		t.TotalDiscount += item.DiscountAmount
		t.CGSTAmount += item.CGSTAmount
		t.SGSTAmount += item.SGSTAmount
		t.IGSTAmount += item.IGSTAmount
	}
	t.TotalDiscount += invoiceDiscount
	t.TaxableAmount = t.Subtotal - t.TotalDiscount
	t.GSTAmount = t.CGSTAmount + t.SGSTAmount + t.IGSTAmount
	t.TotalAmount = t.TaxableAmount + t.GSTAmount + adjustment
	return t
}
