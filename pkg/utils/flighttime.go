package utils

import (
	"math"
)

const (
	// DefaultTaxRate is the organization tax rate applied to invoices
	// when the organization has none configured
	DefaultTaxRate = 0.15

	// InvoiceDueDays is the grace period added to the invoice date
	InvoiceDueDays = 14

	// DiscrepancyThresholdPct is the tacho/hobbs percentage difference
	// above which a warning is raised
	DiscrepancyThresholdPct = 10.0
)

// FlightTimeResult contains the elapsed instrument times and the billable
// outcome for one flight
type FlightTimeResult struct {
	TachoElapsed   *float64 `json:"tachoElapsed,omitempty"`
	HobbsElapsed   *float64 `json:"hobbsElapsed,omitempty"`
	BillableHours  *float64 `json:"billableHours,omitempty"`
	TimeWarning    bool     `json:"timeWarning"`
	DiscrepancyPct float64  `json:"discrepancyPct"`
}

// ElapsedTime computes end - start rounded to 2 decimal places. The second
// return value is false when the pair is not yet computable: a negative
// reading, or end before start. That case is not an error, the caller just
// has nothing to display.
func ElapsedTime(start, end float64) (float64, bool) {
	if start < 0 || end < 0 || end < start {
		return 0, false
	}
	return Round2(end - start), true
}

// TimeDiscrepancyPct returns the percentage difference between the two
// instruments relative to their average.
func TimeDiscrepancyPct(tachoElapsed, hobbsElapsed float64) float64 {
	avg := (tachoElapsed + hobbsElapsed) / 2
	if avg == 0 {
		return 0
	}
	return math.Abs(tachoElapsed-hobbsElapsed) / avg * 100
}

// HasTimeDiscrepancy reports whether the tacho and hobbs elapsed times
// disagree by more than the threshold. Advisory only, never blocks check-in.
func HasTimeDiscrepancy(tachoElapsed, hobbsElapsed float64) bool {
	return TimeDiscrepancyPct(tachoElapsed, hobbsElapsed) > DiscrepancyThresholdPct
}

// BillableHours selects the elapsed time of the aircraft's billing
// instrument. Returns false when neither instrument is configured or the
// configured instrument's elapsed time is unavailable; charging must not
// silently fall back to zero.
func BillableHours(recordTacho, recordHobbs bool, tachoElapsed, hobbsElapsed *float64) (float64, bool) {
	if recordTacho {
		if tachoElapsed == nil {
			return 0, false
		}
		return *tachoElapsed, true
	}
	if recordHobbs {
		if hobbsElapsed == nil {
			return 0, false
		}
		return *hobbsElapsed, true
	}
	return 0, false
}

// FlightCharge is billable hours times the hourly rate, rounded to 2 decimal
// places.
func FlightCharge(hours, rate float64) float64 {
	return Round2(hours * rate)
}

// CalculateFlightTimes computes both elapsed times from raw readings and
// flags an instrument discrepancy when both are available.
func CalculateFlightTimes(startTacho, endTacho, startHobbs, endHobbs float64) FlightTimeResult {
	var result FlightTimeResult

	if tacho, ok := ElapsedTime(startTacho, endTacho); ok {
		result.TachoElapsed = &tacho
	}
	if hobbs, ok := ElapsedTime(startHobbs, endHobbs); ok {
		result.HobbsElapsed = &hobbs
	}

	if result.TachoElapsed != nil && result.HobbsElapsed != nil {
		result.DiscrepancyPct = TimeDiscrepancyPct(*result.TachoElapsed, *result.HobbsElapsed)
		result.TimeWarning = result.DiscrepancyPct > DiscrepancyThresholdPct
	}

	return result
}

// InvoiceItemInput is the quantity/price/tax tuple invoice math works on
type InvoiceItemInput struct {
	Quantity  float64
	UnitPrice float64
	TaxRate   float64
}

// InvoiceTotals is the aggregated invoice breakdown
type InvoiceTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ItemSubtotal is quantity times unit price, before tax.
func ItemSubtotal(item InvoiceItemInput) float64 {
	return Round2(item.Quantity * item.UnitPrice)
}

// ItemTax is the tax portion of one item.
func ItemTax(item InvoiceItemInput) float64 {
	return Round2(ItemSubtotal(item) * item.TaxRate)
}

// ItemTotal is the tax-inclusive total of one item.
func ItemTotal(item InvoiceItemInput) float64 {
	return Round2(ItemSubtotal(item) + ItemTax(item))
}

// CalculateInvoiceTotals sums item subtotals and tax into the invoice
// breakdown. total = subtotal + tax always holds.
func CalculateInvoiceTotals(items []InvoiceItemInput) InvoiceTotals {
	var subtotal, tax float64
	for _, item := range items {
		subtotal += ItemSubtotal(item)
		tax += ItemTax(item)
	}
	subtotal = Round2(subtotal)
	tax = Round2(tax)

	return InvoiceTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Round2(subtotal + tax),
	}
}

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
