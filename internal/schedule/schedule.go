// Package schedule generates and maintains the dated installment list of a
// payment plan.
package schedule

import (
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/datetime"
	"github.com/iwvelando/payment-plan/pkg/mathutil"
)

// MaxInstallments bounds the length of a generated schedule.
const MaxInstallments = 1200

// Generate builds the installment list running from first, every
// frequencyMonths months, up to but excluding ceiling, and splits totalToPay
// evenly across it. Prior extras are discarded.
//
// previous is returned unchanged, with changed=false, when totalToPay is zero
// and previous is not empty, when no date falls before ceiling, or when the
// new list equals previous.
func Generate(first time.Time, frequencyMonths int, ceiling time.Time, totalToPay float64, previous []plan.Installment) (payments []plan.Installment, changed bool) {
	if len(previous) > 0 && totalToPay == 0 {
		return previous, false
	}
	if frequencyMonths <= 0 {
		frequencyMonths = constants.DefaultFrequency
	}

	dates := Dates(first, frequencyMonths, ceiling)
	if len(dates) == 0 {
		return previous, false
	}

	generated := make([]plan.Installment, len(dates))
	for i, d := range dates {
		generated[i] = plan.Installment{ID: i + 1, Date: d}
	}
	redistribute(generated, totalToPay)

	if plan.EqualInstallments(generated, previous) {
		return previous, false
	}
	return generated, true
}

// Dates returns first, first+n months, first+2n months, ... for every date
// strictly before ceiling. Each date is derived from the previous one.
func Dates(first time.Time, frequencyMonths int, ceiling time.Time) []time.Time {
	if frequencyMonths <= 0 {
		frequencyMonths = constants.DefaultFrequency
	}
	var dates []time.Time
	for d := first; d.Before(ceiling) && len(dates) < MaxInstallments; d = datetime.AddMonths(d, frequencyMonths) {
		dates = append(dates, d)
	}
	return dates
}

// ApplyExtraEdit parses raw as the extra amount of installment id and
// redistributes the remaining amount over every installment. Text that is
// not a number counts as zero.
func ApplyExtraEdit(payments []plan.Installment, id int, raw string, totalToPay float64) []plan.Installment {
	extra, ok := mathutil.ParseAmount(raw)
	if !ok {
		extra = 0
	}
	return ApplyExtra(payments, id, extra, totalToPay)
}

// ApplyExtra sets the extra amount of installment id, never below zero, and
// redistributes the remaining amount over every installment. The input list
// is not modified. An unknown id returns an unchanged copy.
func ApplyExtra(payments []plan.Installment, id int, extra float64, totalToPay float64) []plan.Installment {
	updated := plan.CloneInstallments(payments)
	idx := indexOf(updated, id)
	if idx < 0 {
		return updated
	}
	updated[idx].Extra = mathutil.Round(mathutil.Max(0, extra))
	redistribute(updated, totalToPay)
	return updated
}

// ApplyDateEdit replaces the date of installment id. The list is neither
// resorted nor renumbered and amounts are untouched, so an edit may leave the
// schedule out of chronological order.
func ApplyDateEdit(payments []plan.Installment, id int, date time.Time) []plan.Installment {
	updated := plan.CloneInstallments(payments)
	if idx := indexOf(updated, id); idx >= 0 {
		updated[idx].Date = date
	}
	return updated
}

// redistribute gives every installment the same rounded ordinary share of
// what the extras leave of totalToPay. The last installment absorbs the
// rounding remainder so the schedule sums to totalToPay.
func redistribute(payments []plan.Installment, totalToPay float64) {
	n := len(payments)
	if n == 0 {
		return
	}
	var totalExtra float64
	for _, p := range payments {
		totalExtra += p.Extra
	}
	remaining := totalToPay - totalExtra
	ordinary := mathutil.Round(remaining / float64(n))
	for i := range payments {
		payments[i].Ordinary = ordinary
	}
	payments[n-1].Ordinary = mathutil.Round(remaining - ordinary*float64(n-1))
}

func indexOf(payments []plan.Installment, id int) int {
	for i, p := range payments {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Totals sums a schedule.
type Totals struct {
	Ordinary float64 `json:"ordinary"`
	Extra    float64 `json:"extra"`
	Grand    float64 `json:"grand"`
}

// Sum returns the ordinary, extra and grand totals of the schedule.
func Sum(payments []plan.Installment) Totals {
	var t Totals
	for _, p := range payments {
		t.Ordinary += p.Ordinary
		t.Extra += p.Extra
	}
	t.Ordinary = mathutil.Round(t.Ordinary)
	t.Extra = mathutil.Round(t.Extra)
	t.Grand = mathutil.Round(t.Ordinary + t.Extra)
	return t
}

// LastDate returns the latest installment date, or the zero time for an empty
// schedule.
func LastDate(payments []plan.Installment) time.Time {
	var last time.Time
	for _, p := range payments {
		if p.Date.After(last) {
			last = p.Date
		}
	}
	return last
}

// ExtraCount returns the number of installments carrying an extra amount.
func ExtraCount(payments []plan.Installment) int {
	count := 0
	for _, p := range payments {
		if p.Extra > 0 {
			count++
		}
	}
	return count
}
