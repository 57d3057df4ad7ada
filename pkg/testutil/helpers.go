// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/pkg/constants"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FindInstallment finds an installment by id in the payments slice.
// Returns a pointer to the installment if found, nil otherwise.
func FindInstallment(payments []plan.Installment, id int) *plan.Installment {
	for i := range payments {
		if payments[i].ID == id {
			return &payments[i]
		}
	}
	return nil
}

// AssertScheduleTotal fails the test when payments do not add up to expected
// within one cent.
func AssertScheduleTotal(t testing.TB, payments []plan.Installment, expected float64) {
	t.Helper()
	var sum float64
	for _, p := range payments {
		sum += p.Ordinary + p.Extra
	}
	if math.Abs(sum-expected) > constants.CurrencyTolerance {
		t.Errorf("schedule sums to %v, expected %v", sum, expected)
	}
}
