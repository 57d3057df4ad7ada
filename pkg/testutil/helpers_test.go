package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
)

func TestFindInstallment(t *testing.T) {
	payments := []plan.Installment{
		{ID: 1, Date: Date(2024, 3, 15), Ordinary: 1000},
		{ID: 2, Date: Date(2024, 6, 15), Ordinary: 2000},
		{ID: 7, Date: Date(2024, 9, 15), Ordinary: 3000},
	}

	tests := []struct {
		name          string
		id            int
		expectFound   bool
		expectedValue float64
	}{
		{"First installment", 1, true, 1000},
		{"Sparse id", 7, true, 3000},
		{"Missing id", 3, false, 0},
		{"Zero id", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := FindInstallment(payments, tt.id)
			if (found != nil) != tt.expectFound {
				t.Fatalf("FindInstallment(%d) found = %v, expected %v", tt.id, found != nil, tt.expectFound)
			}
			if found != nil && found.Ordinary != tt.expectedValue {
				t.Errorf("FindInstallment(%d) ordinary = %v, expected %v", tt.id, found.Ordinary, tt.expectedValue)
			}
		})
	}

	if FindInstallment(nil, 1) != nil {
		t.Error("expected nil for an empty schedule")
	}

	found := FindInstallment(payments, 2)
	found.Extra = 50
	if payments[1].Extra != 50 {
		t.Error("expected a pointer into the original slice")
	}
}

func TestDate(t *testing.T) {
	d := Date(2024, time.February, 29)
	if d.Location() != time.UTC || d.Hour() != 0 || d.Day() != 29 {
		t.Errorf("unexpected date %v", d)
	}
}

func TestAssertScheduleTotal(t *testing.T) {
	payments := []plan.Installment{{ID: 1, Ordinary: 3333.33}, {ID: 2, Ordinary: 3333.33}, {ID: 3, Ordinary: 3333.34}}
	AssertScheduleTotal(t, payments, 10000)
	AssertScheduleTotal(t, payments, 10000.005)
}
