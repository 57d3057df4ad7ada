package schedule

import (
	"testing"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/pkg/testutil"
)

var (
	date      = testutil.Date
	assertSum = testutil.AssertScheduleTotal
)

func TestGenerate(t *testing.T) {
	payments, changed := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, nil)
	if !changed {
		t.Fatal("expected a new schedule")
	}
	if len(payments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(payments))
	}

	expectedDates := []time.Time{date(2024, 1, 1), date(2024, 4, 1), date(2024, 7, 1)}
	for i, p := range payments {
		if p.ID != i+1 {
			t.Errorf("installment %d has id %d", i, p.ID)
		}
		if !p.Date.Equal(expectedDates[i]) {
			t.Errorf("installment %d date = %s, expected %s", i, p.Date.Format("2006-01-02"), expectedDates[i].Format("2006-01-02"))
		}
		if p.Ordinary != 3000 || p.Extra != 0 {
			t.Errorf("installment %d = %+v", i, p)
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	first, _ := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, nil)
	again, changed := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, first)
	if changed {
		t.Error("regenerating identical inputs should not report a change")
	}
	if &again[0] != &first[0] {
		t.Error("expected the previous list to be returned as is")
	}
}

func TestGenerateKeepsPrevious(t *testing.T) {
	previous := []plan.Installment{{ID: 1, Date: date(2024, 1, 1), Ordinary: 100}}

	tests := []struct {
		name    string
		first   time.Time
		ceiling time.Time
		total   float64
	}{
		{"Zero total", date(2024, 1, 1), date(2025, 1, 1), 0},
		{"No date before ceiling", date(2025, 1, 1), date(2025, 1, 1), 5000},
		{"Ceiling before first", date(2025, 6, 1), date(2025, 1, 1), 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Generate(tt.first, 3, tt.ceiling, tt.total, previous)
			if changed || !plan.EqualInstallments(got, previous) {
				t.Errorf("expected previous schedule, got %+v", got)
			}
		})
	}
}

func TestGenerateZeroTotalWithoutPrevious(t *testing.T) {
	got, changed := Generate(date(2024, 1, 1), 6, date(2025, 1, 1), 0, nil)
	if !changed || len(got) != 2 {
		t.Fatalf("expected two zero installments, got %+v", got)
	}
	for _, p := range got {
		if p.Ordinary != 0 {
			t.Errorf("expected zero ordinary, got %v", p.Ordinary)
		}
	}
}

func TestGenerateDiscardsExtras(t *testing.T) {
	first, _ := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, nil)
	withExtra := ApplyExtra(first, 2, 600, 9000)

	regenerated, changed := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, withExtra)
	if !changed {
		t.Fatal("expected extras to be discarded")
	}
	if ExtraCount(regenerated) != 0 {
		t.Errorf("expected no extras, got %+v", regenerated)
	}
}

func TestGenerateRoundingResidual(t *testing.T) {
	payments, _ := Generate(date(2024, 1, 1), 1, date(2024, 4, 1), 10000, nil)
	if len(payments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(payments))
	}
	if payments[0].Ordinary != 3333.33 || payments[1].Ordinary != 3333.33 || payments[2].Ordinary != 3333.34 {
		t.Errorf("unexpected split %+v", payments)
	}
	assertSum(t, payments, 10000)
}

func TestDatesClampToMonthEnd(t *testing.T) {
	dates := Dates(date(2024, 1, 31), 1, date(2024, 4, 30))
	expected := []time.Time{date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 29), date(2024, 4, 29)}
	if len(dates) != len(expected) {
		t.Fatalf("got %d dates, expected %d", len(dates), len(expected))
	}
	for i := range expected {
		if !dates[i].Equal(expected[i]) {
			t.Errorf("date %d = %s, expected %s", i, dates[i].Format("2006-01-02"), expected[i].Format("2006-01-02"))
		}
	}
}

func TestDatesBounded(t *testing.T) {
	dates := Dates(time.Time{}, 1, date(2400, 1, 1))
	if len(dates) != MaxInstallments {
		t.Errorf("expected %d dates, got %d", MaxInstallments, len(dates))
	}
}

func TestApplyExtraEdit(t *testing.T) {
	base, _ := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, nil)

	got := ApplyExtraEdit(base, 1, "900", 9000)
	if got[0].Extra != 900 {
		t.Errorf("extra = %v", got[0].Extra)
	}
	for i, p := range got {
		if p.Ordinary != 2700 {
			t.Errorf("installment %d ordinary = %v, expected 2700", i, p.Ordinary)
		}
	}
	assertSum(t, got, 9000)

	if base[0].Extra != 0 || base[0].Ordinary != 3000 {
		t.Errorf("input schedule was modified: %+v", base[0])
	}

	cleared := ApplyExtraEdit(got, 1, "abc", 9000)
	if cleared[0].Extra != 0 || cleared[0].Ordinary != 3000 {
		t.Errorf("unparsable extra should count as zero, got %+v", cleared[0])
	}

	negative := ApplyExtraEdit(base, 2, "-50", 9000)
	if negative[1].Extra != 0 {
		t.Errorf("negative extra should clamp to zero, got %v", negative[1].Extra)
	}

	unknown := ApplyExtraEdit(base, 42, "100", 9000)
	if !plan.EqualInstallments(unknown, base) {
		t.Errorf("unknown id should leave the schedule unchanged")
	}
}

func TestApplyExtraKeepsSum(t *testing.T) {
	payments, _ := Generate(date(2024, 2, 1), 1, date(2026, 2, 1), 123456.78, nil)
	for _, edit := range []struct {
		id    int
		extra float64
	}{{3, 1000}, {7, 2500.55}, {24, 333.33}, {3, 0}} {
		payments = ApplyExtra(payments, edit.id, edit.extra, 123456.78)
		assertSum(t, payments, 123456.78)
	}
	if ExtraCount(payments) != 2 {
		t.Errorf("expected 2 installments with extras, got %d", ExtraCount(payments))
	}
}

func TestApplyDateEdit(t *testing.T) {
	base, _ := Generate(date(2024, 1, 1), 3, date(2024, 10, 1), 9000, nil)

	got := ApplyDateEdit(base, 2, date(2024, 12, 25))
	moved := testutil.FindInstallment(got, 2)
	if moved == nil || !moved.Date.Equal(date(2024, 12, 25)) {
		t.Fatalf("date not applied: %+v", moved)
	}
	if moved.Ordinary != 3000 {
		t.Errorf("date edit changed other fields: %+v", moved)
	}
	if !base[1].Date.Equal(date(2024, 4, 1)) {
		t.Errorf("input schedule was modified")
	}
	if !LastDate(got).Equal(date(2024, 12, 25)) {
		t.Errorf("LastDate = %s", LastDate(got))
	}
}

func TestSum(t *testing.T) {
	payments := []plan.Installment{
		{ID: 1, Ordinary: 100.1, Extra: 50},
		{ID: 2, Ordinary: 100.2},
	}
	totals := Sum(payments)
	if totals.Ordinary != 200.3 || totals.Extra != 50 || totals.Grand != 250.3 {
		t.Errorf("unexpected totals %+v", totals)
	}
	if !LastDate(nil).IsZero() {
		t.Errorf("empty schedule should have no last date")
	}
}
