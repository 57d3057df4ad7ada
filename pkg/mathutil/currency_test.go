package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Binary midpoint", 1.005, 1.01},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Thirds of ten thousand", 10000.0 / 3, 3333.33},
		{"Negative number round up", -1.235, -1.24},
		{"Zero", 0.0, 0.0},
		{"Very small negative", -0.001, 0.00},
		{"Large number", 999999999.999, 1000000000.00},
		{"NaN", math.NaN(), 0},
		{"Infinity", math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToleranceHelpers(t *testing.T) {
	if !IsPositive(0.02) || IsPositive(0.01) {
		t.Errorf("IsPositive boundary mismatch")
	}
	if !WithinTolerance(9000, 8999.99, 0.01) {
		t.Errorf("WithinTolerance should accept a one cent drift")
	}
	if WithinTolerance(9000, 8999.98, 0.01) {
		t.Errorf("WithinTolerance should reject a two cent drift")
	}
	if Min(1, 2) != 1 || Max(1, 2) != 2 {
		t.Errorf("Min/Max mismatch")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		lo       float64
		hi       float64
		expected float64
	}{
		{"Inside range", 50, 0, 100, 50},
		{"Below range", -5, 0, 100, 0},
		{"Above range", 150, 0, 100, 100},
		{"At upper bound", 100, 0, 100, 100},
		{"NaN goes to lower bound", math.NaN(), 0, 100, 0},
		{"Positive infinity", math.Inf(1), 0, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tt.val, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func TestPercentageConversions(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		total   float64
		percent float64
	}{
		{"Five percent", 5000, 100000, 5},
		{"Capped reservation", 5000, 3000000, 0.16666666666666666},
		{"Zero total", 50, 0, 0},
		{"Whole price", 250000, 250000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePercentage(tt.value, tt.total)
			if math.Abs(got-tt.percent) > 1e-9 {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v", tt.value, tt.total, got, tt.percent)
			}
			if tt.total == 0 {
				return
			}
			back := ApplyPercentage(tt.total, got)
			if math.Abs(back-tt.value) > 0.01 {
				t.Errorf("ApplyPercentage(%v, %v) = %v, expected %v", tt.total, got, back, tt.value)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
		ok       bool
	}{
		{"Plain integer", "900", 900, true},
		{"Decimal", "1250.50", 1250.5, true},
		{"Thousands separators", "1,250.50", 1250.5, true},
		{"Dollar sign", "$900", 900, true},
		{"Peso prefix", "RD$ 1,000", 1000, true},
		{"Surrounding spaces", "  42 ", 42, true},
		{"Negative", "-10", -10, true},
		{"Empty", "", 0, false},
		{"Blank", "   ", 0, false},
		{"Letters", "abc", 0, false},
		{"Mixed garbage", "12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseAmount(%q) ok = %v, expected %v", tt.raw, ok, tt.ok)
			}
			if math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("ParseAmount(%q) = %v, expected %v", tt.raw, got, tt.expected)
			}
		})
	}
}
