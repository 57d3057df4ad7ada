// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/mathutil"
)

// Reason identifies why a plan failed validation.
type Reason string

// Validation failure reasons, in the order they are checked.
const (
	ReasonNone                      Reason = ""
	ReasonMissingClient             Reason = "MissingClient"
	ReasonNonPositivePrice          Reason = "NonPositivePrice"
	ReasonPercentOverflow           Reason = "PercentOverflow"
	ReasonNegativeAmount            Reason = "NegativeAmount"
	ReasonDeliveryBeforeLastPayment Reason = "DeliveryBeforeLastPayment"
)

var reasonMessages = map[Reason]string{
	ReasonMissingClient:             "the client name is required",
	ReasonNonPositivePrice:          "the closing price must be greater than zero",
	ReasonPercentOverflow:           "the amount to pay exceeds the closing price",
	ReasonNegativeAmount:            "amounts cannot be negative",
	ReasonDeliveryBeforeLastPayment: "the last installment must fall before the delivery date",
}

// Message returns a human readable description of the reason.
func (r Reason) Message() string {
	return reasonMessages[r]
}

// PlanInput holds the plan fields the validator looks at.
type PlanInput struct {
	Client                      string
	Price                       float64
	Reservation                 float64
	DuringConstruction          float64
	AtDelivery                  float64
	ReservationSignaturePercent float64
	DuringConstructionPercent   float64
	AtDeliveryPercent           float64
	DeliveryDate                time.Time
	LastPaymentDate             time.Time

	// Used by Warnings only.
	ReservationDate  time.Time
	SignatureDate    time.Time
	FirstPaymentDate time.Time
	PaymentDates     []time.Time
	ScheduleTotal    float64
}

// Result is the outcome of ValidatePlan.
type Result struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

// Error is the error form of a failed Result.
type Error struct {
	Reason Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid payment plan: %s (%s)", e.Reason.Message(), e.Reason)
}

// Err returns nil for a passing result and an *Error otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Reason: r.Reason}
}

func fail(reason Reason) Result {
	return Result{OK: false, Reason: reason}
}

// ValidatePlan checks a finished plan before it is persisted. Checks run in a
// fixed order and stop at the first failure. Nothing is corrected.
func ValidatePlan(p PlanInput) Result {
	if strings.TrimSpace(p.Client) == "" {
		return fail(ReasonMissingClient)
	}
	if !(p.Price > 0) {
		return fail(ReasonNonPositivePrice)
	}
	total := p.ReservationSignaturePercent + p.DuringConstructionPercent + p.AtDeliveryPercent
	if total > constants.PercentageMultiplier+percentEpsilon {
		return fail(ReasonPercentOverflow)
	}
	if p.Reservation < 0 || p.DuringConstruction < 0 || p.AtDelivery < 0 {
		return fail(ReasonNegativeAmount)
	}
	if p.DeliveryDate.Before(p.LastPaymentDate) {
		return fail(ReasonDeliveryBeforeLastPayment)
	}
	return Result{OK: true}
}

// percentEpsilon absorbs float noise from the residual at-delivery percentage.
const percentEpsilon = 1e-9

// Warnings returns advisory findings about a plan that never block saving it:
// calendar dates out of order, a schedule that does not add up to the
// construction-period total, or an empty schedule.
func Warnings(p PlanInput) []string {
	var warnings []string

	if !p.ReservationDate.IsZero() && !p.SignatureDate.IsZero() && p.SignatureDate.Before(p.ReservationDate) {
		warnings = append(warnings, "signature date is before the reservation date")
	}
	if !p.SignatureDate.IsZero() && !p.FirstPaymentDate.IsZero() && p.FirstPaymentDate.Before(p.SignatureDate) {
		warnings = append(warnings, "first payment date is before the signature date")
	}

	if len(p.PaymentDates) == 0 {
		if mathutil.IsPositive(p.DuringConstruction) {
			warnings = append(warnings, "no installment falls before the delivery date")
		}
		return warnings
	}

	for i := 1; i < len(p.PaymentDates); i++ {
		if p.PaymentDates[i].Before(p.PaymentDates[i-1]) {
			warnings = append(warnings, fmt.Sprintf("installment %d is dated before installment %d", i+1, i))
			break
		}
	}
	if !mathutil.WithinTolerance(p.ScheduleTotal, p.DuringConstruction, constants.CurrencyTolerance) {
		warnings = append(warnings, fmt.Sprintf("installments add up to %.2f instead of %.2f", p.ScheduleTotal, p.DuringConstruction))
	}
	return warnings
}
