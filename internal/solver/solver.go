// Package solver projects how much extra money a schedule needs so that every
// installment's ordinary share matches a desired amount.
package solver

import (
	"errors"
	"fmt"

	"github.com/iwvelando/payment-plan/pkg/mathutil"
)

var (
	// ErrNothingToSolve is returned when no desired amount or no extra
	// payment count was given.
	ErrNothingToSolve = errors.New("nothing to solve")

	// ErrInfeasible is returned when the desired installment exceeds the
	// construction-period total.
	ErrInfeasible = errors.New("infeasible: desired installment exceeds the construction-period total")
)

// Desired is the advisory result of SolveDesired.
type Desired struct {
	Excess          float64 `json:"excess"`
	ExtraCount      int     `json:"extraCount"`
	ExtraPerPayment float64 `json:"extraPerPayment"`
}

// SolveDesired computes the excess left over when each of installmentCount
// installments pays desiredOrdinary out of duringConstruction, and spreads
// that excess over extraCount extra payments. It never alters a schedule.
func SolveDesired(duringConstruction float64, installmentCount int, desiredOrdinary float64, extraCount int) (Desired, error) {
	if desiredOrdinary == 0 || !mathutil.Finite(desiredOrdinary) || extraCount <= 0 {
		return Desired{}, ErrNothingToSolve
	}

	excess := mathutil.Round(duringConstruction - float64(installmentCount)*desiredOrdinary)
	if excess < 0 {
		return Desired{}, fmt.Errorf("%w (excess %.2f)", ErrInfeasible, excess)
	}

	return Desired{
		Excess:          excess,
		ExtraCount:      extraCount,
		ExtraPerPayment: mathutil.Round(excess / float64(extraCount)),
	}, nil
}
