package plan

import (
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/mathutil"
)

// The derivation entry points below take the current configuration by value
// and return the new one. They never fail: non-numeric input either resets
// the plan (price) or leaves it unchanged (every other field).
//
// AtDelivery and AtDeliveryPercent are always the residual of the other
// splits and are only ever written by cascadeAtDelivery.

// OnPriceChange sets the closing price and rescales every amount. The
// reservation is capped at constants.ReservationCap and whatever the cap
// removes from the reservation percentage is moved to the signature, so the
// combined reservation and signature percentage is unchanged. A price that
// is not a positive number resets the plan to the default split.
func OnPriceChange(c Configuration, price float64) Configuration {
	c = c.Clone()
	if !mathutil.Finite(price) || price <= 0 {
		c.resetSplit()
		return c
	}

	c.Price = price
	c.Reservation = mathutil.Round(mathutil.Min(
		mathutil.ApplyPercentage(price, c.ReservationPercent),
		constants.ReservationCap,
	))
	c.ReservationPercent = mathutil.CalculatePercentage(c.Reservation, price)
	c.SignaturePercent = c.ReservationSignaturePercent - c.ReservationPercent
	c.Signature = mathutil.Round(mathutil.ApplyPercentage(price, c.SignaturePercent))
	c.DuringConstruction = mathutil.Round(mathutil.ApplyPercentage(price, c.DuringConstructionPercent))
	c.AtDelivery = mathutil.Round(mathutil.ApplyPercentage(price, c.AtDeliveryPercent))
	return c
}

// OnReservationChange sets the reservation amount, clamped to [0, price].
// It is a no-op while there is no price.
func OnReservationChange(c Configuration, reservation float64) Configuration {
	c = c.Clone()
	if c.Price <= 0 || !mathutil.Finite(reservation) {
		return c
	}

	c.Reservation = mathutil.Round(mathutil.Clamp(reservation, 0, c.Price))
	c.ReservationPercent = mathutil.CalculatePercentage(c.Reservation, c.Price)
	c.ReservationSignaturePercent = c.SignaturePercent + c.ReservationPercent
	c.cascadeAtDelivery()
	return c
}

// OnSignatureChange sets the signature amount, clamped to [0, price].
// It is a no-op while there is no price.
func OnSignatureChange(c Configuration, signature float64) Configuration {
	c = c.Clone()
	if c.Price <= 0 || !mathutil.Finite(signature) {
		return c
	}

	c.Signature = mathutil.Round(mathutil.Clamp(signature, 0, c.Price))
	c.SignaturePercent = mathutil.CalculatePercentage(c.Signature, c.Price)
	c.ReservationSignaturePercent = c.ReservationPercent + c.SignaturePercent
	c.cascadeAtDelivery()
	return c
}

// OnDuringConstructionChange sets the amount paid in installments, clamped to
// [0, price]. It is a no-op while there is no price.
func OnDuringConstructionChange(c Configuration, amount float64) Configuration {
	c = c.Clone()
	if c.Price <= 0 || !mathutil.Finite(amount) {
		return c
	}

	c.DuringConstruction = mathutil.Round(mathutil.Clamp(amount, 0, c.Price))
	c.DuringConstructionPercent = mathutil.CalculatePercentage(c.DuringConstruction, c.Price)
	c.cascadeAtDelivery()
	return c
}

// OnDuringConstructionPercentChange sets the share of the price paid in
// installments, clamped to [0, 100].
func OnDuringConstructionPercentChange(c Configuration, percent float64) Configuration {
	c = c.Clone()
	if !mathutil.Finite(percent) {
		return c
	}

	c.DuringConstructionPercent = mathutil.Clamp(percent, 0, constants.PercentageMultiplier)
	c.DuringConstruction = mathutil.Round(mathutil.ApplyPercentage(c.Price, c.DuringConstructionPercent))
	c.cascadeAtDelivery()
	return c
}

// OnReservationSignaturePercentChange sets the combined reservation and
// signature percentage, clamped to [0, 100]. The reservation keeps its share
// when it fits inside the new total and the signature takes the remainder;
// otherwise the reservation takes the whole total and the signature drops to
// zero.
func OnReservationSignaturePercentChange(c Configuration, percent float64) Configuration {
	c = c.Clone()
	if !mathutil.Finite(percent) {
		return c
	}

	combined := mathutil.Clamp(percent, 0, constants.PercentageMultiplier)
	if c.ReservationPercent >= combined {
		c.ReservationPercent = combined
		c.SignaturePercent = 0
	} else {
		c.SignaturePercent = combined - c.ReservationPercent
	}
	c.ReservationSignaturePercent = combined
	c.Reservation = mathutil.Round(mathutil.ApplyPercentage(c.Price, c.ReservationPercent))
	c.Signature = mathutil.Round(mathutil.ApplyPercentage(c.Price, c.SignaturePercent))
	c.cascadeAtDelivery()
	return c
}

// cascadeAtDelivery recomputes the at-delivery residual so the three split
// percentages add up to 100.
func (c *Configuration) cascadeAtDelivery() {
	c.AtDeliveryPercent = constants.PercentageMultiplier - c.ReservationSignaturePercent - c.DuringConstructionPercent
	c.AtDelivery = mathutil.Round(mathutil.ApplyPercentage(c.Price, c.AtDeliveryPercent))
}
