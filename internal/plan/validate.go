package plan

import (
	"time"

	"github.com/iwvelando/payment-plan/pkg/validation"
)

// Validate runs the pre-persistence checks on the configuration.
func (c Configuration) Validate() validation.Result {
	return validation.ValidatePlan(c.validationInput())
}

// Warnings returns the advisory findings about the configuration.
func (c Configuration) Warnings() []string {
	return validation.Warnings(c.validationInput())
}

func (c Configuration) validationInput() validation.PlanInput {
	dates := make([]time.Time, len(c.Payments))
	var total float64
	for i, p := range c.Payments {
		dates[i] = p.Date
		total += p.Total()
	}
	return validation.PlanInput{
		Client:                      c.Client,
		Price:                       c.Price,
		Reservation:                 c.Reservation,
		DuringConstruction:          c.DuringConstruction,
		AtDelivery:                  c.AtDelivery,
		ReservationSignaturePercent: c.ReservationSignaturePercent,
		DuringConstructionPercent:   c.DuringConstructionPercent,
		AtDeliveryPercent:           c.AtDeliveryPercent,
		DeliveryDate:                c.DeliveryDate,
		LastPaymentDate:             c.LastPaymentDate,
		ReservationDate:             c.ReservationDate,
		SignatureDate:               c.SignatureDate,
		FirstPaymentDate:            c.FirstPaymentDate,
		PaymentDates:                dates,
		ScheduleTotal:               total,
	}
}
