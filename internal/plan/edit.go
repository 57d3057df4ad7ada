package plan

import (
	"strings"

	"github.com/iwvelando/payment-plan/pkg/datetime"
	"github.com/iwvelando/payment-plan/pkg/mathutil"
)

// Field names an editable field of a Configuration.
type Field string

// Editable fields. AtDelivery and AtDeliveryPercent are deliberately absent.
const (
	FieldClient                      Field = "client"
	FieldProject                     Field = "project"
	FieldUnit                        Field = "unit"
	FieldCurrency                    Field = "currency"
	FieldPrice                       Field = "price"
	FieldReservation                 Field = "reservation"
	FieldSignature                   Field = "signature"
	FieldDuringConstruction          Field = "duringConstruction"
	FieldDuringConstructionPercent   Field = "duringConstructionPercent"
	FieldReservationSignaturePercent Field = "reservationSignaturePercent"
	FieldDeliveryDate                Field = "deliveryDate"
	FieldReservationDate             Field = "reservationDate"
	FieldSignatureDate               Field = "signatureDate"
	FieldFirstPaymentDate            Field = "firstPaymentDate"
	FieldLastPaymentDate             Field = "lastPaymentDate"
	FieldFrequency                   Field = "frequency"
)

var editableFields = []Field{
	FieldClient, FieldProject, FieldUnit, FieldCurrency,
	FieldPrice, FieldReservation, FieldSignature,
	FieldDuringConstruction, FieldDuringConstructionPercent, FieldReservationSignaturePercent,
	FieldDeliveryDate, FieldReservationDate, FieldSignatureDate,
	FieldFirstPaymentDate, FieldLastPaymentDate, FieldFrequency,
}

// ParseField resolves a field name case-insensitively.
func ParseField(name string) (Field, bool) {
	trimmed := strings.TrimSpace(name)
	for _, f := range editableFields {
		if strings.EqualFold(string(f), trimmed) {
			return f, true
		}
	}
	return "", false
}

// ReshapesSchedule reports whether an edit of f changes the inputs the
// schedule is generated from.
func (f Field) ReshapesSchedule() bool {
	switch f {
	case FieldFirstPaymentDate, FieldFrequency, FieldDeliveryDate,
		FieldPrice, FieldDuringConstruction, FieldDuringConstructionPercent:
		return true
	}
	return false
}

// Edit is a single raw field edit as typed by a user.
type Edit struct {
	Field Field  `json:"field" yaml:"field" mapstructure:"field"`
	Value string `json:"value" yaml:"value" mapstructure:"value"`
}

// Apply routes one edit through the derivation engine and returns the new
// configuration. Unknown fields and unparsable dates leave c unchanged.
// Apply never modifies c itself.
func Apply(c Configuration, e Edit) Configuration {
	switch e.Field {
	case FieldClient:
		c = c.Clone()
		c.Client = strings.TrimSpace(e.Value)
		return c
	case FieldProject:
		c = c.Clone()
		c.Project = strings.TrimSpace(e.Value)
		return c
	case FieldUnit:
		c = c.Clone()
		c.Unit = strings.TrimSpace(e.Value)
		return c
	case FieldCurrency:
		c = c.Clone()
		c.Currency = ParseCurrency(e.Value)
		return c
	case FieldFrequency:
		c = c.Clone()
		c.Frequency = ParseFrequency(e.Value)
		return c
	case FieldPrice:
		price, ok := mathutil.ParseAmount(e.Value)
		if !ok {
			price = 0
		}
		return OnPriceChange(c, price)
	case FieldDeliveryDate, FieldReservationDate, FieldSignatureDate,
		FieldFirstPaymentDate, FieldLastPaymentDate:
		return applyDate(c, e)
	}

	value, ok := mathutil.ParseAmount(e.Value)
	if !ok {
		return c.Clone()
	}
	switch e.Field {
	case FieldReservation:
		return OnReservationChange(c, value)
	case FieldSignature:
		return OnSignatureChange(c, value)
	case FieldDuringConstruction:
		return OnDuringConstructionChange(c, value)
	case FieldDuringConstructionPercent:
		return OnDuringConstructionPercentChange(c, value)
	case FieldReservationSignaturePercent:
		return OnReservationSignaturePercentChange(c, value)
	}
	return c.Clone()
}

func applyDate(c Configuration, e Edit) Configuration {
	c = c.Clone()
	date, err := datetime.ParseDate(e.Value)
	if err != nil {
		return c
	}
	switch e.Field {
	case FieldDeliveryDate:
		c.DeliveryDate = date
	case FieldReservationDate:
		c.ReservationDate = date
	case FieldSignatureDate:
		c.SignatureDate = date
	case FieldFirstPaymentDate:
		c.FirstPaymentDate = date
	case FieldLastPaymentDate:
		c.LastPaymentDate = date
	}
	return c
}
