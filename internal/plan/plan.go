// Package plan defines the payment plan aggregate and the field derivation
// engine that keeps its amounts and percentages consistent as single fields
// are edited.
package plan

import (
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/datetime"
)

// Currency is the currency a plan is quoted in.
type Currency string

// Supported currencies.
const (
	USD Currency = constants.CurrencyUSD
	DOP Currency = constants.CurrencyDOP
)

// ParseCurrency maps a currency code to a Currency. Unknown codes fall back
// to USD.
func ParseCurrency(code string) Currency {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case DOP:
		return DOP
	default:
		return USD
	}
}

// Frequency is the number of months between installments.
type Frequency int

// Supported frequencies.
const (
	Monthly      Frequency = constants.MonthlyFrequency
	Bimonthly    Frequency = constants.BimonthlyFrequency
	Quarterly    Frequency = constants.QuarterlyFrequency
	FourMonthly  Frequency = constants.FourMonthlyFrequency
	Semiannually Frequency = constants.SemiannualFrequency
)

var frequencyLabels = map[Frequency]string{
	Monthly:      "mensual",
	Bimonthly:    "bimestral",
	Quarterly:    "trimestral",
	FourMonthly:  "cuatrimestral",
	Semiannually: "semestral",
}

// ParseFrequency maps a frequency label ("mensual", "trimestral", ...) or a
// month count ("3") to a Frequency. Anything unrecognized is quarterly.
func ParseFrequency(label string) Frequency {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for f, l := range frequencyLabels {
		if l == normalized {
			return f
		}
	}
	switch normalized {
	case "1":
		return Monthly
	case "2":
		return Bimonthly
	case "3":
		return Quarterly
	case "4":
		return FourMonthly
	case "6":
		return Semiannually
	}
	return Frequency(constants.DefaultFrequency)
}

// Months returns the number of months between installments, defaulting to
// quarterly for unsupported values.
func (f Frequency) Months() int {
	if _, ok := frequencyLabels[f]; !ok {
		return constants.DefaultFrequency
	}
	return int(f)
}

// String returns the frequency label.
func (f Frequency) String() string {
	if l, ok := frequencyLabels[f]; ok {
		return l
	}
	return frequencyLabels[Frequency(constants.DefaultFrequency)]
}

// Installment is one dated entry of the payment schedule.
type Installment struct {
	ID       int       `json:"id" yaml:"id"`
	Date     time.Time `json:"date" yaml:"date"`
	Ordinary float64   `json:"ordinary" yaml:"ordinary"`
	Extra    float64   `json:"extra" yaml:"extra"`
}

// Total returns the ordinary plus extra amount of the installment.
func (i Installment) Total() float64 {
	return i.Ordinary + i.Extra
}

// Configuration is the payment plan aggregate. Percent fields are expressed
// on a 0-100 scale.
type Configuration struct {
	Client   string   `json:"client" yaml:"client"`
	Project  string   `json:"project" yaml:"project"`
	Unit     string   `json:"unit" yaml:"unit"`
	Currency Currency `json:"currency" yaml:"currency"`

	Price float64 `json:"price" yaml:"price"`

	Reservation        float64 `json:"reservation" yaml:"reservation"`
	Signature          float64 `json:"signature" yaml:"signature"`
	DuringConstruction float64 `json:"duringConstruction" yaml:"duringConstruction"`
	AtDelivery         float64 `json:"atDelivery" yaml:"atDelivery"`

	ReservationPercent          float64 `json:"reservationPercent" yaml:"reservationPercent"`
	SignaturePercent            float64 `json:"signaturePercent" yaml:"signaturePercent"`
	ReservationSignaturePercent float64 `json:"reservationSignaturePercent" yaml:"reservationSignaturePercent"`
	DuringConstructionPercent   float64 `json:"duringConstructionPercent" yaml:"duringConstructionPercent"`
	AtDeliveryPercent           float64 `json:"atDeliveryPercent" yaml:"atDeliveryPercent"`

	DeliveryDate     time.Time `json:"deliveryDate" yaml:"deliveryDate"`
	ReservationDate  time.Time `json:"reservationDate" yaml:"reservationDate"`
	SignatureDate    time.Time `json:"signatureDate" yaml:"signatureDate"`
	FirstPaymentDate time.Time `json:"firstPaymentDate" yaml:"firstPaymentDate"`
	LastPaymentDate  time.Time `json:"lastPaymentDate" yaml:"lastPaymentDate"`

	Frequency Frequency     `json:"frequency" yaml:"frequency"`
	Payments  []Installment `json:"payments" yaml:"payments"`
}

// NewConfiguration returns a configuration holding the default split and the
// default calendar relative to now: reservation today, signature in a month,
// first installment in two months and delivery in two years.
func NewConfiguration(now time.Time) Configuration {
	today := datetime.StartOfDay(now)
	c := Configuration{
		Currency:         USD,
		DeliveryDate:     today.AddDate(2, 0, 0),
		ReservationDate:  today,
		SignatureDate:    datetime.AddMonths(today, 1),
		FirstPaymentDate: datetime.AddMonths(today, 2),
		LastPaymentDate:  datetime.AddMonths(today, 1),
		Frequency:        Quarterly,
		Payments:         []Installment{},
	}
	c.resetSplit()
	return c
}

// resetSplit restores the default percentages and zeroes every amount.
func (c *Configuration) resetSplit() {
	c.Price = 0
	c.Reservation = 0
	c.Signature = 0
	c.DuringConstruction = 0
	c.AtDelivery = 0
	c.ReservationPercent = constants.DefaultReservationPercent
	c.SignaturePercent = constants.DefaultSignaturePercent
	c.ReservationSignaturePercent = constants.DefaultReservationSignaturePercent
	c.DuringConstructionPercent = constants.DefaultDuringConstructionPercent
	c.AtDeliveryPercent = constants.DefaultAtDeliveryPercent
}

// Clone returns a copy of c that shares no memory with it.
func (c Configuration) Clone() Configuration {
	c.Payments = CloneInstallments(c.Payments)
	return c
}

// CloneInstallments copies an installment list. A nil list stays nil.
func CloneInstallments(payments []Installment) []Installment {
	if payments == nil {
		return nil
	}
	out := make([]Installment, len(payments))
	copy(out, payments)
	return out
}

// Summary is the headline breakdown of a plan.
type Summary struct {
	Price                float64 `json:"price"`
	ReservationSignature float64 `json:"reservationSignature"`
	DuringConstruction   float64 `json:"duringConstruction"`
	AtDelivery           float64 `json:"atDelivery"`
}

// Summary returns the headline breakdown of the plan.
func (c Configuration) Summary() Summary {
	return Summary{
		Price:                c.Price,
		ReservationSignature: c.Reservation + c.Signature,
		DuringConstruction:   c.DuringConstruction,
		AtDelivery:           c.AtDelivery,
	}
}

// PercentTotal is the sum of the three top-level split percentages.
func (c Configuration) PercentTotal() float64 {
	return c.ReservationSignaturePercent + c.DuringConstructionPercent + c.AtDeliveryPercent
}
