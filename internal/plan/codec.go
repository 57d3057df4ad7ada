package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/pkg/datetime"
	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the frequency as its label.
func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts either a label ("trimestral") or a month count (3).
func (f *Frequency) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = Quarterly
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*f = ParseFrequency(label)
		return nil
	}
	months, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("invalid frequency %s", trimmed)
	}
	*f = ParseFrequency(strconv.Itoa(months))
	return nil
}

// MarshalYAML encodes the frequency as its label.
func (f Frequency) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// UnmarshalYAML accepts either a label or a month count.
func (f *Frequency) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid frequency at line %d", value.Line)
	}
	*f = ParseFrequency(value.Value)
	return nil
}

// UnmarshalJSON normalizes currency codes, falling back to USD.
func (c *Currency) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("invalid currency %s", string(data))
	}
	*c = ParseCurrency(code)
	return nil
}

// UnmarshalJSON accepts plan dates either as 2006-01-02 or as RFC 3339
// timestamps, the same forms the date edits accept.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	type configuration Configuration
	aux := struct {
		*configuration
		DeliveryDate     jsonDate `json:"deliveryDate"`
		ReservationDate  jsonDate `json:"reservationDate"`
		SignatureDate    jsonDate `json:"signatureDate"`
		FirstPaymentDate jsonDate `json:"firstPaymentDate"`
		LastPaymentDate  jsonDate `json:"lastPaymentDate"`
	}{
		configuration:    (*configuration)(c),
		DeliveryDate:     jsonDate{&c.DeliveryDate},
		ReservationDate:  jsonDate{&c.ReservationDate},
		SignatureDate:    jsonDate{&c.SignatureDate},
		FirstPaymentDate: jsonDate{&c.FirstPaymentDate},
		LastPaymentDate:  jsonDate{&c.LastPaymentDate},
	}
	return json.Unmarshal(data, &aux)
}

// UnmarshalJSON accepts the installment date in either plan date form.
func (i *Installment) UnmarshalJSON(data []byte) error {
	type installment Installment
	aux := struct {
		*installment
		Date jsonDate `json:"date"`
	}{
		installment: (*installment)(i),
		Date:        jsonDate{&i.Date},
	}
	return json.Unmarshal(data, &aux)
}

// jsonDate decodes a plan date into t. Null and the empty string leave t
// untouched.
type jsonDate struct {
	t *time.Time
}

func (d jsonDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid date %s", string(data))
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := datetime.ParseDate(*raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", *raw, err)
	}
	*d.t = t
	return nil
}
