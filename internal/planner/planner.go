// Package planner drives a payment plan through the derivation engine, the
// schedule generator, the desired-installment solver and the validator.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/internal/config"
	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/internal/schedule"
	"github.com/iwvelando/payment-plan/internal/solver"
	"github.com/iwvelando/payment-plan/pkg/datetime"
	"github.com/iwvelando/payment-plan/pkg/validation"
	"go.uber.org/zap"
)

// Planner applies edits to payment plans and keeps their schedules in step.
type Planner struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a Planner. A nil logger discards log output.
func New(logger *zap.Logger, opts ...Option) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Planner{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is a finished plan together with the projections shown alongside it.
type Result struct {
	Plan       plan.Configuration `json:"plan"`
	Summary    plan.Summary       `json:"summary"`
	Totals     schedule.Totals    `json:"totals"`
	Validation validation.Result  `json:"validation"`
	Desired    *solver.Desired    `json:"desired,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
}

// New returns a default configuration dated from the planner's clock.
func (p *Planner) New() plan.Configuration {
	return plan.NewConfiguration(p.now())
}

// Reduce applies one edit and, when the edit reshapes the schedule,
// regenerates it. changed reports whether the result differs from c.
func (p *Planner) Reduce(c plan.Configuration, e plan.Edit) (next plan.Configuration, changed bool) {
	next = plan.Apply(c, e)
	if e.Field.ReshapesSchedule() {
		next, _ = p.Regenerate(next)
	}
	changed = !plan.Equal(c, next)

	p.logger.Debug("applied edit",
		zap.String("op", "planner.Reduce"),
		zap.String("field", string(e.Field)),
		zap.Bool("changed", changed),
	)
	return next, changed
}

// Regenerate rebuilds the schedule of c from its first payment date,
// frequency, delivery date and construction-period total. The last payment
// date follows the final installment.
func (p *Planner) Regenerate(c plan.Configuration) (plan.Configuration, bool) {
	payments, changed := schedule.Generate(c.FirstPaymentDate, c.Frequency.Months(), c.DeliveryDate, c.DuringConstruction, c.Payments)
	if !changed {
		return c, false
	}

	next := c.Clone()
	next.Payments = plan.CloneInstallments(payments)
	syncLastPaymentDate(&next)

	p.logger.Debug("regenerated schedule",
		zap.String("op", "planner.Regenerate"),
		zap.Int("installments", len(next.Payments)),
	)
	return next, true
}

// ApplyExtra sets the extra amount of one installment from raw user text.
func (p *Planner) ApplyExtra(c plan.Configuration, id int, raw string) plan.Configuration {
	next := c.Clone()
	next.Payments = schedule.ApplyExtraEdit(c.Payments, id, raw, c.DuringConstruction)
	return next
}

// ApplyDate moves one installment to date.
func (p *Planner) ApplyDate(c plan.Configuration, id int, date time.Time) plan.Configuration {
	next := c.Clone()
	next.Payments = schedule.ApplyDateEdit(c.Payments, id, date)
	syncLastPaymentDate(&next)
	return next
}

// Desired runs the desired-installment solver against the current schedule.
func (p *Planner) Desired(c plan.Configuration, ordinary float64, extraCount int) (solver.Desired, error) {
	return solver.SolveDesired(c.DuringConstruction, len(c.Payments), ordinary, extraCount)
}

// Evaluate returns c with its summary, totals, validation outcome and
// advisory warnings.
func (p *Planner) Evaluate(c plan.Configuration) Result {
	result := Result{
		Plan:       c,
		Summary:    c.Summary(),
		Totals:     schedule.Sum(c.Payments),
		Validation: c.Validate(),
		Notes:      c.Warnings(),
	}
	for _, warning := range result.Notes {
		p.logger.Debug("plan warning",
			zap.String("op", "planner.Evaluate"),
			zap.String("warning", warning),
		)
	}
	if !result.Validation.OK {
		p.logger.Warn("plan failed validation",
			zap.String("op", "planner.Evaluate"),
			zap.String("reason", string(result.Validation.Reason)),
			zap.Float64("percentTotal", c.PercentTotal()),
		)
	}
	return result
}

// Build turns a declarative plan input into a finished plan. Malformed dates
// in the input are reported as errors; everything else follows the engine's
// fallback rules.
func (p *Planner) Build(input config.PlanInput) (*Result, error) {
	c := p.New()

	metadata := []plan.Edit{
		{Field: plan.FieldClient, Value: input.Client},
		{Field: plan.FieldProject, Value: input.Project},
		{Field: plan.FieldUnit, Value: input.Unit},
	}
	if input.Currency != "" {
		metadata = append(metadata, plan.Edit{Field: plan.FieldCurrency, Value: input.Currency})
	}
	if input.Frequency != "" {
		metadata = append(metadata, plan.Edit{Field: plan.FieldFrequency, Value: input.Frequency})
	}
	for _, e := range metadata {
		c = plan.Apply(c, e)
	}

	dates := []struct {
		field plan.Field
		value string
	}{
		{plan.FieldReservationDate, input.ReservationDate},
		{plan.FieldSignatureDate, input.SignatureDate},
		{plan.FieldFirstPaymentDate, input.FirstPaymentDate},
		{plan.FieldDeliveryDate, input.DeliveryDate},
	}
	for _, d := range dates {
		if strings.TrimSpace(d.value) == "" {
			continue
		}
		if _, err := datetime.ParseDate(d.value); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.field, d.value, err)
		}
		c = plan.Apply(c, plan.Edit{Field: d.field, Value: d.value})
	}

	c = plan.OnPriceChange(c, input.Price)
	for _, e := range input.Edits {
		field, ok := plan.ParseField(string(e.Field))
		if !ok {
			p.logger.Warn("ignoring edit of unknown field",
				zap.String("op", "planner.Build"),
				zap.String("field", string(e.Field)),
			)
			continue
		}
		c = plan.Apply(c, plan.Edit{Field: field, Value: e.Value})
	}

	c, _ = p.Regenerate(c)

	for _, extra := range input.Extras {
		c = p.ApplyExtra(c, extra.ID, extra.Amount)
	}
	for _, change := range input.DateChanges {
		date, err := datetime.ParseDate(change.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date for installment %d %q: %w", change.ID, change.Date, err)
		}
		c = p.ApplyDate(c, change.ID, date)
	}

	result := p.Evaluate(c)

	if input.Desired != nil {
		desired, err := p.Desired(c, input.Desired.Ordinary, input.Desired.ExtraCount)
		switch {
		case err == nil:
			result.Desired = &desired
		case errors.Is(err, solver.ErrInfeasible):
			result.Notes = append(result.Notes, err.Error())
			p.logger.Warn("desired installment is infeasible",
				zap.String("op", "planner.Build"),
				zap.Float64("ordinary", input.Desired.Ordinary),
			)
		}
	}

	p.logger.Info("built payment plan",
		zap.String("op", "planner.Build"),
		zap.String("client", c.Client),
		zap.Int("installments", len(c.Payments)),
		zap.Bool("valid", result.Validation.OK),
	)
	return &result, nil
}

func syncLastPaymentDate(c *plan.Configuration) {
	if len(c.Payments) > 0 {
		c.LastPaymentDate = schedule.LastDate(c.Payments)
	}
}
