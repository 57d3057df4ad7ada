// Package output provides utilities for formatting and displaying payment plans.
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/internal/planner"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable plan.
func PrettyFormat(result *planner.Result) {
	p := message.NewPrinter(language.English)
	c := result.Plan
	code := string(c.Currency)

	fmt.Printf("--- Payment plan for %s ---\n", displayName(c.Client))
	if c.Project != "" || c.Unit != "" {
		fmt.Printf("Project: %s  Unit: %s\n", c.Project, c.Unit)
	}
	fmt.Printf("Currency: %s  Frequency: %s\n", code, c.Frequency)
	fmt.Printf("\n")

	fmt.Printf("Concept                 | Amount           | Percent\n")
	fmt.Printf("_______                 | ______           | _______\n")
	fmt.Printf("%-23s | %-16s | %s\n", "Closing price", format.Currency(c.Price, code), format.Percent(100))
	fmt.Printf("%-23s | %-16s | %s\n", "Reservation", format.Currency(c.Reservation, code), format.Percent(c.ReservationPercent))
	fmt.Printf("%-23s | %-16s | %s\n", "Signature", format.Currency(c.Signature, code), format.Percent(c.SignaturePercent))
	fmt.Printf("%-23s | %-16s | %s\n", "During construction", format.Currency(c.DuringConstruction, code), format.Percent(c.DuringConstructionPercent))
	fmt.Printf("%-23s | %-16s | %s\n", "At delivery", format.Currency(c.AtDelivery, code), format.Percent(c.AtDeliveryPercent))
	fmt.Printf("\n")

	fmt.Printf("Reservation date:   %s\n", formatDate(c.ReservationDate))
	fmt.Printf("Signature date:     %s\n", formatDate(c.SignatureDate))
	fmt.Printf("First payment date: %s\n", formatDate(c.FirstPaymentDate))
	fmt.Printf("Last payment date:  %s\n", formatDate(c.LastPaymentDate))
	fmt.Printf("Delivery date:      %s\n", formatDate(c.DeliveryDate))
	fmt.Printf("\n")

	fmt.Printf("#   | Date       | Ordinary      | Extra         | Total\n")
	fmt.Printf("_   | ____       | ________      | _____         | _____\n")
	for _, installment := range c.Payments {
		_, _ = p.Printf("%-3d | %s | %13.2f | %13.2f | %.2f\n",
			installment.ID, formatDate(installment.Date), installment.Ordinary, installment.Extra, installment.Total())
	}
	_, _ = p.Printf("Totals           | %13.2f | %13.2f | %.2f\n", result.Totals.Ordinary, result.Totals.Extra, result.Totals.Grand)

	if result.Desired != nil {
		fmt.Printf("\n")
		_, _ = p.Printf("Desired installment: an excess of %.2f spread as %d extra payments of %.2f\n",
			result.Desired.Excess, result.Desired.ExtraCount, result.Desired.ExtraPerPayment)
	}

	fmt.Printf("\n")
	if result.Validation.OK {
		fmt.Printf("Validation: OK\n")
	} else {
		fmt.Printf("Validation: %s (%s)\n", result.Validation.Reason.Message(), result.Validation.Reason)
	}
	for _, note := range result.Notes {
		fmt.Printf("Note: %s\n", note)
	}
}

// CsvFormat outputs the installment schedule in comma-separated value format.
func CsvFormat(result *planner.Result) {
	fmt.Printf(`"id","date","ordinary","extra","total"`)
	fmt.Printf("\n")
	for _, installment := range result.Plan.Payments {
		fmt.Printf(`"%d","%s","%.2f","%.2f","%.2f"`,
			installment.ID, formatDate(installment.Date), installment.Ordinary, installment.Extra, installment.Total())
		fmt.Printf("\n")
	}
	fmt.Printf(`"total","","%.2f","%.2f","%.2f"`, result.Totals.Ordinary, result.Totals.Extra, result.Totals.Grand)
	fmt.Printf("\n")
}

func formatDate(t time.Time) string {
	return t.Format(constants.DateLayout)
}

func displayName(client string) string {
	if strings.TrimSpace(client) == "" {
		return "(no client)"
	}
	return client
}
