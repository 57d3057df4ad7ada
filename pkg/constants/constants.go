// Package constants provides shared constants for the payment-plan application.
package constants

import "time"

// DateLayout is the format expected in plan files and is also the output
// date format.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// DecimalPlaces is the number of decimals kept for currency amounts
	DecimalPlaces = 2

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// ReservationCap is the absolute ceiling applied to the reservation amount
	// whenever the closing price changes. It is not currency aware.
	ReservationCap = 5000.0
)

// Default split of the closing price, in percent.
const (
	DefaultReservationPercent          = 5.0
	DefaultSignaturePercent            = 5.0
	DefaultReservationSignaturePercent = DefaultReservationPercent + DefaultSignaturePercent
	DefaultDuringConstructionPercent   = 40.0
	DefaultAtDeliveryPercent           = 50.0
)

// Installment frequencies, in months between installments.
const (
	MonthlyFrequency     = 1
	BimonthlyFrequency   = 2
	QuarterlyFrequency   = 3
	FourMonthlyFrequency = 4
	SemiannualFrequency  = 6

	// DefaultFrequency is used when a frequency label is unknown
	DefaultFrequency = QuarterlyFrequency
)

// Currency codes
const (
	CurrencyUSD = "USD"
	CurrencyDOP = "DOP"

	DefaultCurrency = CurrencyUSD
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "plan.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "plan.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultShutdownTimeout bounds graceful shutdown of the HTTP server
	DefaultShutdownTimeout = 15 * time.Second
)

// Listing defaults
const (
	// DefaultPageSize is the page size used when a listing request gives none
	DefaultPageSize = 10

	// MaxPageSize caps listing page sizes
	MaxPageSize = 100

	// DefaultSearchResults is the result cap used by plan searches
	DefaultSearchResults = 10
)

// Report service defaults
const (
	// DefaultReportTimeout bounds a report download request
	DefaultReportTimeout = 30 * time.Second

	// ReportReadyDelay is the documented minimum delay between saving a plan
	// and its report becoming downloadable
	ReportReadyDelay = 60 * time.Second

	// DefaultReportFilename is used when a plan has no identifying metadata
	DefaultReportFilename = "report.pdf"
)
