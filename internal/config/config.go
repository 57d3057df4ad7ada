// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/spf13/viper"
)

// DateLayout is the format expected in config files and is also the output
// date format.
const DateLayout = constants.DateLayout

// EnvPrefix prefixes environment overrides, e.g. PAYMENT_PLAN_PLAN_PRICE.
const EnvPrefix = "PAYMENT_PLAN"

// Configuration holds all configuration for payment-plan.
type Configuration struct {
	Plan    PlanInput     `yaml:"plan"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Report  ReportConfig  `yaml:"report,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// StorageConfig selects where finished plans are persisted.
type StorageConfig struct {
	Driver      string        `yaml:"driver,omitempty"`      // memory, postgres
	DatabaseURL string        `yaml:"databaseUrl,omitempty"` // postgres connection string
	RedisAddr   string        `yaml:"redisAddr,omitempty"`   // optional read-through cache
	CacheTTL    time.Duration `yaml:"cacheTtl,omitempty"`
}

// ReportConfig points at the external report generation service.
type ReportConfig struct {
	BaseURL    string        `yaml:"baseUrl,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	ReadyDelay time.Duration `yaml:"readyDelay,omitempty"`
}

// PlanInput declares a payment plan: its metadata, the edits that shape the
// split, and the per-installment adjustments applied after the schedule is
// generated.
type PlanInput struct {
	Client           string         `yaml:"client"`
	Project          string         `yaml:"project,omitempty"`
	Unit             string         `yaml:"unit,omitempty"`
	Currency         string         `yaml:"currency,omitempty"`
	Price            float64        `yaml:"price"`
	Frequency        string         `yaml:"frequency,omitempty"`
	ReservationDate  string         `yaml:"reservationDate,omitempty"`
	SignatureDate    string         `yaml:"signatureDate,omitempty"`
	FirstPaymentDate string         `yaml:"firstPaymentDate,omitempty"`
	DeliveryDate     string         `yaml:"deliveryDate,omitempty"`
	Edits            []plan.Edit    `yaml:"edits,omitempty"`
	Extras           []ExtraPayment `yaml:"extras,omitempty"`
	DateChanges      []DateChange   `yaml:"dateChanges,omitempty"`
	Desired          *DesiredInput  `yaml:"desired,omitempty"`
}

// ExtraPayment adds an extra amount to one installment.
type ExtraPayment struct {
	ID     int    `yaml:"id"`
	Amount string `yaml:"amount"`
}

// DateChange moves one installment to another date.
type DateChange struct {
	ID   int    `yaml:"id"`
	Date string `yaml:"date"`
}

// DesiredInput asks for the extra money needed so that every installment's
// ordinary share equals Ordinary.
type DesiredInput struct {
	Ordinary   float64 `yaml:"ordinary"`
	ExtraCount int     `yaml:"extraCount"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.applyDefaults()
	return &configuration, nil
}

func (c *Configuration) applyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverMemory
	}
	if c.Report.Timeout <= 0 {
		c.Report.Timeout = constants.DefaultReportTimeout
	}
	if c.Report.ReadyDelay <= 0 {
		c.Report.ReadyDelay = constants.ReportReadyDelay
	}
}

// Storage drivers.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)
