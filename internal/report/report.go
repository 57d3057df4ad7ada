// Package report talks to the external service that renders a stored plan as
// a PDF report.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/internal/resilience"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("report")

// ErrNotReady is returned when the report service has no report for a plan
// yet, typically because it was saved less than a minute ago.
var ErrNotReady = errors.New("report not ready yet")

// ErrNoService is returned when no report service is configured.
var ErrNoService = errors.New("report service not configured")

// Recorder is told about every call to the report service.
type Recorder interface {
	IncrReport(operation, outcome string)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	ReadyDelay time.Duration
	HTTPClient *http.Client
	Resilience resilience.Config
	Recorder   Recorder
	Logger     *zap.Logger
}

// Client triggers and downloads plan reports.
type Client struct {
	baseURL    string
	timeout    time.Duration
	readyDelay time.Duration
	httpClient *http.Client
	cfg        resilience.Config
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	recorder   Recorder
	logger     *zap.Logger
	pending    sync.WaitGroup
}

// NewClient returns a report client for the service at opts.BaseURL.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultReportTimeout
	}
	if opts.ReadyDelay <= 0 {
		opts.ReadyDelay = constants.ReportReadyDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Resilience == (resilience.Config{}) {
		opts.Resilience = resilience.DefaultConfig
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		timeout:    opts.Timeout,
		readyDelay: opts.ReadyDelay,
		httpClient: opts.HTTPClient,
		cfg:        opts.Resilience,
		cb:         resilience.NewCircuitBreaker("report"),
		bulkhead:   resilience.NewBulkhead(opts.Resilience.MaxConcurrency),
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
}

// Trigger asks the service to render the report of plan id and waits for
// the request to be accepted.
func (c *Client) Trigger(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Client.Trigger")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	if c.baseURL == "" {
		return ErrNoService
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/report/trigger", id), nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode >= 500 {
				return fmt.Errorf("report service returned status %d", resp.StatusCode)
			}
			if resp.StatusCode >= 300 {
				return resilience.Permanent(fmt.Errorf("report service returned status %d", resp.StatusCode))
			}
			return nil
		})
	})
	c.record("trigger", err)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("trigger report for %s: %w", id, err)
	}
	return nil
}

// TriggerAsync starts Trigger in the background and returns at once.
// Failures are only logged. Wait blocks until every pending trigger ends.
func (c *Client) TriggerAsync(id string) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.bulkhead.Acquire(ctx); err != nil {
			c.logger.Warn("report trigger dropped",
				zap.String("op", "report.TriggerAsync"),
				zap.String("id", id),
				zap.Error(err),
			)
			return
		}
		defer c.bulkhead.Release()

		if err := c.Trigger(ctx, id); err != nil {
			c.logger.Error("failed to trigger report",
				zap.String("op", "report.TriggerAsync"),
				zap.String("id", id),
				zap.Error(err),
			)
			return
		}
		c.logger.Debug("triggered report",
			zap.String("op", "report.TriggerAsync"),
			zap.String("id", id),
		)
	}()
}

// Wait blocks until every background trigger has finished.
func (c *Client) Wait() {
	c.pending.Wait()
}

// Download fetches the rendered PDF of plan id. Any non-2xx answer is
// reported as ErrNotReady.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Client.Download")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	if c.baseURL == "" {
		return nil, ErrNoService
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// A missing report is an answer, not a service failure, so only
	// transport errors count against the breaker.
	result, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/report", id), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return download{status: resp.StatusCode}, nil
		}
		body, err := io.ReadAll(resp.Body)
		return download{status: resp.StatusCode, body: body}, err
	})
	if err == nil {
		if d := result.(download); d.body == nil {
			err = fmt.Errorf("%w: report service returned status %d", ErrNotReady, d.status)
		}
	}
	c.record("download", err)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("report download failed",
			zap.String("op", "report.Download"),
			zap.String("id", id),
			zap.Error(err),
		)
		if errors.Is(err, ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return result.(download).body, nil
}

type download struct {
	status int
	body   []byte
}

// ReadyAfter returns the earliest time a report for a plan created at
// createdAt is expected to be available.
func (c *Client) ReadyAfter(createdAt time.Time) time.Time {
	return createdAt.Add(c.readyDelay)
}

func (c *Client) endpoint(path, id string) string {
	return c.baseURL + path + "?firebase_id=" + url.QueryEscape(id)
}

func (c *Client) record(operation string, err error) {
	if c.recorder == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotReady):
		outcome = "not_ready"
	case err != nil:
		outcome = "error"
	}
	c.recorder.IncrReport(operation, outcome)
}

// SuggestedFilename names the PDF of c after its client, project and unit,
// e.g. "Ana - Torre - 4B.pdf". Characters not allowed in file names are
// dropped.
func SuggestedFilename(c plan.Configuration) string {
	var parts []string
	for _, part := range []string{c.Client, c.Project, c.Unit} {
		if cleaned := sanitize(part); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		return constants.DefaultReportFilename
	}
	return strings.Join(parts, " - ") + ".pdf"
}

func sanitize(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(cleaned), " ")
}
