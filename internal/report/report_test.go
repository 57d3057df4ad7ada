package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/internal/resilience"
)

type fakeService struct {
	mu        sync.Mutex
	triggered []string
	ready     map[string]bool
	failures  int32
}

func newFakeService() *fakeService {
	return &fakeService{ready: map[string]bool{}}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("firebase_id")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/report/trigger":
		if atomic.AddInt32(&f.failures, -1) >= 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		f.mu.Lock()
		f.triggered = append(f.triggered, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	case r.Method == http.MethodGet && r.URL.Path == "/report":
		f.mu.Lock()
		ready := f.ready[id]
		f.mu.Unlock()
		if !ready {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 " + id))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncrReport(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[operation+"/"+outcome]++
}

func newTestClient(t *testing.T, service http.Handler, recorder Recorder) *Client {
	t.Helper()
	server := httptest.NewServer(service)
	t.Cleanup(server.Close)
	return NewClient(Options{
		BaseURL:    server.URL + "/",
		Timeout:    2 * time.Second,
		Resilience: resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 2},
		Recorder:   recorder,
	})
}

func TestTrigger(t *testing.T) {
	service := newFakeService()
	service.failures = 1
	recorder := &countingRecorder{}
	client := newTestClient(t, service, recorder)

	if err := client.Trigger(context.Background(), "plan 1"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(service.triggered) != 1 || service.triggered[0] != "plan 1" {
		t.Errorf("unexpected triggers %v", service.triggered)
	}
	if recorder.counts["trigger/ok"] != 1 {
		t.Errorf("unexpected recorder counts %v", recorder.counts)
	}
}

func TestTriggerAsync(t *testing.T) {
	service := newFakeService()
	client := newTestClient(t, service, nil)

	for _, id := range []string{"a", "b", "c"} {
		client.TriggerAsync(id)
	}
	client.Wait()

	service.mu.Lock()
	defer service.mu.Unlock()
	if len(service.triggered) != 3 {
		t.Errorf("expected 3 triggers, got %v", service.triggered)
	}
}

func TestTriggerGivesUpOnClientErrors(t *testing.T) {
	var calls int32
	service := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})
	client := newTestClient(t, service, nil)

	if err := client.Trigger(context.Background(), "x"); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("client errors should not be retried, got %d calls", calls)
	}
}

func TestDownload(t *testing.T) {
	service := newFakeService()
	recorder := &countingRecorder{}
	client := newTestClient(t, service, recorder)

	_, err := client.Download(context.Background(), "p1")
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	service.mu.Lock()
	service.ready["p1"] = true
	service.mu.Unlock()

	body, err := client.Download(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if string(body) != "%PDF-1.4 p1" {
		t.Errorf("unexpected body %q", body)
	}
	if recorder.counts["download/not_ready"] != 1 || recorder.counts["download/ok"] != 1 {
		t.Errorf("unexpected recorder counts %v", recorder.counts)
	}
}

func TestDownloadNotReadyKeepsBreakerClosed(t *testing.T) {
	client := newTestClient(t, newFakeService(), nil)
	for i := 0; i < 10; i++ {
		if _, err := client.Download(context.Background(), "missing"); !errors.Is(err, ErrNotReady) {
			t.Fatalf("attempt %d: expected ErrNotReady, got %v", i, err)
		}
	}
	if state := client.cb.State().String(); state != "closed" {
		t.Errorf("breaker state = %s", state)
	}
}

func TestNoService(t *testing.T) {
	client := NewClient(Options{})
	if err := client.Trigger(context.Background(), "x"); !errors.Is(err, ErrNoService) {
		t.Errorf("expected ErrNoService, got %v", err)
	}
	if _, err := client.Download(context.Background(), "x"); !errors.Is(err, ErrNoService) {
		t.Errorf("expected ErrNoService, got %v", err)
	}
}

func TestReadyAfter(t *testing.T) {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	if got := NewClient(Options{}).ReadyAfter(created); !got.Equal(created.Add(time.Minute)) {
		t.Errorf("ReadyAfter() = %s", got)
	}
	if got := NewClient(Options{ReadyDelay: 90 * time.Second}).ReadyAfter(created); !got.Equal(created.Add(90 * time.Second)) {
		t.Errorf("ReadyAfter() = %s", got)
	}
}

func TestSuggestedFilename(t *testing.T) {
	tests := []struct {
		name                  string
		client, project, unit string
		expected              string
	}{
		{"All parts", "Ana Pérez", "Torre", "4B", "Ana Pérez - Torre - 4B.pdf"},
		{"Missing unit", "Ana", "Torre", "", "Ana - Torre.pdf"},
		{"Unsafe characters", "A/B", "Torre: Norte", " 4?B ", "AB - Torre Norte - 4B.pdf"},
		{"Nothing", "", "  ", "", "report.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := plan.Configuration{Client: tt.client, Project: tt.project, Unit: tt.unit}
			if got := SuggestedFilename(c); got != tt.expected {
				t.Errorf("SuggestedFilename() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
