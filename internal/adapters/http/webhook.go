package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

const (
	eventsEndpoint = "/v1/lifecycle-events"

	// DefaultQueueSize bounds the events waiting to be posted.
	DefaultQueueSize = 256
	// DefaultPostTimeout bounds a single POST.
	DefaultPostTimeout = 10 * time.Second
	// DefaultMaxAttempts is how many times an event is posted before it is dropped.
	DefaultMaxAttempts = 3
	// DefaultRetryBase is the first retry delay; later delays double up to DefaultRetryMax.
	DefaultRetryBase = 500 * time.Millisecond
	DefaultRetryMax  = 5 * time.Second
)

// ErrQueueFull is returned by Record when the queue has no room.
var ErrQueueFull = errors.New("webhook queue full")

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("webhook sink closed")

// WebhookConfig configures a WebhookSink.
type WebhookConfig struct {
	// URL is the service base URL; events are posted to URL + /v1/lifecycle-events.
	URL string
	// AuthKey is sent as a bearer token when set.
	AuthKey     string
	QueueSize   int
	PostTimeout time.Duration

	// MaxAttempts bounds delivery attempts per event. Client errors (4xx
	// other than 429) are never retried.
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

// WebhookSink implements ports.AuditSink by posting events as JSON.
// Record only enqueues, so a slow endpoint never stalls the lifecycle.
type WebhookSink struct {
	cfg      WebhookConfig
	client   ports.HTTPClient
	logger   ports.Logger
	hostname string

	queue chan domain.LifecycleEvent
	done  chan struct{}
	abort chan struct{}

	mu        sync.RWMutex
	closed    bool
	abortOnce sync.Once
}

// NewWebhookSink creates the sink and starts its delivery goroutine.
func NewWebhookSink(cfg WebhookConfig, client ports.HTTPClient, logger ports.Logger) *WebhookSink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.PostTimeout <= 0 {
		cfg.PostTimeout = DefaultPostTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if cfg.RetryMax < cfg.RetryBase {
		cfg.RetryMax = max(DefaultRetryMax, cfg.RetryBase)
	}
	if client == nil {
		client = &http.Client{}
	}
	hostname, _ := os.Hostname()

	s := &WebhookSink{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		hostname: hostname,
		queue:    make(chan domain.LifecycleEvent, cfg.QueueSize),
		done:     make(chan struct{}),
		abort:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Record queues ev for delivery.
func (s *WebhookSink) Record(_ context.Context, ev domain.LifecycleEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to
// end. When ctx ends first, pending retries are abandoned.
func (s *WebhookSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.abortOnce.Do(func() { close(s.abort) })
		return ctx.Err()
	}
}

func (s *WebhookSink) loop() {
	defer close(s.done)
	b := newBackoff(s.cfg.RetryBase, s.cfg.RetryMax)
	for ev := range s.queue {
		if attempts, err := s.deliver(ev, b); err != nil {
			s.logger.Warn("audit webhook failed",
				ports.String("event_id", ev.ID),
				ports.Worker(ev.WorkerID),
				ports.Int("attempts", attempts),
				ports.Err(err),
			)
		}
	}
}

// deliver posts ev, retrying transient failures with backoff.
func (s *WebhookSink) deliver(ev domain.LifecycleEvent, b *backoff) (int, error) {
	defer b.Reset()
	var err error
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PostTimeout)
		err = s.Post(ctx, ev)
		cancel()
		if err == nil || !retryable(err) || attempt >= s.cfg.MaxAttempts {
			return attempt, err
		}
		if !b.Wait(s.abort) {
			return attempt, err
		}
	}
}

// Post sends one event synchronously.
func (s *WebhookSink) Post(ctx context.Context, ev domain.LifecycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL+eventsEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if s.cfg.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AuthKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Hostname", s.hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	req.Header.Set("X-Event-Type", string(ev.Type))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return &statusError{code: resp.StatusCode, body: string(respBody)}
	}
	return nil
}

var _ ports.AuditSink = (*WebhookSink)(nil)
