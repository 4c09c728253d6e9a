package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/shared"
	"golang.org/x/time/rate"
)

// RenderQueue delivers best-effort render requests to the notation render
// service from a background worker.
//
// Enqueue never blocks: when the buffer is full the request is dropped and
// logged. Render failures are logged and swallowed; they never surface to the
// import path that created the version. A nil *RenderQueue is a valid no-op.
type RenderQueue struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger

	jobs   chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRenderQueue creates a queue and starts its worker goroutine.
// rps bounds the request rate against the render service.
func NewRenderQueue(baseURL string, client *http.Client, rps float64, logger *log.Logger) *RenderQueue {
	if client == nil {
		client = http.DefaultClient
	}
	if rps <= 0 {
		rps = 2.0
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &RenderQueue{
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
		jobs:    make(chan string, 64),
		cancel:  cancel,
	}

	q.wg.Add(1)
	go q.worker(ctx)
	return q
}

// Enqueue schedules a render request for the given version without blocking.
func (q *RenderQueue) Enqueue(versionID string) {
	if q == nil {
		return
	}
	select {
	case q.jobs <- versionID:
	default:
		q.logger.Warn("render queue full, dropping request", "version", versionID)
	}
}

// Close stops the worker after draining queued requests.
func (q *RenderQueue) Close() {
	if q == nil {
		return
	}
	q.once.Do(func() {
		close(q.jobs)
		q.wg.Wait()
		q.cancel()
	})
}

func (q *RenderQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	for versionID := range q.jobs {
		if err := q.limiter.Wait(ctx); err != nil {
			return
		}
		if err := q.render(ctx, versionID); err != nil {
			q.logger.Warn("render request failed", "version", versionID, "error", err)
		}
	}
}

func (q *RenderQueue) render(ctx context.Context, versionID string) error {
	payload, err := json.Marshal(map[string]string{"version_id": versionID})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRenderRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRenderRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRenderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrRenderRequest, resp.StatusCode)
	}
	return nil
}
