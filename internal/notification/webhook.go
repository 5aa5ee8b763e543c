package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var ErrToastQueueFull = errors.New("toast queue full")

type webhookJob struct {
	notification Notification
}

type webhookWorker struct {
	id         int
	workerPool chan chan webhookJob
	jobChannel chan webhookJob
	logger     *slog.Logger
}

func newWebhookWorker(id int, workerPool chan chan webhookJob, logger *slog.Logger) *webhookWorker {
	return &webhookWorker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan webhookJob),
		logger:     logger,
	}
}

func (w *webhookWorker) start(ctx context.Context, wg *sync.WaitGroup, process func(webhookJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobChannel:
				process(job)
			case <-ctx.Done():
				w.logger.Debug("toast worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type WebhookConfig struct {
	URL       string
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// WebhookToaster posts toasts to an HTTP endpoint from a bounded worker pool.
// Toast never blocks: when the queue is full the toast is dropped.
type WebhookToaster struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	jobQueue   chan webhookJob
	workerPool chan chan webhookJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
	stopOnce   sync.Once
}

func NewWebhookToaster(cfg WebhookConfig, logger *slog.Logger) *WebhookToaster {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	t := &WebhookToaster{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		maxWorkers: cfg.Workers,
		jobQueue:   make(chan webhookJob, cfg.QueueSize),
		workerPool: make(chan chan webhookJob, cfg.Workers),
		ctx:        ctx,
		cancel:     cancel,
	}
	t.start()
	return t
}

func (t *WebhookToaster) start() {
	t.once.Do(func() {
		for i := 0; i < t.maxWorkers; i++ {
			worker := newWebhookWorker(i, t.workerPool, t.logger)
			worker.start(t.ctx, &t.wg, t.deliver)
		}

		t.wg.Add(1)
		go t.dispatch()

		t.logger.Info("toast webhook pool started",
			"workers", t.maxWorkers,
			"queue_size", cap(t.jobQueue))
	})
}

func (t *WebhookToaster) dispatch() {
	defer t.wg.Done()

	for {
		select {
		case job := <-t.jobQueue:
			select {
			case jobChannel := <-t.workerPool:
				select {
				case jobChannel <- job:
				case <-t.ctx.Done():
					return
				}
			case <-t.ctx.Done():
				return
			}
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *WebhookToaster) Toast(_ context.Context, n *Notification) error {
	select {
	case <-t.ctx.Done():
		return errors.New("toast webhook pool is shut down")
	default:
	}

	select {
	case t.jobQueue <- webhookJob{notification: *n}:
		return nil
	default:
		t.logger.Warn("toast queue full, dropping toast",
			"notification_id", n.ID,
			"queue_capacity", cap(t.jobQueue))
		return ErrToastQueueFull
	}
}

func (t *WebhookToaster) deliver(job webhookJob) {
	payload, err := json.Marshal(job.notification)
	if err != nil {
		t.logger.Error("failed to marshal toast", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(t.ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		t.logger.Error("failed to build toast request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("toast webhook delivery failed",
			"notification_id", job.notification.ID,
			"error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		t.logger.Warn("toast webhook rejected",
			"notification_id", job.notification.ID,
			"status_code", resp.StatusCode)
		return
	}
	t.logger.Debug("toast delivered",
		"notification_id", job.notification.ID,
		"status_code", resp.StatusCode)
}

// Shutdown stops the workers. Toasts still queued are dropped.
func (t *WebhookToaster) Shutdown() {
	t.stopOnce.Do(func() {
		t.cancel()
		t.wg.Wait()
		t.logger.Info("toast webhook pool stopped")
	})
}

