package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// ReminderRunner runs one reminder batch
type ReminderRunner interface {
	Run(ctx context.Context, limit int) (*dto.ReminderRunResponse, error)
}

// ReminderWorkerConfig holds configuration for the reminder worker
type ReminderWorkerConfig struct {
	// ScanInterval is how often to run a batch
	ScanInterval time.Duration
	// BatchSize is the maximum number of orders reminded per batch
	BatchSize int
}

// DefaultReminderWorkerConfig returns default configuration
func DefaultReminderWorkerConfig() *ReminderWorkerConfig {
	return &ReminderWorkerConfig{
		ScanInterval: 15 * time.Minute,
		BatchSize:    50,
	}
}

// ReminderWorkerStats holds worker statistics
type ReminderWorkerStats struct {
	IsRunning     bool      `json:"is_running"`
	TotalRuns     int64     `json:"total_runs"`
	TotalSent     int64     `json:"total_sent"`
	TotalFailed   int64     `json:"total_failed"`
	LastScanTime  time.Time `json:"last_scan_time"`
	LastSentCount int       `json:"last_sent_count"`
	LastError     string    `json:"last_error,omitempty"`
}

// ReminderWorker periodically reminds pending orders
type ReminderWorker struct {
	runner ReminderRunner
	config *ReminderWorkerConfig

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	stats   ReminderWorkerStats
}

// NewReminderWorker creates a new ReminderWorker; config may be nil
func NewReminderWorker(runner ReminderRunner, config *ReminderWorkerConfig) *ReminderWorker {
	if config == nil {
		config = DefaultReminderWorkerConfig()
	}
	return &ReminderWorker{runner: runner, config: config}
}

// Start runs batches until ctx is done or Stop is called
func (w *ReminderWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	logger.Info("reminder worker started",
		zap.Duration("scan_interval", w.config.ScanInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)
	go w.loop(ctx)
}

func (w *ReminderWorker) loop(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		close(w.done)
		w.mu.Unlock()
		logger.Info("reminder worker stopped")
	}()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	res, err := w.runner.Run(ctx, w.config.BatchSize)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.TotalRuns++
	w.stats.LastScanTime = time.Now()
	if err != nil {
		w.stats.LastError = err.Error()
		if ctx.Err() == nil {
			logger.Error("reminder batch failed", zap.Error(err))
		}
	} else {
		w.stats.LastError = ""
	}
	if res != nil {
		w.stats.TotalSent += int64(res.Sent)
		w.stats.TotalFailed += int64(res.Failed)
		w.stats.LastSentCount = res.Sent
	}
}

// Stop cancels the loop and waits for the running batch to finish
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// GetStats returns worker statistics
func (w *ReminderWorker) GetStats() ReminderWorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	stats := w.stats
	stats.IsRunning = w.running
	return stats
}
