package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"civicvoice/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager runs worker goroutines that consume the discussion stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	logger      *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig, logger *slog.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		logger:      logger.With("component", "worker_manager"),
	}
}

// Start ensures the consumer group and launches the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamDiscussion, queue.ConsumerGroupDiscussion); err != nil {
		m.cancel()
		return err
	}

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}

	m.logger.Info("workers started", "count", m.workerCount, "stream", queue.StreamDiscussion)
	return nil
}

// Stop cancels the workers and waits for them to return.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info("workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	// Crash recovery first: replay what this consumer never acked.
	m.processPending(workerID, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(workerID, consumerName)
		}
	}
}

func (m *Manager) processPending(workerID int, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamDiscussion, queue.ConsumerGroupDiscussion, consumerName, m.batchSize)
		if err != nil {
			m.logger.Warn("read pending failed", "worker", workerID, "error", err)
			return
		}
		if len(messages) == 0 {
			return
		}
		m.handleMessages(workerID, messages)
	}
}

func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamDiscussion,
		queue.ConsumerGroupDiscussion,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.logger.Warn("read failed", "worker", workerID, "error", err)
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	m.handleMessages(workerID, messages)
}

func (m *Manager) handleMessages(workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			// Acked anyway; a failed cache refresh only costs a later miss.
			m.logger.Warn("handler error", "worker", workerID, "msg_id", msg.ID, "error", err)
		}
		if err := m.consumer.Ack(m.ctx, queue.StreamDiscussion, queue.ConsumerGroupDiscussion, msg.ID); err != nil {
			m.logger.Warn("ack failed", "worker", workerID, "msg_id", msg.ID, "error", err)
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
