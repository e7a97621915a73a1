package tactile

import (
	"context"
	"sync"
	"time"
)

// AuditEventType identifies a point in a command's lifecycle.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "execution_start"
	AuditEventComplete AuditEventType = "execution_complete"
	AuditEventKilled   AuditEventType = "execution_killed"
	AuditEventError    AuditEventType = "execution_error"
)

// AuditEvent is one observation of a toolchain run.
type AuditEvent struct {
	Type      AuditEventType   `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Command   Command          `json:"command"`
	Result    *ExecutionResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// AuditLogger fans audit events out to callbacks and keeps running totals.
type AuditLogger struct {
	mu        sync.RWMutex
	callbacks []func(AuditEvent)
	metrics   *ExecutionMetrics
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{metrics: NewExecutionMetrics()}
}

// AddCallback adds a callback function for audit events.
func (l *AuditLogger) AddCallback(callback func(AuditEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// Log records event.
func (l *AuditLogger) Log(event AuditEvent) {
	l.mu.RLock()
	callbacks := l.callbacks
	l.mu.RUnlock()

	l.metrics.RecordEvent(event)
	for _, cb := range callbacks {
		cb(event)
	}
}

// Metrics returns the current execution metrics.
func (l *AuditLogger) Metrics() ExecutionMetricsSnapshot {
	return l.metrics.Snapshot()
}

// ExecutionMetrics tracks aggregate execution statistics.
type ExecutionMetrics struct {
	mu sync.RWMutex

	total      int64
	successful int64
	failed     int64
	killed     int64
	duration   time.Duration
	byBinary   map[string]int64
}

// NewExecutionMetrics creates a new metrics tracker.
func NewExecutionMetrics() *ExecutionMetrics {
	return &ExecutionMetrics{byBinary: make(map[string]int64)}
}

// RecordEvent updates metrics based on an audit event.
func (m *ExecutionMetrics) RecordEvent(event AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event.Type {
	case AuditEventStart:
		m.total++
		m.byBinary[event.Command.Binary]++
	case AuditEventComplete:
		if event.Result.Succeeded() {
			m.successful++
		} else {
			m.failed++
		}
		if event.Result != nil {
			m.duration += event.Result.Duration
		}
	case AuditEventKilled:
		m.killed++
		if event.Result != nil {
			m.duration += event.Result.Duration
		}
	case AuditEventError:
		m.failed++
	}
}

// ExecutionMetricsSnapshot is a point-in-time copy of the metrics.
type ExecutionMetricsSnapshot struct {
	Total      int64            `json:"total"`
	Successful int64            `json:"successful"`
	Failed     int64            `json:"failed"`
	Killed     int64            `json:"killed"`
	Duration   time.Duration    `json:"duration"`
	ByBinary   map[string]int64 `json:"by_binary"`
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *ExecutionMetrics) Snapshot() ExecutionMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byBinary := make(map[string]int64, len(m.byBinary))
	for k, v := range m.byBinary {
		byBinary[k] = v
	}
	return ExecutionMetricsSnapshot{
		Total:      m.total,
		Successful: m.successful,
		Failed:     m.failed,
		Killed:     m.killed,
		Duration:   m.duration,
		ByBinary:   byBinary,
	}
}

// AuditedExecutor wraps any Executor to add audit logging.
type AuditedExecutor struct {
	executor Executor
	logger   *AuditLogger
}

// NewAuditedExecutor wraps an executor with audit logging.
func NewAuditedExecutor(executor Executor, logger *AuditLogger) *AuditedExecutor {
	return &AuditedExecutor{executor: executor, logger: logger}
}

// Execute runs cmd, logging its start and outcome.
func (w *AuditedExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	w.logger.Log(AuditEvent{Type: AuditEventStart, Timestamp: time.Now(), Command: cmd})

	result, err := w.executor.Execute(ctx, cmd)

	event := AuditEvent{Timestamp: time.Now(), Command: cmd, Result: result}
	switch {
	case err != nil:
		event.Type = AuditEventError
		event.Error = err.Error()
	case result == nil:
		event.Type = AuditEventError
		event.Error = "no result"
	case result.Killed:
		event.Type = AuditEventKilled
	default:
		event.Type = AuditEventComplete
	}
	w.logger.Log(event)
	return result, err
}

// Logger returns the audit logger.
func (w *AuditedExecutor) Logger() *AuditLogger {
	return w.logger
}
