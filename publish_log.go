package match

import "sync"

// PublishLog is an interface for publishing execution reports drained from a book.
// Reports are immutable, so implementations may keep the pointers.
type PublishLog interface {
	Publish(...*ExecutionReport) error
}

// MemoryPublishLog stores reports in memory, useful for testing.
type MemoryPublishLog struct {
	mu      sync.RWMutex
	Reports []*ExecutionReport
}

// NewMemoryPublishLog creates a new MemoryPublishLog.
func NewMemoryPublishLog() *MemoryPublishLog {
	return &MemoryPublishLog{
		Reports: make([]*ExecutionReport, 0),
	}
}

// Publish appends reports to the in-memory slice.
func (m *MemoryPublishLog) Publish(reports ...*ExecutionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, reports...)
	return nil
}

// Count returns the number of reports stored.
func (m *MemoryPublishLog) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Reports)
}

// Get returns the report at the specified index.
func (m *MemoryPublishLog) Get(index int) *ExecutionReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Reports[index]
}

// Logs returns a copy of all reports stored.
func (m *MemoryPublishLog) Logs() []*ExecutionReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reports := make([]*ExecutionReport, len(m.Reports))
	copy(reports, m.Reports)
	return reports
}

// DiscardPublishLog discards all reports, useful for benchmarking.
type DiscardPublishLog struct {
}

// NewDiscardPublishLog creates a new DiscardPublishLog.
func NewDiscardPublishLog() *DiscardPublishLog {
	return &DiscardPublishLog{}
}

// Publish does nothing.
func (p *DiscardPublishLog) Publish(reports ...*ExecutionReport) error {
	return nil
}
