// Package testkit provides in-memory adapters and deterministic demo data
// for tests and for running the API or dashboard without a database.
package testkit

import (
	"context"
	"sync"

	"gocompare/domain/core"
	"gocompare/domain/dataset"
	"gocompare/domain/run"
	"gocompare/ports"
)

// TestKit bundles the in-memory infrastructure behind one shared state, so a
// pipeline writing runs and a UI reading them see the same storage.
type TestKit struct {
	runs *InMemoryRunRepository
}

// NewTestKit creates a test kit with empty storage.
func NewTestKit() *TestKit {
	return &TestKit{runs: NewInMemoryRunRepository()}
}

// RunRepository returns the shared in-memory run store.
func (t *TestKit) RunRepository() ports.RunRepository {
	return t.runs
}

// RunWriter returns the write side of the shared store.
func (t *TestKit) RunWriter() ports.RunWriter {
	return t.runs
}

// RunReader returns the read side of the shared store.
func (t *TestKit) RunReader() ports.RunReader {
	return t.runs
}

// InMemoryRunRepository implements ports.RunRepository with map storage.
// Records are kept in insertion order; ListRuns returns newest first.
type InMemoryRunRepository struct {
	mu      sync.RWMutex
	records map[core.RunID]*run.Record
	order   []core.RunID
}

// NewInMemoryRunRepository creates an empty in-memory run store.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		records: make(map[core.RunID]*run.Record),
	}
}

// SaveRun stores a record. Saving an ID twice is an error, matching the
// append-only contract of the port.
func (s *InMemoryRunRepository) SaveRun(ctx context.Context, record *run.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return core.NewValidationError("run_record", "run "+record.ID.String()+" already stored")
	}

	stored := *record
	s.records[record.ID] = &stored
	s.order = append(s.order, record.ID)
	return nil
}

// GetRun returns the stored record for id.
func (s *InMemoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*run.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, core.ErrRunNotFound
	}
	copied := *record
	return &copied, nil
}

// ListRuns returns run summaries newest first.
func (s *InMemoryRunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]ports.RunSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		summaries = append(summaries, ports.Summarize(s.records[s.order[i]]))
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(summaries) {
			return []ports.RunSummary{}, nil
		}
		summaries = summaries[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(summaries) {
		summaries = summaries[:filters.Limit]
	}
	return summaries, nil
}

// Len reports how many runs are stored.
func (s *InMemoryRunRepository) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// StaticDatasetReader serves a pre-built frame through the dataset port, so
// pipelines can run against generated data without touching the filesystem.
type StaticDatasetReader struct {
	frame *dataset.Frame
}

// NewStaticDatasetReader wraps an existing frame.
func NewStaticDatasetReader(frame *dataset.Frame) *StaticDatasetReader {
	return &StaticDatasetReader{frame: frame}
}

// Read returns the wrapped frame.
func (r *StaticDatasetReader) Read() (*dataset.Frame, error) {
	return r.frame, nil
}
