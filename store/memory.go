package store

import (
	"context"
	"sync"

	"github.com/spektr-org/equipdash/engine"
)

// MemoryStore keeps uploads in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	keep    int
	order   []string // newest first
	uploads map[string]Upload
	records map[string][]engine.EquipmentRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	return &MemoryStore{
		keep:    o.keep,
		uploads: make(map[string]Upload),
		records: make(map[string][]engine.EquipmentRecord),
	}
}

func (s *MemoryStore) Save(_ context.Context, upload Upload, records []engine.EquipmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.uploads[upload.ID]; exists {
		s.remove(upload.ID)
	}

	upload.RecordCount = len(records)
	s.uploads[upload.ID] = upload
	s.records[upload.ID] = append([]engine.EquipmentRecord(nil), records...)
	s.order = append([]string{upload.ID}, s.order...)

	for len(s.order) > s.keep {
		s.remove(s.order[len(s.order)-1])
	}
	return nil
}

// remove expects s.mu held.
func (s *MemoryStore) remove(id string) {
	delete(s.uploads, id)
	delete(s.records, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) Latest(_ context.Context) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, ErrNotFound
	}
	u := s.uploads[s.order[0]]
	return &u, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Records(_ context.Context, id string) ([]engine.EquipmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(make([]engine.EquipmentRecord, 0, len(recs)), recs...), nil
}

func (s *MemoryStore) History(_ context.Context, limit int) ([]Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := historyLimit(limit, len(s.order))
	out := make([]Upload, 0, n)
	for _, id := range s.order[:n] {
		out = append(out, s.uploads[id])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
