package memory

import (
	"context"
	"sync"

	"oc-checklist-service/internal/domain"
)

// RecordStore keeps locked evaluation records in memory.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.EvaluationRecord
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]domain.EvaluationRecord)}
}

// SaveRecord stores the first record per evaluation; later saves are ignored.
func (s *RecordStore) SaveRecord(_ context.Context, record domain.EvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.EvaluationID]; !ok {
		s.records[record.EvaluationID] = record
	}
	return nil
}

func (s *RecordStore) GetRecord(_ context.Context, evaluationID string) (domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[evaluationID]
	if !ok {
		return domain.EvaluationRecord{}, domain.ErrRecordNotFound
	}
	return record, nil
}
