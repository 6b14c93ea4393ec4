package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"oc-checklist-service/internal/domain"
)

// RecordStore persists locked evaluations. Records are write-once.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) SaveRecord(ctx context.Context, record domain.EvaluationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO evaluation_records (evaluation_id, checklist_id, evaluator, total_percent, total_rank, data, locked_at)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
ON CONFLICT (evaluation_id) DO NOTHING`,
		record.EvaluationID, record.ChecklistID, record.Evaluator,
		record.Report.Total.Percent, string(record.Report.Total.Rank), string(data), record.LockedAt)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *RecordStore) GetRecord(ctx context.Context, evaluationID string) (domain.EvaluationRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM evaluation_records WHERE evaluation_id=$1`, evaluationID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EvaluationRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.EvaluationRecord{}, fmt.Errorf("load record: %w", err)
	}
	var record domain.EvaluationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.EvaluationRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return record, nil
}
