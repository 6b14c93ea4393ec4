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

// ChecklistLoader loads checklist JSONB from Postgres.
type ChecklistLoader struct {
	pool *pgxpool.Pool
}

func NewChecklistLoader(pool *pgxpool.Pool) *ChecklistLoader {
	return &ChecklistLoader{pool: pool}
}

func (l *ChecklistLoader) LoadChecklist(ctx context.Context, checklistID string) (domain.Checklist, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM checklists WHERE id=$1`, checklistID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Checklist{}, domain.ErrChecklistNotFound
	}
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("load checklist: %w", err)
	}
	var checklist domain.Checklist
	if err := json.Unmarshal(raw, &checklist); err != nil {
		return domain.Checklist{}, fmt.Errorf("unmarshal checklist: %w", err)
	}
	return checklist, nil
}

// SaveChecklist inserts or replaces a checklist taxonomy.
func (l *ChecklistLoader) SaveChecklist(ctx context.Context, checklist domain.Checklist) error {
	data, err := json.Marshal(checklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
INSERT INTO checklists (id, title, data, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, data = EXCLUDED.data, updated_at = now()`,
		checklist.ID, checklist.Title, string(data))
	if err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	return nil
}
