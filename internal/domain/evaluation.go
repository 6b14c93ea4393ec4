package domain

import "time"

// EvaluationState is the lifecycle state of one checklist evaluation.
type EvaluationState string

const (
	StateUnanswered EvaluationState = "unanswered"
	StateInProgress EvaluationState = "in_progress"
	StateLocked     EvaluationState = "locked"
)

// Evidence is supporting material attached to an item, usually an image.
type Evidence struct {
	URL        string    `json:"url"`
	AttachedAt time.Time `json:"attachedAt"`
}

// Evaluation is a point-in-time view of one evaluation instance.
type Evaluation struct {
	ID          string                `json:"id"`
	ChecklistID string                `json:"checklistId"`
	Evaluator   string                `json:"evaluator"`
	State       EvaluationState       `json:"state"`
	Answers     Answers               `json:"answers"`
	Notes       map[string]string     `json:"notes,omitempty"`
	Evidence    map[string][]Evidence `json:"evidence,omitempty"`
	Progress    Progress              `json:"progress"`
	Report      Report                `json:"report"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	LockedAt    *time.Time            `json:"lockedAt,omitempty"`
}

// EvaluationRecord is the permanent record written when an evaluation locks.
type EvaluationRecord struct {
	EvaluationID string                `json:"evaluationId"`
	ChecklistID  string                `json:"checklistId"`
	Evaluator    string                `json:"evaluator"`
	Answers      Answers               `json:"answers"`
	Notes        map[string]string     `json:"notes,omitempty"`
	Evidence     map[string][]Evidence `json:"evidence,omitempty"`
	Progress     Progress              `json:"progress"`
	Report       Report                `json:"report"`
	CreatedAt    time.Time             `json:"createdAt"`
	LockedAt     time.Time             `json:"lockedAt"`
}

// Evaluation rebuilds the locked snapshot from the record.
func (r EvaluationRecord) Evaluation() Evaluation {
	lockedAt := r.LockedAt
	return Evaluation{
		ID:          r.EvaluationID,
		ChecklistID: r.ChecklistID,
		Evaluator:   r.Evaluator,
		State:       StateLocked,
		Answers:     r.Answers,
		Notes:       r.Notes,
		Evidence:    r.Evidence,
		Progress:    r.Progress,
		Report:      r.Report,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.LockedAt,
		LockedAt:    &lockedAt,
	}
}
