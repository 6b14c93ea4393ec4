package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrChecklistNotFound indicates the checklist taxonomy could not be loaded.
	ErrChecklistNotFound = errors.New("checklist not found")
	// ErrEvaluationNotFound is returned when an evaluation has not been started.
	ErrEvaluationNotFound = errors.New("evaluation not found")
	// ErrEvaluationLocked is returned for any mutation after submission.
	ErrEvaluationLocked = errors.New("evaluation is locked")
	// ErrItemNotFound indicates a submitted item ID is not part of the checklist.
	ErrItemNotFound = errors.New("checklist item not found")
	// ErrInvalidAnswer indicates an answer other than yes, no or na.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrRecordNotFound is returned when no locked record exists for an evaluation.
	ErrRecordNotFound = errors.New("evaluation record not found")
)

// IncompleteError rejects a submission while questions remain unanswered.
type IncompleteError struct {
	Remaining int
	First     ItemRef
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("evaluation incomplete: %d unanswered, first is %s", e.Remaining, e.First.ItemID)
}

// MissingEvidenceError warns that "no" answers lack evidence. It is soft:
// resubmitting with confirmation proceeds.
type MissingEvidenceError struct {
	ItemIDs []string
}

func (e *MissingEvidenceError) Error() string {
	return "evidence missing for: " + strings.Join(e.ItemIDs, ", ")
}
