package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"oc-checklist-service/internal/domain"
)

// SessionRepository abstracts where live evaluation sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(evaluationID string) (*Session, bool)
	Delete(evaluationID string)
}

// ChecklistRepository loads checklist taxonomies (from cache/backing store).
type ChecklistRepository interface {
	GetChecklist(ctx context.Context, checklistID string) (domain.Checklist, error)
}

// RecordStore keeps the permanent record of locked evaluations.
type RecordStore interface {
	SaveRecord(ctx context.Context, record domain.EvaluationRecord) error
	GetRecord(ctx context.Context, evaluationID string) (domain.EvaluationRecord, error)
}

// SubmitOptions controls how a submission treats soft warnings.
type SubmitOptions struct {
	// ConfirmMissingEvidence proceeds even when "no" answers have no evidence.
	ConfirmMissingEvidence bool
}

// EvaluationService contains the checklist evaluation use cases.
type EvaluationService struct {
	sessions   SessionRepository
	checklists ChecklistRepository
	records    RecordStore
	now        func() time.Time
	newID      func() string
}

func NewEvaluationService(sessions SessionRepository, checklists ChecklistRepository, records RecordStore) *EvaluationService {
	return &EvaluationService{
		sessions:   sessions,
		checklists: checklists,
		records:    records,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Checklist returns the taxonomy for checklistID.
func (s *EvaluationService) Checklist(ctx context.Context, checklistID string) (domain.Checklist, error) {
	return s.checklists.GetChecklist(ctx, checklistID)
}

// Start opens a new evaluation of checklistID in the Unanswered state.
func (s *EvaluationService) Start(ctx context.Context, checklistID, evaluator string) (domain.Evaluation, error) {
	checklist, err := s.checklists.GetChecklist(ctx, checklistID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	session := newSessionWithClock(s.newID(), checklist, evaluator, s.now)
	s.sessions.Add(session)
	return session.Snapshot(), nil
}

// Get returns the current snapshot with freshly computed progress and report.
// Locked evaluations are served from their record.
func (s *EvaluationService) Get(ctx context.Context, evaluationID string) (domain.Evaluation, error) {
	if session, ok := s.sessions.Get(evaluationID); ok {
		return session.Snapshot(), nil
	}
	record, err := s.records.GetRecord(ctx, evaluationID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return domain.Evaluation{}, err
	}
	return record.Evaluation(), nil
}

// Answer records or overwrites the answer for one item.
func (s *EvaluationService) Answer(ctx context.Context, evaluationID, itemID string, answer domain.Answer) (domain.Evaluation, error) {
	session, err := s.live(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return session.setAnswer(itemID, answer)
}

// ClearAnswer marks an item unanswered again.
func (s *EvaluationService) ClearAnswer(ctx context.Context, evaluationID, itemID string) (domain.Evaluation, error) {
	session, err := s.live(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return session.clearAnswer(itemID)
}

// SetNote attaches a free-text note to an item. An empty note removes it.
func (s *EvaluationService) SetNote(ctx context.Context, evaluationID, itemID, note string) (domain.Evaluation, error) {
	session, err := s.live(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return session.setNote(itemID, note)
}

// AttachEvidence adds supporting material, usually an image URL, to an item.
func (s *EvaluationService) AttachEvidence(ctx context.Context, evaluationID, itemID, url string) (domain.Evaluation, error) {
	session, err := s.live(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return session.attachEvidence(itemID, url)
}

// Submit locks the evaluation. Incomplete evaluations are rejected with
// *domain.IncompleteError; unconfirmed "no" answers without evidence return
// *domain.MissingEvidenceError. Neither changes state. Once locked, the
// session is evicted and the saved record serves later reads.
func (s *EvaluationService) Submit(ctx context.Context, evaluationID string, opts SubmitOptions) (domain.Evaluation, error) {
	session, err := s.live(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	ev, err := session.submit(opts, func(record domain.EvaluationRecord) error {
		return s.records.SaveRecord(ctx, record)
	})
	if err != nil {
		return domain.Evaluation{}, err
	}
	s.sessions.Delete(evaluationID)
	session.Close()
	return ev, nil
}

// Record returns the permanent record of a locked evaluation.
func (s *EvaluationService) Record(ctx context.Context, evaluationID string) (domain.EvaluationRecord, error) {
	return s.records.GetRecord(ctx, evaluationID)
}

// Subscribe returns a channel that receives a snapshot after every change.
// The caller must invoke the returned cancel function to avoid leaks. For a
// locked evaluation the channel holds the final snapshot and is closed.
func (s *EvaluationService) Subscribe(ctx context.Context, evaluationID string) (<-chan domain.Evaluation, func(), error) {
	if session, ok := s.sessions.Get(evaluationID); ok {
		ch, cancel := session.subscribe()
		return ch, cancel, nil
	}
	ev, err := s.Get(ctx, evaluationID)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.Evaluation, 1)
	ch <- ev
	close(ch)
	return ch, func() {}, nil
}

// Discard drops a live evaluation session. Locked evaluations cannot be discarded.
func (s *EvaluationService) Discard(ctx context.Context, evaluationID string) error {
	session, err := s.live(ctx, evaluationID)
	if err != nil {
		return err
	}
	s.sessions.Delete(evaluationID)
	session.Close()
	return nil
}

// live returns the session of an open evaluation. An evaluation that only
// exists as a record is locked.
func (s *EvaluationService) live(ctx context.Context, evaluationID string) (*Session, error) {
	if session, ok := s.sessions.Get(evaluationID); ok {
		return session, nil
	}
	_, err := s.records.GetRecord(ctx, evaluationID)
	switch {
	case err == nil:
		return nil, domain.ErrEvaluationLocked
	case errors.Is(err, domain.ErrRecordNotFound):
		return nil, domain.ErrEvaluationNotFound
	default:
		return nil, err
	}
}
