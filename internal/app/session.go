package app

import (
	"strings"
	"sync"
	"time"

	"oc-checklist-service/internal/domain"
	"oc-checklist-service/internal/scoring"
)

// Session is the in-memory state of one checklist evaluation: the taxonomy
// plus answers, notes and evidence. Scoring is recomputed from it on every read.
type Session struct {
	id          string
	checklist   domain.Checklist
	evaluator   string
	createdAt   time.Time
	now         func() time.Time
	mu          sync.RWMutex
	state       domain.EvaluationState
	answers     domain.Answers
	notes       map[string]string
	evidence    map[string][]domain.Evidence
	updatedAt   time.Time
	lockedAt    *time.Time
	subscribers map[chan domain.Evaluation]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, checklist domain.Checklist, evaluator string) *Session {
	return newSessionWithClock(id, checklist, evaluator, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, checklist domain.Checklist, evaluator string, now func() time.Time) *Session {
	return newSessionWithClock(id, checklist, evaluator, now)
}

func newSessionWithClock(id string, checklist domain.Checklist, evaluator string, now func() time.Time) *Session {
	created := now()
	return &Session{
		id:          id,
		checklist:   checklist,
		evaluator:   evaluator,
		createdAt:   created,
		updatedAt:   created,
		now:         now,
		state:       domain.StateUnanswered,
		answers:     make(domain.Answers),
		notes:       make(map[string]string),
		evidence:    make(map[string][]domain.Evidence),
		subscribers: make(map[chan domain.Evaluation]struct{}),
	}
}

// ID returns the evaluation id.
func (s *Session) ID() string {
	return s.id
}

// Locked reports whether the evaluation has been submitted.
func (s *Session) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == domain.StateLocked
}

// Snapshot returns a copy of the current state with scoring applied.
func (s *Session) Snapshot() domain.Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) setAnswer(itemID string, answer domain.Answer) (domain.Evaluation, error) {
	if !answer.Valid() {
		return domain.Evaluation{}, domain.ErrInvalidAnswer
	}
	return s.mutate(itemID, func() {
		s.answers[itemID] = answer
	})
}

func (s *Session) clearAnswer(itemID string) (domain.Evaluation, error) {
	return s.mutate(itemID, func() {
		delete(s.answers, itemID)
	})
}

func (s *Session) setNote(itemID, note string) (domain.Evaluation, error) {
	note = strings.TrimSpace(note)
	return s.mutate(itemID, func() {
		if note == "" {
			delete(s.notes, itemID)
			return
		}
		s.notes[itemID] = note
	})
}

func (s *Session) attachEvidence(itemID, url string) (domain.Evaluation, error) {
	return s.mutate(itemID, func() {
		s.evidence[itemID] = append(s.evidence[itemID], domain.Evidence{URL: url, AttachedAt: s.now()})
	})
}

// mutate applies fn for a known item of an unlocked session, then refreshes
// the state and notifies subscribers.
func (s *Session) mutate(itemID string, fn func()) (domain.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateLocked {
		return domain.Evaluation{}, domain.ErrEvaluationLocked
	}
	if _, ok := s.checklist.Item(itemID); !ok {
		return domain.Evaluation{}, domain.ErrItemNotFound
	}

	fn()
	s.updatedAt = s.now()
	if len(s.answers) == 0 {
		s.state = domain.StateUnanswered
	} else {
		s.state = domain.StateInProgress
	}
	return s.broadcastLocked(), nil
}

func (s *Session) submit(opts SubmitOptions, save func(domain.EvaluationRecord) error) (domain.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateLocked {
		return domain.Evaluation{}, domain.ErrEvaluationLocked
	}

	categories := s.checklist.Categories
	progress := scoring.ComputeProgress(categories, s.answers)
	if !progress.Complete() {
		first, _ := scoring.FirstUnanswered(categories, s.answers)
		return domain.Evaluation{}, &domain.IncompleteError{
			Remaining: progress.TotalQuestions - progress.AnsweredCount,
			First:     first,
		}
	}

	if !opts.ConfirmMissingEvidence {
		if missing := s.missingEvidenceLocked(); len(missing) > 0 {
			return domain.Evaluation{}, &domain.MissingEvidenceError{ItemIDs: missing}
		}
	}

	lockedAt := s.now()
	record := domain.EvaluationRecord{
		EvaluationID: s.id,
		ChecklistID:  s.checklist.ID,
		Evaluator:    s.evaluator,
		Answers:      s.answers.Clone(),
		Notes:        cloneNotes(s.notes),
		Evidence:     cloneEvidence(s.evidence),
		Progress:     progress,
		Report:       s.reportLocked(),
		CreatedAt:    s.createdAt,
		LockedAt:     lockedAt,
	}
	if err := save(record); err != nil {
		return domain.Evaluation{}, err
	}

	s.state = domain.StateLocked
	s.lockedAt = &lockedAt
	s.updatedAt = lockedAt
	return s.broadcastLocked(), nil
}

// missingEvidenceLocked lists "no" answers without evidence in taxonomy order.
func (s *Session) missingEvidenceLocked() []string {
	var missing []string
	for _, cat := range s.checklist.Categories {
		for _, sec := range cat.Sections {
			for _, item := range sec.Items {
				if s.answers[item.ID] == domain.AnswerNo && len(s.evidence[item.ID]) == 0 {
					missing = append(missing, item.ID)
				}
			}
		}
	}
	return missing
}

func (s *Session) subscribe() (<-chan domain.Evaluation, func()) {
	ch := make(chan domain.Evaluation, 8)

	// the initial snapshot must be queued before any broadcast can reach ch
	s.mu.Lock()
	ch <- s.snapshotLocked()
	if s.state == domain.StateLocked {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close ends every subscription. Stores call it when they evict the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() domain.Evaluation {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so slow clients never block a mutation
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) reportLocked() domain.Report {
	rep := scoring.Overall(s.checklist.Categories, s.answers)
	rep.ChecklistID = s.checklist.ID
	return rep
}

func (s *Session) snapshotLocked() domain.Evaluation {
	snap := domain.Evaluation{
		ID:          s.id,
		ChecklistID: s.checklist.ID,
		Evaluator:   s.evaluator,
		State:       s.state,
		Answers:     s.answers.Clone(),
		Notes:       cloneNotes(s.notes),
		Evidence:    cloneEvidence(s.evidence),
		Progress:    scoring.ComputeProgress(s.checklist.Categories, s.answers),
		Report:      s.reportLocked(),
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.lockedAt != nil {
		t := *s.lockedAt
		snap.LockedAt = &t
	}
	return snap
}

func cloneNotes(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneEvidence(in map[string][]domain.Evidence) map[string][]domain.Evidence {
	out := make(map[string][]domain.Evidence, len(in))
	for k, v := range in {
		out[k] = append([]domain.Evidence(nil), v...)
	}
	return out
}
