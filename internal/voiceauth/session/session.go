package session

import (
	"sync"
	"time"

	"voicegate/internal/voiceauth/models"
	id "voicegate/pkg/domain"
	dErrors "voicegate/pkg/domain-errors"
)

// State is the lifecycle position of one authentication attempt.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateScoring       State = "scoring"
	StateDecided       State = "decided"
	StateClosed        State = "closed"
)

// Session is a single verification attempt against one profile.
// It carries the candidate inputs until Evaluate consumes them.
type Session struct {
	ID        id.SessionID
	ProfileID id.ProfileID
	StartedAt time.Time

	mu        sync.Mutex
	state     State
	embedding models.Embedding
	phonemes  models.PhonemeSequence
	result    *models.ScoreResult
	onClose   func()
}

func newSession(profileID id.ProfileID, now time.Time, onClose func()) *Session {
	return &Session{
		ID:        id.NewSessionID(),
		ProfileID: profileID,
		StartedAt: now,
		state:     StateAwaitingInput,
		onClose:   onClose,
	}
}

// SubmitEmbedding stores the candidate voiceprint. A later submission replaces an earlier one.
func (s *Session) SubmitEmbedding(e models.Embedding) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingInput {
		return dErrors.New(dErrors.CodeConflict, "session is not awaiting input")
	}
	s.embedding = e.Clone()
	return nil
}

// SubmitPhonemes stores the recognised passphrase utterance.
func (s *Session) SubmitPhonemes(seq models.PhonemeSequence) error {
	if err := seq.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingInput {
		return dErrors.New(dErrors.CodeConflict, "session is not awaiting input")
	}
	s.phonemes = seq.Clone()
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the decision once the session reached StateDecided.
func (s *Session) Result() (models.ScoreResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return models.ScoreResult{}, false
	}
	return *s.result, true
}

// Close releases the session. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.embedding = nil
	s.phonemes = nil
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// startScoring moves the session to StateScoring and hands back its inputs.
func (s *Session) startScoring() (models.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateAwaitingInput:
	case StateClosed:
		return models.Utterance{}, dErrors.New(dErrors.CodeConflict, "session is closed")
	default:
		return models.Utterance{}, dErrors.New(dErrors.CodeConflict, "session was already evaluated")
	}
	if len(s.embedding) == 0 || len(s.phonemes) == 0 {
		return models.Utterance{}, dErrors.New(dErrors.CodeInvalidInput, "session requires an embedding and a phoneme sequence")
	}
	s.state = StateScoring
	return models.Utterance{Embedding: s.embedding, Phonemes: s.phonemes}, nil
}

func (s *Session) decide(result models.ScoreResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.result = &result
	s.state = StateDecided
}
