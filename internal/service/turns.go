package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"scamcheck/internal/conversation"
	"scamcheck/internal/models"

	"go.uber.org/zap"
)

// ErrTurnInFlight is returned when a submission arrives while a previous turn
// for the same identity has not finished.
var ErrTurnInFlight = errors.New("a turn is already in flight for this identity")

// PlaceholderText is the filler shown on the placeholder AI record while the
// classification is running.
const PlaceholderText = "Analyzing message for scam indicators..."

// TurnState tracks where a submission is in its lifecycle.
type TurnState string

const (
	StateIdle               TurnState = "IDLE"
	StateSendingUser        TurnState = "SENDING_USER"
	StateSendingPlaceholder TurnState = "SENDING_PLACEHOLDER"
	StateClassifying        TurnState = "CLASSIFYING"
	StateSendingFinal       TurnState = "SENDING_FINAL"
	StateFailed             TurnState = "FAILED"
)

// Classifier produces a verdict for a message. The contract is total: every
// failure mode comes back as an ERROR-level classification, never an error.
type Classifier interface {
	Classify(ctx context.Context, messageText string) models.Classification
}

// TurnService orchestrates one user submission into a sequence of log
// appends around a single classifier call. At most one turn per identity is
// in flight at a time; turns for different identities are independent.
type TurnService struct {
	log        *conversation.Log
	classifier Classifier
	logger     *zap.Logger

	mu     sync.Mutex
	states map[string]TurnState
}

// NewTurnService creates a turn controller over the given log and classifier.
func NewTurnService(log *conversation.Log, classifier Classifier, logger *zap.Logger) *TurnService {
	return &TurnService{
		log:        log,
		classifier: classifier,
		logger:     logger,
		states:     make(map[string]TurnState),
	}
}

// State reports the current turn state for an identity.
func (s *TurnService) State(identityID string) TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[identityID]; ok {
		return st
	}
	return StateIdle
}

func (s *TurnService) setState(identityID string, st TurnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[identityID] = st
}

// acquire marks a turn as in flight for the identity, rejecting concurrent
// submissions.
func (s *TurnService) acquire(identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.states[identityID] {
	case StateSendingUser, StateSendingPlaceholder, StateClassifying, StateSendingFinal:
		return ErrTurnInFlight
	}

	s.states[identityID] = StateSendingUser
	return nil
}

// Submit runs one full turn: user record, placeholder AI record, classifier
// call, final AI record. Steps are strictly sequential. An append failure
// leaves the turn FAILED with no rollback of earlier records; a classifier
// failure does not fail the turn, it just lands as an ERROR verdict on the
// final record. Returns the final AI record.
func (s *TurnService) Submit(ctx context.Context, identity models.Identity, text string) (models.Record, error) {
	if err := s.acquire(identity.ID); err != nil {
		return models.Record{}, err
	}

	if _, err := s.log.Append(ctx, identity, models.RecordDraft{
		Text:   text,
		Sender: models.SenderUser,
	}); err != nil {
		s.setState(identity.ID, StateFailed)
		return models.Record{}, fmt.Errorf("failed to append user record: %w", err)
	}

	s.setState(identity.ID, StateSendingPlaceholder)
	if _, err := s.log.Append(ctx, identity, models.RecordDraft{
		Text:   PlaceholderText,
		Sender: models.SenderAI,
	}); err != nil {
		s.setState(identity.ID, StateFailed)
		return models.Record{}, fmt.Errorf("failed to append placeholder record: %w", err)
	}

	s.setState(identity.ID, StateClassifying)
	verdict := s.classifier.Classify(ctx, text)

	s.setState(identity.ID, StateSendingFinal)
	final, err := s.log.Append(ctx, identity, models.RecordDraft{
		Text:           verdict.Explanation,
		Sender:         models.SenderAI,
		Classification: &verdict,
	})
	if err != nil {
		s.setState(identity.ID, StateFailed)
		return models.Record{}, fmt.Errorf("failed to append final record: %w", err)
	}

	s.setState(identity.ID, StateIdle)

	s.logger.Info("Turn completed",
		zap.String("identity_id", identity.ID),
		zap.String("level", string(verdict.Level)),
		zap.Int("confidence", verdict.ConfidencePercent),
		zap.Bool("is_scam", verdict.IsScam))

	return final, nil
}
