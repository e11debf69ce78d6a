package service

import (
	"context"
	"fmt"
	"time"

	"finpal-backend/logger"
	"finpal-backend/models"
	"finpal-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TurnArchiver receives conversation turns dropped by the retention cap.
// Discard removes an archive whose turns were never dropped from the profile.
type TurnArchiver interface {
	Archive(ctx context.Context, userID uuid.UUID, turns models.ConversationTurns) (string, error)
	Discard(ctx context.Context, location string) error
}

// LedgerService records agent exchanges on the user's profile
type LedgerService struct {
	profiles repository.ProfileRepository
	archiver TurnArchiver
	maxTurns int
	now      func() time.Time
}

// LedgerServiceOption is a functional option for LedgerService
type LedgerServiceOption func(*LedgerService)

// LedgerWithArchiver sets where evicted turns are written. Without one they are discarded.
func LedgerWithArchiver(a TurnArchiver) LedgerServiceOption {
	return func(s *LedgerService) {
		s.archiver = a
	}
}

// LedgerWithClock sets the clock used to timestamp turns
func LedgerWithClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger service
func NewLedgerService(profiles repository.ProfileRepository, opts ...LedgerServiceOption) *LedgerService {
	s := &LedgerService{
		profiles: profiles,
		maxTurns: models.MaxConversationTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends one turn per response in envelope to the user's history and
// trims it to the most recent turns. Unsuccessful or empty envelopes are not
// recorded.
func (s *LedgerService) Record(ctx context.Context, userID uuid.UUID, message string, envelope *models.RoutedResponse) error {
	if envelope == nil || !envelope.Success || len(envelope.Responses) == 0 {
		return nil
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	timestamp := s.now()
	added := make(models.ConversationTurns, 0, len(envelope.Responses))
	for _, r := range envelope.Responses {
		added = append(added, models.ConversationTurn{
			AgentType: r.Agent,
			Message:   message,
			Response:  r.Text(),
			Timestamp: timestamp,
		})
	}

	kept, evicted := models.AppendTurns(profile.Conversations, added, s.maxTurns)
	var location string
	if len(evicted) > 0 && s.archiver != nil {
		location, err = s.archiver.Archive(ctx, userID, evicted)
		if err != nil {
			logger.Get().Warn("failed to archive evicted turns",
				zap.String("user_id", userID.String()),
				zap.Int("turns", len(evicted)),
				zap.Error(err))
			location = ""
		} else {
			logger.Get().Debug("archived evicted turns",
				zap.String("user_id", userID.String()),
				zap.String("location", location))
		}
	}

	if err := s.profiles.UpdateConversations(ctx, userID, kept); err != nil {
		// The evicted turns are still on the stored profile.
		if location != "" {
			if derr := s.archiver.Discard(ctx, location); derr != nil {
				logger.Get().Warn("failed to discard archived turns",
					zap.String("location", location),
					zap.Error(derr))
			}
		}
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// History returns the user's retained turns, most recent first
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID) (models.ConversationTurns, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile.Conversations.NewestFirst(), nil
}
