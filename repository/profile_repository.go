package repository

import (
	"context"
	"errors"

	"finpal-backend/models"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailExists     = errors.New("email already registered")
)

// ProfileRepository persists user profiles as single documents. Every update
// touches exactly one profile and relies on the store's single-document atomicity.
type ProfileRepository interface {
	// Create inserts a profile and fills in its ID and timestamps
	Create(ctx context.Context, profile *models.UserProfile) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	// UpdateFinancials writes name, income, expenses, savings and preferences
	UpdateFinancials(ctx context.Context, profile *models.UserProfile) error

	// UpdateGoals replaces the goal list of a profile
	UpdateGoals(ctx context.Context, id uuid.UUID, goals models.Goals) error

	// UpdateConversations replaces the conversation list of a profile
	UpdateConversations(ctx context.Context, id uuid.UUID, turns models.ConversationTurns) error

	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
