package repository

import (
	"context"
	"errors"
	"fmt"

	"finpal-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresProfileRepository stores profiles in the profiles table, with
// expenses, preferences, goals and conversations held in JSONB columns
type PostgresProfileRepository struct {
	db *pgxpool.Pool
}

// NewPostgresProfileRepository creates a new Postgres-backed profile repository
func NewPostgresProfileRepository(db *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

const profileColumns = `id, email, password_hash, name, monthly_income, monthly_expenses,
	current_savings, preferences, goals, conversations, created_at, last_login`

// Create creates a new profile
func (r *PostgresProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO profiles (
			email, password_hash, name, monthly_income, monthly_expenses,
			current_savings, preferences, goals, conversations
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, last_login`

	err := r.db.QueryRow(
		ctx, query,
		profile.Email,
		profile.PasswordHash,
		profile.Name,
		profile.MonthlyIncome,
		profile.MonthlyExpenses,
		profile.CurrentSavings,
		profile.Preferences,
		profile.Goals,
		profile.Conversations,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.LastLogin)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a profile by email
func (r *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresProfileRepository) scanOne(row pgx.Row) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Name,
		&profile.MonthlyIncome,
		&profile.MonthlyExpenses,
		&profile.CurrentSavings,
		&profile.Preferences,
		&profile.Goals,
		&profile.Conversations,
		&profile.CreatedAt,
		&profile.LastLogin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// UpdateFinancials updates the financial fields of a profile
func (r *PostgresProfileRepository) UpdateFinancials(ctx context.Context, profile *models.UserProfile) error {
	query := `
		UPDATE profiles SET
			name = $2,
			monthly_income = $3,
			monthly_expenses = $4,
			current_savings = $5,
			preferences = $6
		WHERE id = $1`

	tag, err := r.db.Exec(
		ctx, query,
		profile.ID,
		profile.Name,
		profile.MonthlyIncome,
		profile.MonthlyExpenses,
		profile.CurrentSavings,
		profile.Preferences,
	)
	return checkUpdated(tag, err)
}

// UpdateGoals replaces the goals of a profile
func (r *PostgresProfileRepository) UpdateGoals(ctx context.Context, id uuid.UUID, goals models.Goals) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET goals = $2 WHERE id = $1`, id, goals)
	return checkUpdated(tag, err)
}

// UpdateConversations replaces the conversation history of a profile
func (r *PostgresProfileRepository) UpdateConversations(ctx context.Context, id uuid.UUID, turns models.ConversationTurns) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET conversations = $2 WHERE id = $1`, id, turns)
	return checkUpdated(tag, err)
}

// TouchLastLogin sets last_login to now
func (r *PostgresProfileRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET last_login = NOW() WHERE id = $1`, id)
	return checkUpdated(tag, err)
}

func checkUpdated(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
