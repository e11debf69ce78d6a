package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"finpal-backend/config"
	"finpal-backend/models"
	"finpal-backend/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if !config.LoadEnvFiles() {
		log.Println("Warning: No .env file found, using environment variables")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, config.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	profiles := repository.NewPostgresProfileRepository(pool)

	email := "test@example.com"
	password := "testpassword123"

	existing, err := profiles.GetByEmail(ctx, email)
	if err == nil {
		log.Printf("User with email %s already exists (ID: %s)", email, existing.ID)
		return
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		log.Fatalf("Failed to look up user: %v", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	deadline := time.Now().UTC().AddDate(1, 0, 0)
	profile := &models.UserProfile{
		Email:         email,
		PasswordHash:  string(hashedPassword),
		Name:          "Test User",
		MonthlyIncome: 50000,
		MonthlyExpenses: models.MonthlyExpenses{
			Rent:      15000,
			Food:      8000,
			Utilities: 2000,
			Other:     5000,
		},
		CurrentSavings: 100000,
		Preferences:    models.DefaultPreferences(),
		Goals: models.Goals{{
			ID:            uuid.NewString(),
			Name:          "Emergency fund",
			TargetAmount:  300000,
			CurrentAmount: 100000,
			Deadline:      &deadline,
			Priority:      models.PriorityHigh,
			CreatedAt:     time.Now().UTC(),
		}},
		Conversations: models.ConversationTurns{},
	}

	if err := profiles.Create(ctx, profile); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("✅ Test user created successfully!\n")
	fmt.Printf("   ID: %s\n", profile.ID)
	fmt.Printf("   Email: %s\n", email)
	fmt.Printf("   Password: %s\n", password)
	fmt.Printf("   Disposable income: %s\n", models.FormatAmount(profile.DisposableIncome()))
}
