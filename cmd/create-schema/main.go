package main

import (
	"context"
	"log"

	"finpal-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    name VARCHAR(255) NOT NULL,

    -- Financial profile
    monthly_income DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (monthly_income >= 0),
    monthly_expenses JSONB NOT NULL DEFAULT '{"rent":0,"food":0,"existingEmis":0,"utilities":0,"other":0}'::jsonb,
    current_savings DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (current_savings >= 0),
    preferences JSONB NOT NULL DEFAULT '{"riskTolerance":"medium","investmentInterest":false,"notificationsEnabled":true}'::jsonb,

    -- Goals and the retained conversation turns live on the profile row
    goals JSONB NOT NULL DEFAULT '[]'::jsonb,
    conversations JSONB NOT NULL DEFAULT '[]'::jsonb,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func main() {
	config.LoadEnvFiles()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, config.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create profiles table: %v", err)
	}
	log.Println("✓ profiles table ready")

	if _, err := pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_profiles_last_login ON profiles(last_login)"); err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	log.Println("✓ indexes created")
}
