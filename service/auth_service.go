package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finpal-backend/models"
	"finpal-backend/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = errors.New("user already exists with this email")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrMissingCredentials  = errors.New("email, password and name are required")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenSecretRequired = errors.New("token secret is required")
)

const tokenIssuer = "finpal"

// AuthService registers users and issues signed access tokens
type AuthService struct {
	profiles   repository.ProfileRepository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// AuthWithTokenTTL sets how long issued tokens stay valid
func AuthWithTokenTTL(ttl time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		s.tokenTTL = ttl
	}
}

// AuthWithBcryptCost sets the password hashing cost
func AuthWithBcryptCost(cost int) AuthServiceOption {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

// AuthWithClock sets the clock used for token timestamps
func AuthWithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new auth service signing tokens with secret
func NewAuthService(profiles repository.ProfileRepository, secret string, opts ...AuthServiceOption) (*AuthService, error) {
	if secret == "" {
		return nil, ErrTokenSecretRequired
	}
	s := &AuthService{
		profiles:   profiles,
		secret:     []byte(secret),
		tokenTTL:   30 * 24 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignupRequest represents a new account with optional financial details
type SignupRequest struct {
	Email           string                  `json:"email"`
	Password        string                  `json:"password"`
	Name            string                  `json:"name"`
	MonthlyIncome   float64                 `json:"monthlyIncome"`
	MonthlyExpenses *models.MonthlyExpenses `json:"monthlyExpenses"`
	CurrentSavings  float64                 `json:"currentSavings"`
}

// LoginRequest represents a credential check
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the authenticated profile and its access token
type AuthResult struct {
	User  *models.UserProfile `json:"user"`
	Token string              `json:"token"`
}

// Signup creates a profile and returns a token for it
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return nil, ErrMissingCredentials
	}
	if req.MonthlyIncome < 0 || req.CurrentSavings < 0 {
		return nil, ErrInvalidAmount
	}

	profile := &models.UserProfile{
		Email:          email,
		Name:           name,
		MonthlyIncome:  req.MonthlyIncome,
		CurrentSavings: req.CurrentSavings,
		Preferences:    models.DefaultPreferences(),
		Goals:          models.Goals{},
		Conversations:  models.ConversationTurns{},
	}
	if req.MonthlyExpenses != nil {
		if !req.MonthlyExpenses.Valid() {
			return nil, ErrInvalidAmount
		}
		profile.MonthlyExpenses = *req.MonthlyExpenses
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	profile.PasswordHash = string(hash)

	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.IssueToken(profile.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: profile, Token: token}, nil
}

// Login verifies credentials, records the login time and returns a token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.profiles.TouchLastLogin(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	profile.LastLogin = s.now().UTC()

	token, err := s.IssueToken(profile.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: profile, Token: token}, nil
}

// IssueToken signs an HS256 token whose subject is the user ID
func (s *AuthService) IssueToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns the user ID it was issued for
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// CurrentUser returns the profile behind an authenticated request
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return s.profiles.GetByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
