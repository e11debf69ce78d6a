package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finpal-backend/models"
	"finpal-backend/repository"

	"github.com/google/uuid"
)

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrInvalidAmount   = errors.New("amounts must be non-negative and goal targets positive")
	ErrMissingGoalData = errors.New("goal name and target amount are required")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	ErrInvalidRisk     = errors.New("risk tolerance must be low, medium or high")
)

// ProfileService manages the financial profile and goals of a user
type ProfileService struct {
	profiles repository.ProfileRepository
	now      func() time.Time
	newID    func() string
}

// ProfileServiceOption is a functional option for ProfileService
type ProfileServiceOption func(*ProfileService)

// ProfileWithClock sets the clock used for goal creation timestamps
func ProfileWithClock(now func() time.Time) ProfileServiceOption {
	return func(s *ProfileService) {
		s.now = now
	}
}

// ProfileWithIDGenerator sets the goal ID generator
func ProfileWithIDGenerator(newID func() string) ProfileServiceOption {
	return func(s *ProfileService) {
		s.newID = newID
	}
}

// NewProfileService creates a new profile service
func NewProfileService(profiles repository.ProfileRepository, opts ...ProfileServiceOption) *ProfileService {
	s := &ProfileService{
		profiles: profiles,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfileSummary is a profile with its derived figures
type ProfileSummary struct {
	*models.UserProfile
	DisposableIncome float64 `json:"disposableIncome"`
	HourlyWage       float64 `json:"hourlyWage"`
}

func summarize(p *models.UserProfile) *ProfileSummary {
	return &ProfileSummary{
		UserProfile:      p,
		DisposableIncome: p.DisposableIncome(),
		HourlyWage:       p.HourlyWage(),
	}
}

// PreferencesUpdate carries the preference fields to merge into a profile
type PreferencesUpdate struct {
	RiskTolerance        *models.RiskTolerance `json:"riskTolerance"`
	InvestmentInterest   *bool                 `json:"investmentInterest"`
	NotificationsEnabled *bool                 `json:"notificationsEnabled"`
}

// UpdateProfileRequest represents a partial profile update. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name            *string                 `json:"name"`
	MonthlyIncome   *float64                `json:"monthlyIncome"`
	MonthlyExpenses *models.MonthlyExpenses `json:"monthlyExpenses"`
	CurrentSavings  *float64                `json:"currentSavings"`
	Preferences     *PreferencesUpdate      `json:"preferences"`
}

// AddGoalRequest represents a new goal
type AddGoalRequest struct {
	Name         string              `json:"name"`
	TargetAmount float64             `json:"targetAmount"`
	Deadline     *models.Date        `json:"deadline"`
	Priority     models.GoalPriority `json:"priority"`
}

// UpdateGoalRequest represents a partial goal update. Nil fields are left unchanged.
type UpdateGoalRequest struct {
	Name          *string              `json:"name"`
	TargetAmount  *float64             `json:"targetAmount"`
	CurrentAmount *float64             `json:"currentAmount"`
	Deadline      *models.Date         `json:"deadline"`
	Priority      *models.GoalPriority `json:"priority"`
}

// GetProfile returns the profile with derived figures
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileSummary, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(profile), nil
}

// UpdateProfile applies a partial update. Preferences are merged field by field.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileSummary, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		profile.Name = strings.TrimSpace(*req.Name)
	}
	if req.MonthlyIncome != nil {
		profile.MonthlyIncome = *req.MonthlyIncome
	}
	if req.MonthlyExpenses != nil {
		profile.MonthlyExpenses = *req.MonthlyExpenses
	}
	if req.CurrentSavings != nil {
		profile.CurrentSavings = *req.CurrentSavings
	}
	if p := req.Preferences; p != nil {
		if p.RiskTolerance != nil {
			profile.Preferences.RiskTolerance = *p.RiskTolerance
		}
		if p.InvestmentInterest != nil {
			profile.Preferences.InvestmentInterest = *p.InvestmentInterest
		}
		if p.NotificationsEnabled != nil {
			profile.Preferences.NotificationsEnabled = *p.NotificationsEnabled
		}
	}

	if err := s.profiles.UpdateFinancials(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return summarize(profile), nil
}

func (r UpdateProfileRequest) validate() error {
	if r.MonthlyIncome != nil && *r.MonthlyIncome < 0 {
		return ErrInvalidAmount
	}
	if r.CurrentSavings != nil && *r.CurrentSavings < 0 {
		return ErrInvalidAmount
	}
	if r.MonthlyExpenses != nil && !r.MonthlyExpenses.Valid() {
		return ErrInvalidAmount
	}
	if r.Preferences != nil && r.Preferences.RiskTolerance != nil && !r.Preferences.RiskTolerance.Valid() {
		return ErrInvalidRisk
	}
	return nil
}

// AddGoal appends a goal and returns the updated goal list
func (s *ProfileService) AddGoal(ctx context.Context, userID uuid.UUID, req AddGoalRequest) (models.Goals, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.TargetAmount == 0 {
		return nil, ErrMissingGoalData
	}
	if req.TargetAmount < 0 {
		return nil, ErrInvalidAmount
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	goals := append(profile.Goals, models.Goal{
		ID:           s.newID(),
		Name:         name,
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline.TimePtr(),
		Priority:     priority,
		CreatedAt:    s.now().UTC(),
	})
	if err := s.profiles.UpdateGoals(ctx, userID, goals); err != nil {
		return nil, fmt.Errorf("failed to add goal: %w", err)
	}
	return goals, nil
}

// UpdateGoal applies a partial update to one goal and returns the updated goal list
func (s *ProfileService) UpdateGoal(ctx context.Context, userID uuid.UUID, goalID string, req UpdateGoalRequest) (models.Goals, error) {
	if (req.TargetAmount != nil && *req.TargetAmount <= 0) || (req.CurrentAmount != nil && *req.CurrentAmount < 0) {
		return nil, ErrInvalidAmount
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := profile.FindGoal(goalID)
	if i < 0 {
		return nil, ErrGoalNotFound
	}
	goal := &profile.Goals[i]
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		goal.Name = strings.TrimSpace(*req.Name)
	}
	if req.TargetAmount != nil {
		goal.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		goal.CurrentAmount = *req.CurrentAmount
	}
	if req.Deadline != nil {
		goal.Deadline = req.Deadline.TimePtr()
	}
	if req.Priority != nil {
		goal.Priority = *req.Priority
	}

	if err := s.profiles.UpdateGoals(ctx, userID, profile.Goals); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return profile.Goals, nil
}

// DeleteGoal removes one goal and returns the remaining goals
func (s *ProfileService) DeleteGoal(ctx context.Context, userID uuid.UUID, goalID string) (models.Goals, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := profile.FindGoal(goalID)
	if i < 0 {
		return nil, ErrGoalNotFound
	}
	goals := make(models.Goals, 0, len(profile.Goals)-1)
	goals = append(goals, profile.Goals[:i]...)
	goals = append(goals, profile.Goals[i+1:]...)

	if err := s.profiles.UpdateGoals(ctx, userID, goals); err != nil {
		return nil, fmt.Errorf("failed to delete goal: %w", err)
	}
	return goals, nil
}

// BuildContext snapshots the user's profile for the agents
func (s *ProfileService) BuildContext(ctx context.Context, userID uuid.UUID) (models.FinancialContext, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return models.FinancialContext{}, err
	}
	return models.NewFinancialContext(profile), nil
}
