package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"finpal-backend/models"
	"finpal-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfileService(repo *memoryProfileRepo) *ProfileService {
	n := 0
	return NewProfileService(repo,
		ProfileWithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		ProfileWithIDGenerator(func() string {
			n++
			return "goal-" + string(rune('0'+n))
		}),
	)
}

func TestAddGoal(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c"})
	svc := newTestProfileService(repo)

	goals, err := svc.AddGoal(context.Background(), userID, AddGoalRequest{Name: " Vacation ", TargetAmount: 80000})

	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "goal-1", goals[0].ID)
	assert.Equal(t, "Vacation", goals[0].Name)
	assert.Equal(t, models.PriorityMedium, goals[0].Priority)
	assert.Zero(t, goals[0].CurrentAmount)
	assert.Nil(t, goals[0].Deadline)
	assert.Equal(t, goals, repo.stored(userID).Goals)
}

func TestAddGoalValidation(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c"})
	svc := newTestProfileService(repo)
	ctx := context.Background()

	tests := []struct {
		name string
		req  AddGoalRequest
		err  error
	}{
		{name: "missing name", req: AddGoalRequest{TargetAmount: 100}, err: ErrMissingGoalData},
		{name: "missing target", req: AddGoalRequest{Name: "Car"}, err: ErrMissingGoalData},
		{name: "negative target", req: AddGoalRequest{Name: "Car", TargetAmount: -5}, err: ErrInvalidAmount},
		{name: "bad priority", req: AddGoalRequest{Name: "Car", TargetAmount: 5, Priority: "urgent"}, err: ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddGoal(ctx, userID, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Zero(t, repo.goalUpdates)

	_, err := svc.AddGoal(ctx, uuid.New(), AddGoalRequest{Name: "Car", TargetAmount: 5})
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}

func TestUpdateGoal(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c", Goals: models.Goals{
		{ID: "g1", Name: "Car", TargetAmount: 500000, Priority: models.PriorityLow},
		{ID: "g2", Name: "Phone", TargetAmount: 60000, Priority: models.PriorityMedium},
	}})
	svc := newTestProfileService(repo)
	high := models.PriorityHigh

	goals, err := svc.UpdateGoal(context.Background(), userID, "g1", UpdateGoalRequest{
		CurrentAmount: floatPtr(125000),
		Priority:      &high,
	})

	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Car", goals[0].Name)
	assert.Equal(t, 500000.0, goals[0].TargetAmount)
	assert.Equal(t, 125000.0, goals[0].CurrentAmount)
	assert.Equal(t, models.PriorityHigh, goals[0].Priority)
	assert.Equal(t, 25.0, goals[0].Progress())
	assert.Equal(t, "Phone", goals[1].Name)

	_, err = svc.UpdateGoal(context.Background(), userID, "missing", UpdateGoalRequest{Name: stringPtr("x")})
	assert.ErrorIs(t, err, ErrGoalNotFound)

	_, err = svc.UpdateGoal(context.Background(), userID, "g1", UpdateGoalRequest{CurrentAmount: floatPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUpdateGoalRejectsNonPositiveTarget(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c", Goals: models.Goals{
		{ID: "g1", Name: "Car", TargetAmount: 500000},
	}})
	svc := newTestProfileService(repo)

	for _, target := range []float64{0, -10} {
		_, err := svc.UpdateGoal(context.Background(), userID, "g1", UpdateGoalRequest{TargetAmount: floatPtr(target)})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Zero(t, repo.goalUpdates)
	assert.Equal(t, 500000.0, repo.stored(userID).Goals[0].TargetAmount)
}

func TestGoalDeadlineAcceptsDateAndTimestamp(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c"})
	svc := newTestProfileService(repo)
	ctx := context.Background()

	var add AddGoalRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Trip","targetAmount":90000,"deadline":"2027-06-30"}`), &add))
	goals, err := svc.AddGoal(ctx, userID, add)
	require.NoError(t, err)
	require.NotNil(t, goals[0].Deadline)
	assert.Equal(t, time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC), *goals[0].Deadline)

	var update UpdateGoalRequest
	require.NoError(t, json.Unmarshal([]byte(`{"deadline":"2027-12-31T18:30:00+05:30"}`), &update))
	goals, err = svc.UpdateGoal(ctx, userID, goals[0].ID, update)
	require.NoError(t, err)
	require.NotNil(t, goals[0].Deadline)
	assert.Equal(t, time.Date(2027, 12, 31, 13, 0, 0, 0, time.UTC), *goals[0].Deadline)
	assert.Equal(t, goals, repo.stored(userID).Goals)
}

func TestDeleteGoal(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c", Goals: models.Goals{
		{ID: "g1", Name: "Car"},
		{ID: "g2", Name: "Phone"},
		{ID: "g3", Name: "House"},
	}})
	svc := newTestProfileService(repo)

	goals, err := svc.DeleteGoal(context.Background(), userID, "g2")

	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "g1", goals[0].ID)
	assert.Equal(t, "g3", goals[1].ID)
	assert.Len(t, repo.stored(userID).Goals, 2)

	_, err = svc.DeleteGoal(context.Background(), userID, "g2")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestUpdateProfileMergesPreferences(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{
		Email:       "a@b.c",
		Name:        "Asha",
		Preferences: models.DefaultPreferences(),
	})
	svc := newTestProfileService(repo)
	high := models.RiskHigh

	summary, err := svc.UpdateProfile(context.Background(), userID, UpdateProfileRequest{
		MonthlyIncome:   floatPtr(64000),
		MonthlyExpenses: &models.MonthlyExpenses{Rent: 20000, Food: 10000, Other: 4000},
		Preferences:     &PreferencesUpdate{RiskTolerance: &high},
	})

	require.NoError(t, err)
	assert.Equal(t, "Asha", summary.Name)
	assert.Equal(t, 30000.0, summary.DisposableIncome)
	assert.Equal(t, 400.0, summary.HourlyWage)

	stored := repo.stored(userID)
	assert.Equal(t, models.RiskHigh, stored.Preferences.RiskTolerance)
	assert.True(t, stored.Preferences.NotificationsEnabled)
	assert.False(t, stored.Preferences.InvestmentInterest)
	assert.Equal(t, 64000.0, stored.MonthlyIncome)
}

func TestUpdateProfileValidation(t *testing.T) {
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{Email: "a@b.c"})
	svc := newTestProfileService(repo)
	reckless := models.RiskTolerance("reckless")

	_, err := svc.UpdateProfile(context.Background(), userID, UpdateProfileRequest{CurrentSavings: floatPtr(-10)})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.UpdateProfile(context.Background(), userID, UpdateProfileRequest{MonthlyExpenses: &models.MonthlyExpenses{Food: -1}})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.UpdateProfile(context.Background(), userID, UpdateProfileRequest{Preferences: &PreferencesUpdate{RiskTolerance: &reckless}})
	assert.ErrorIs(t, err, ErrInvalidRisk)
}

func TestBuildContext(t *testing.T) {
	deadline := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemoryProfileRepo()
	userID := repo.seed(models.UserProfile{
		Email:           "a@b.c",
		MonthlyIncome:   50000,
		MonthlyExpenses: models.MonthlyExpenses{Rent: 15000, Food: 8000, ExistingEMIs: 5000, Utilities: 2000},
		CurrentSavings:  120000,
		Preferences:     models.Preferences{RiskTolerance: models.RiskLow},
		Goals:           models.Goals{{ID: "g1", Name: "Car", TargetAmount: 1, Deadline: &deadline}},
		Conversations:   turnsNamed(7),
	})
	svc := newTestProfileService(repo)

	fc, err := svc.BuildContext(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 50000.0, fc.MonthlyIncome)
	assert.Equal(t, 20000.0, fc.DisposableIncome)
	assert.Equal(t, 312.5, fc.HourlyWage)
	assert.Equal(t, models.RiskLow, fc.RiskTolerance)
	require.Len(t, fc.ConversationHistory, models.HistoryWindow)
	assert.Equal(t, "m2", fc.ConversationHistory[0].Message)
	assert.Equal(t, "m6", fc.ConversationHistory[4].Message)
	require.Len(t, fc.Goals, 1)
	assert.NotSame(t, &deadline, fc.Goals[0].Deadline)
	assert.True(t, fc.HasProfile())
}
