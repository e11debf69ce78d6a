package service

import (
	"context"
	"sync"
	"time"

	"finpal-backend/models"
	"finpal-backend/repository"

	"github.com/google/uuid"
)

type fakeGenerator struct {
	mu         sync.Mutex
	prompts    []string
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.generateFn != nil {
		return f.generateFn(ctx, prompt)
	}
	return "generated", nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeMarket struct {
	mu      sync.Mutex
	symbols []string
	quoteFn func(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error)
}

func (f *fakeMarket) Quote(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error) {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbol)
	f.mu.Unlock()
	if f.quoteFn != nil {
		return f.quoteFn(ctx, symbol)
	}
	return &models.InstrumentSnapshot{Symbol: symbol, Price: 100}, nil
}

func (f *fakeMarket) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.symbols)
}

type fakeResponder struct {
	mu        sync.Mutex
	messages  []string
	replyFn   func(ctx context.Context, message string, fc models.FinancialContext) models.AgentReply
	compareFn func(ctx context.Context, a, b string) *models.ComparisonResult
}

func (f *fakeResponder) Reply(ctx context.Context, message string, fc models.FinancialContext) models.AgentReply {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	f.mu.Unlock()
	if f.replyFn != nil {
		return f.replyFn(ctx, message, fc)
	}
	return models.AgentReply{Success: true, Response: "reply to " + message}
}

func (f *fakeResponder) CompareInstruments(ctx context.Context, a, b string) *models.ComparisonResult {
	if f.compareFn != nil {
		return f.compareFn(ctx, a, b)
	}
	return &models.ComparisonResult{AgentReply: models.AgentReply{Success: true, Analysis: "compared"}}
}

func (f *fakeResponder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeArchiver struct {
	mu        sync.Mutex
	archived  []models.ConversationTurns
	discarded []string
	archiveFn func(ctx context.Context, userID uuid.UUID, turns models.ConversationTurns) (string, error)
}

func (f *fakeArchiver) Archive(ctx context.Context, userID uuid.UUID, turns models.ConversationTurns) (string, error) {
	f.mu.Lock()
	f.archived = append(f.archived, turns)
	f.mu.Unlock()
	if f.archiveFn != nil {
		return f.archiveFn(ctx, userID, turns)
	}
	return "conversations/" + userID.String() + "/archive.json", nil
}

func (f *fakeArchiver) Discard(ctx context.Context, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, location)
	return nil
}

// memoryProfileRepo is an in-memory ProfileRepository. The *Fn hooks override
// individual operations.
type memoryProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.UserProfile

	conversationUpdates int
	goalUpdates         int

	updateConversationsFn func(ctx context.Context, id uuid.UUID, turns models.ConversationTurns) error
	updateGoalsFn         func(ctx context.Context, id uuid.UUID, goals models.Goals) error
}

func newMemoryProfileRepo() *memoryProfileRepo {
	return &memoryProfileRepo{profiles: make(map[uuid.UUID]*models.UserProfile)}
}

// seed stores a copy of profile, assigning an ID when it has none
func (r *memoryProfileRepo) seed(profile models.UserProfile) uuid.UUID {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.ID] = cloneProfile(&profile)
	return profile.ID
}

func (r *memoryProfileRepo) stored(id uuid.UUID) *models.UserProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		return cloneProfile(p)
	}
	return nil
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	out := *p
	out.Goals = append(models.Goals(nil), p.Goals...)
	out.Conversations = append(models.ConversationTurns(nil), p.Conversations...)
	return &out
}

func (r *memoryProfileRepo) Create(ctx context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == profile.Email {
			return repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	profile.ID = uuid.New()
	profile.CreatedAt = now
	profile.LastLogin = now
	r.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *memoryProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	if p := r.stored(id); p != nil {
		return p, nil
	}
	return nil, repository.ErrProfileNotFound
}

func (r *memoryProfileRepo) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			return cloneProfile(p), nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

func (r *memoryProfileRepo) UpdateFinancials(ctx context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[profile.ID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Name = profile.Name
	p.MonthlyIncome = profile.MonthlyIncome
	p.MonthlyExpenses = profile.MonthlyExpenses
	p.CurrentSavings = profile.CurrentSavings
	p.Preferences = profile.Preferences
	return nil
}

func (r *memoryProfileRepo) UpdateGoals(ctx context.Context, id uuid.UUID, goals models.Goals) error {
	if r.updateGoalsFn != nil {
		return r.updateGoalsFn(ctx, id, goals)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	r.goalUpdates++
	p.Goals = append(models.Goals(nil), goals...)
	return nil
}

func (r *memoryProfileRepo) UpdateConversations(ctx context.Context, id uuid.UUID, turns models.ConversationTurns) error {
	if r.updateConversationsFn != nil {
		return r.updateConversationsFn(ctx, id, turns)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	r.conversationUpdates++
	p.Conversations = append(models.ConversationTurns(nil), turns...)
	return nil
}

func (r *memoryProfileRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.LastLogin = time.Now().UTC()
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(s string) *string { return &s }
