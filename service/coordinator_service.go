package service

import (
	"context"
	"fmt"
	"time"

	"finpal-backend/llm"
	"finpal-backend/logger"
	"finpal-backend/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const classifierPrompt = `You are an intent classifier for a financial AI system.
Analyze the user's message and determine which agent should handle it:

1. "analyst" - For investment questions, stock analysis, market data, buy/sell decisions
2. "coach" - For budgeting, spending decisions, financial goals, behavioral coaching
3. "both" - If the question requires both investment analysis AND behavioral coaching

User message: %q

Respond with ONLY one word: analyst, coach, or both`

// CoordinatorService classifies inbound messages and dispatches them to the
// analyst and coach specialists
type CoordinatorService struct {
	classifier llm.TextGenerator
	analyst    InstrumentAnalyst
	coach      Responder
	now        func() time.Time
}

// CoordinatorServiceOption is a functional option for CoordinatorService
type CoordinatorServiceOption func(*CoordinatorService)

// CoordinatorWithClassifier sets the generator used for intent classification.
// Without one every message goes to the coach.
func CoordinatorWithClassifier(g llm.TextGenerator) CoordinatorServiceOption {
	return func(s *CoordinatorService) {
		s.classifier = g
	}
}

// CoordinatorWithAnalyst sets the analyst specialist
func CoordinatorWithAnalyst(a InstrumentAnalyst) CoordinatorServiceOption {
	return func(s *CoordinatorService) {
		s.analyst = a
	}
}

// CoordinatorWithCoach sets the coach specialist
func CoordinatorWithCoach(c Responder) CoordinatorServiceOption {
	return func(s *CoordinatorService) {
		s.coach = c
	}
}

// CoordinatorWithClock sets the clock used for envelope timestamps
func CoordinatorWithClock(now func() time.Time) CoordinatorServiceOption {
	return func(s *CoordinatorService) {
		s.now = now
	}
}

// NewCoordinatorService creates a new coordinator
func NewCoordinatorService(opts ...CoordinatorServiceOption) *CoordinatorService {
	s := &CoordinatorService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify decides which specialists handle message. Any failure or
// unrecognized answer falls back to the coach.
func (s *CoordinatorService) Classify(ctx context.Context, message string) models.Intent {
	if s.classifier == nil {
		logger.Get().Debug("classifier offline, routing to coach")
		return models.IntentCoach
	}

	raw, err := s.classifier.GenerateText(ctx, fmt.Sprintf(classifierPrompt, message))
	if err != nil {
		logger.Get().Warn("intent classification failed, routing to coach", zap.Error(err))
		return models.IntentCoach
	}

	intent, ok := models.ParseIntent(raw)
	if !ok {
		logger.Get().Warn("unrecognized intent label, routing to coach", zap.String("label", raw))
		return models.IntentCoach
	}
	return intent
}

// Route classifies message and collects the replies of the selected
// specialists, analyst first. For IntentBoth the specialists run concurrently
// and a failure in one does not affect the other.
func (s *CoordinatorService) Route(ctx context.Context, message string, fc models.FinancialContext) *models.RoutedResponse {
	intent := s.Classify(ctx, message)
	logger.Get().Info("routing message", zap.String("intent", string(intent)))

	var analystReply, coachReply models.AgentReply
	var g errgroup.Group
	if intent.IncludesAnalyst() {
		g.Go(func() error {
			analystReply = s.replyFrom(ctx, s.analyst, models.AnalystIdentity, message, fc)
			return nil
		})
	}
	if intent.IncludesCoach() {
		g.Go(func() error {
			coachReply = s.replyFrom(ctx, s.coach, models.CoachIdentity, message, fc)
			return nil
		})
	}
	_ = g.Wait()

	responses := make([]models.AgentResponse, 0, 2)
	if intent.IncludesAnalyst() {
		responses = append(responses, models.Tag(models.AnalystIdentity, analystReply))
	}
	if intent.IncludesCoach() {
		responses = append(responses, models.Tag(models.CoachIdentity, coachReply))
	}

	return &models.RoutedResponse{
		Success:   true,
		Intent:    intent,
		Responses: responses,
		Timestamp: s.now(),
	}
}

// CompareTwoInstruments runs the analyst comparison and, for users with a
// financial profile, a behavioral follow-up from the coach
func (s *CoordinatorService) CompareTwoInstruments(ctx context.Context, symbolA, symbolB string, fc models.FinancialContext) *models.RoutedResponse {
	var comparison *models.ComparisonResult
	if s.analyst != nil {
		comparison = s.analyst.CompareInstruments(ctx, symbolA, symbolB)
	}
	if comparison == nil {
		comparison = &models.ComparisonResult{
			AgentReply: failureReply(models.AnalystIdentity, msgAgentNotAvailable, nil),
		}
	}

	analystResponse := models.Tag(models.AnalystIdentity, comparison.AgentReply)
	analystResponse.StockData = comparison.StockData
	responses := []models.AgentResponse{analystResponse}

	if fc.HasProfile() {
		message := fmt.Sprintf(
			"I'm considering investing around $%.2f in either %s or %s. What should I consider from a behavioral perspective?",
			comparison.StockData.AveragePrice(), symbolA, symbolB)
		coachReply := s.replyFrom(ctx, s.coach, models.CoachIdentity, message, fc)
		responses = append(responses, models.Tag(models.CoachIdentity, coachReply))
	}

	return &models.RoutedResponse{
		Success:   true,
		Intent:    models.IntentComparison,
		Responses: responses,
		Timestamp: s.now(),
	}
}

func (s *CoordinatorService) replyFrom(ctx context.Context, r Responder, identity models.AgentIdentity, message string, fc models.FinancialContext) models.AgentReply {
	if r == nil {
		return failureReply(identity, msgAgentNotAvailable, nil)
	}
	return r.Reply(ctx, message, fc)
}
