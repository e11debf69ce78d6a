package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finpal-backend/llm"
	"finpal-backend/logger"
	"finpal-backend/models"

	"go.uber.org/zap"
)

const (
	coachPersona = `You are "The Sage" - a wise, empathetic financial behavioral coach.
Your role:
- Help users make emotionally intelligent financial decisions
- Remember and reference their financial goals
- Provide gentle nudges against impulsive spending
- Encourage long-term thinking over short-term gratification
- Consider the psychological impact of financial decisions
- Be supportive but honest about financial realities

Tone: Warm, understanding, but firm when needed. Like a caring mentor.`

	coachHistoryTurns  = 3
	coachPreviewLength = 100
)

// CoachService is the behavioral coach specialist
type CoachService struct {
	generator llm.TextGenerator
	now       func() time.Time
}

// CoachServiceOption is a functional option for CoachService
type CoachServiceOption func(*CoachService)

// CoachWithGenerator sets the text generator. Without one the coach is offline.
func CoachWithGenerator(g llm.TextGenerator) CoachServiceOption {
	return func(s *CoachService) {
		s.generator = g
	}
}

// CoachWithClock sets the clock used for deadline arithmetic
func CoachWithClock(now func() time.Time) CoachServiceOption {
	return func(s *CoachService) {
		s.now = now
	}
}

// NewCoachService creates a new coach service
func NewCoachService(opts ...CoachServiceOption) *CoachService {
	s := &CoachService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reply gives personalized behavioral coaching for a message
func (s *CoachService) Reply(ctx context.Context, message string, fc models.FinancialContext) models.AgentReply {
	if s.generator == nil {
		return offlineReply(models.CoachIdentity)
	}

	prompt := coachPersona + s.contextBlock(fc) + fmt.Sprintf(`

User's current question/situation: %s

Provide thoughtful, personalized advice that:
1. References their specific goals if relevant
2. Considers the emotional/behavioral aspects of the decision
3. Gently challenges impulsive spending if detected
4. Encourages alignment with long-term goals
5. Provides actionable next steps

Be conversational and empathetic, not preachy.`, message)

	response, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		logger.Get().Error("coach reply failed", zap.Error(err))
		return failureReply(models.CoachIdentity, msgProcessingError, err)
	}

	return models.AgentReply{
		Success:  true,
		Response: response,
		Agent:    models.AgentCoach,
	}
}

// EvaluateSpendingDecision computes the affordability signals for a purchase
// and asks the model for a behavioral narrative. The signals are returned even
// when the narrative cannot be produced.
func (s *CoachService) EvaluateSpendingDecision(ctx context.Context, itemName string, price float64, fc models.FinancialContext) *models.DecisionAnalysis {
	signals := models.EvaluateSpending(price, fc)

	if s.generator == nil {
		return &models.DecisionAnalysis{AgentReply: offlineReply(models.CoachIdentity), Signals: signals}
	}

	goalNames := make([]string, 0, len(fc.Goals))
	for _, g := range fc.Goals {
		goalNames = append(goalNames, g.Name)
	}
	activeGoals := "None set"
	if len(goalNames) > 0 {
		activeGoals = strings.Join(goalNames, ", ")
	}

	prompt := fmt.Sprintf(`%s

User Context:
- Monthly Income: ₹%s
- Disposable Income: ₹%s
- Current Savings: ₹%s
- Hourly Wage: ₹%s

User is considering buying: %s
Price: ₹%s
Labor Cost: %s hours of work
Financial Impact: %s

Active Goals: %s

Provide a behavioral analysis of this purchase decision. Should they buy it? How does it affect their goals? What's the emotional vs. rational perspective?`,
		coachPersona,
		models.FormatAmount(fc.MonthlyIncome),
		models.FormatAmount(fc.DisposableIncome),
		models.FormatAmount(fc.CurrentSavings),
		models.FormatAmount(fc.HourlyWage),
		itemName,
		models.FormatAmount(price),
		models.FormatAmount(signals.LaborHours),
		signals.Impact,
		activeGoals,
	)

	response, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		logger.Get().Error("coach spending analysis failed",
			zap.String("item", itemName),
			zap.Error(err))
		return &models.DecisionAnalysis{
			AgentReply: failureReply(models.CoachIdentity, msgSpendingError, err),
			Signals:    signals,
		}
	}

	return &models.DecisionAnalysis{
		AgentReply: models.AgentReply{
			Success:  true,
			Response: response,
			Agent:    models.AgentCoach,
		},
		Signals: signals,
	}
}

// contextBlock renders profile, goals and recent history for the prompt
func (s *CoachService) contextBlock(fc models.FinancialContext) string {
	var b strings.Builder

	if fc.HasProfile() {
		fmt.Fprintf(&b, "\n\nUser's Financial Profile:\n- Monthly Income: ₹%s\n- Disposable Income: ₹%s\n- Current Savings: ₹%s",
			models.FormatAmount(fc.MonthlyIncome),
			models.FormatAmount(fc.DisposableIncome),
			models.FormatAmount(fc.CurrentSavings))
	}

	if len(fc.Goals) > 0 {
		now := s.now()
		b.WriteString("\n\nUser's Financial Goals:")
		for i, g := range fc.Goals {
			fmt.Fprintf(&b, "\n%d. %s - Target: ₹%s, Progress: %s%%, Priority: %s",
				i+1, g.Name, models.FormatAmount(g.TargetAmount), models.FormatAmount(g.Progress()), g.Priority)
			if days, ok := g.DaysRemaining(now); ok {
				fmt.Fprintf(&b, " (%d days remaining)", days)
			}
		}
	}

	if history := fc.ConversationHistory.Last(coachHistoryTurns); len(history) > 0 {
		b.WriteString("\n\nRecent Conversation Context:")
		for _, turn := range history {
			fmt.Fprintf(&b, "\n- User asked: %q", turn.Message)
			fmt.Fprintf(&b, "\n  You advised: %q", preview(turn.Response, coachPreviewLength))
		}
	}

	return b.String()
}
