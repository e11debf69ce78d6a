package service

import (
	"context"
	"fmt"
	"strings"

	"finpal-backend/llm"
	"finpal-backend/logger"
	"finpal-backend/marketdata"
	"finpal-backend/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const analystPersona = `You are "The Wolf" - a sharp, data-driven investment analyst.
Your role:
- Analyze stocks using real market data
- Provide buy/sell recommendations based on fundamentals
- Compare investment options objectively
- Focus on P/E ratios, analyst ratings, and market trends
- Be direct and confident in your analysis
- Always cite specific numbers and data points

Tone: Professional, analytical, slightly aggressive`

// AnalystService is the investment analyst specialist
type AnalystService struct {
	generator llm.TextGenerator
	market    marketdata.Provider
}

// AnalystServiceOption is a functional option for AnalystService
type AnalystServiceOption func(*AnalystService)

// AnalystWithGenerator sets the text generator. Without one the analyst is offline.
func AnalystWithGenerator(g llm.TextGenerator) AnalystServiceOption {
	return func(s *AnalystService) {
		s.generator = g
	}
}

// AnalystWithMarketData sets the market data provider
func AnalystWithMarketData(p marketdata.Provider) AnalystServiceOption {
	return func(s *AnalystService) {
		s.market = p
	}
}

// NewAnalystService creates a new analyst service
func NewAnalystService(opts ...AnalystServiceOption) *AnalystService {
	s := &AnalystService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeInstrument fetches a market snapshot for symbol. It returns nil when
// the data is unavailable for any reason.
func (s *AnalystService) AnalyzeInstrument(ctx context.Context, symbol string) *models.InstrumentSnapshot {
	if s.market == nil {
		logger.Get().Warn("market data provider not set", zap.String("symbol", symbol))
		return nil
	}

	snapshot, err := s.market.Quote(ctx, symbol)
	if err != nil {
		logger.Get().Warn("failed to fetch instrument data",
			zap.String("symbol", symbol),
			zap.Error(err))
		return nil
	}
	return snapshot
}

// CompareInstruments fetches both snapshots concurrently and asks the model for
// a recommendation. Missing data short-circuits before any model call.
func (s *AnalystService) CompareInstruments(ctx context.Context, symbolA, symbolB string) *models.ComparisonResult {
	if s.generator == nil {
		return &models.ComparisonResult{AgentReply: offlineReply(models.AnalystIdentity)}
	}

	var first, second *models.InstrumentSnapshot
	var g errgroup.Group
	g.Go(func() error {
		first = s.AnalyzeInstrument(ctx, symbolA)
		return nil
	})
	g.Go(func() error {
		second = s.AnalyzeInstrument(ctx, symbolB)
		return nil
	})
	_ = g.Wait()

	if first == nil || second == nil {
		return &models.ComparisonResult{
			AgentReply: failureReply(models.AnalystIdentity, msgStockDataMissing, nil),
		}
	}

	analysis, err := s.generator.GenerateText(ctx, comparisonPrompt(first, second))
	if err != nil {
		logger.Get().Error("analyst comparison failed",
			zap.String("first", first.Symbol),
			zap.String("second", second.Symbol),
			zap.Error(err))
		return &models.ComparisonResult{
			AgentReply: failureReply(models.AnalystIdentity, msgComparisonError, err),
		}
	}

	return &models.ComparisonResult{
		AgentReply: models.AgentReply{
			Success:  true,
			Analysis: analysis,
			Agent:    models.AgentAnalyst,
		},
		StockData: &models.InstrumentPair{First: first, Second: second},
	}
}

// Reply answers a general investment question
func (s *AnalystService) Reply(ctx context.Context, message string, fc models.FinancialContext) models.AgentReply {
	if s.generator == nil {
		return offlineReply(models.AnalystIdentity)
	}

	response, err := s.generator.GenerateText(ctx, analystReplyPrompt(message, fc))
	if err != nil {
		logger.Get().Error("analyst reply failed", zap.Error(err))
		return failureReply(models.AnalystIdentity, msgProcessingError, err)
	}

	return models.AgentReply{
		Success:  true,
		Response: response,
		Agent:    models.AgentAnalyst,
	}
}

func analystReplyPrompt(message string, fc models.FinancialContext) string {
	var b strings.Builder
	b.WriteString(analystPersona)

	if fc.HasProfile() {
		risk := fc.RiskTolerance
		if risk == "" {
			risk = models.RiskMedium
		}
		fmt.Fprintf(&b, "\n\nUser Context:\n- Monthly Income: ₹%s\n- Current Savings: ₹%s\n- Risk Tolerance: %s",
			models.FormatAmount(fc.MonthlyIncome),
			models.FormatAmount(fc.CurrentSavings),
			risk)
	}

	fmt.Fprintf(&b, "\n\nUser question: %s\n\n", message)
	b.WriteString("Provide a detailed financial analysis. If the question is about specific stocks, " +
		"mention that you can provide real-time data if they provide stock symbols.")
	return b.String()
}

func comparisonPrompt(first, second *models.InstrumentSnapshot) string {
	var b strings.Builder
	b.WriteString(analystPersona)
	b.WriteString("\n\nCompare these two stocks and provide a buy/sell recommendation:\n")
	writeSnapshot(&b, first)
	writeSnapshot(&b, second)
	b.WriteString(`
Provide a detailed comparison and recommendation in markdown format. Include:
1. Key metrics comparison
2. Which stock is better and why
3. Clear BUY/SELL/HOLD recommendation for each
4. Risk assessment`)
	return b.String()
}

func writeSnapshot(b *strings.Builder, s *models.InstrumentSnapshot) {
	fmt.Fprintf(b, "\n**%s:**\n", s.Symbol)
	fmt.Fprintf(b, "- Current Price: $%s\n", models.FormatAmount(s.Price))
	fmt.Fprintf(b, "- P/E Ratio: %s\n", formatOptional(s.PERatio))
	fmt.Fprintf(b, "- Market Cap: $%s\n", models.FormatAmount(s.MarketCap))
	fmt.Fprintf(b, "- 52-Week Range: $%s - $%s\n", models.FormatAmount(s.FiftyTwoWeekLow), models.FormatAmount(s.FiftyTwoWeekHigh))
	fmt.Fprintf(b, "- Analyst Rating: %s (1=Strong Buy, 5=Sell)\n", formatOptional(s.AnalystRating))
	fmt.Fprintf(b, "- Target Price: $%s\n", formatOptional(s.TargetPrice))
}
