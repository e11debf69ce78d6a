package service

import (
	"context"
	"fmt"

	"finpal-backend/models"
)

// Responder answers a free-text message given a context snapshot. It never
// returns a Go error; failures are reported inside the envelope.
type Responder interface {
	Reply(ctx context.Context, message string, fc models.FinancialContext) models.AgentReply
}

// InstrumentAnalyst is a Responder that can also compare two instruments
type InstrumentAnalyst interface {
	Responder
	CompareInstruments(ctx context.Context, symbolA, symbolB string) *models.ComparisonResult
}

const (
	msgProcessingError   = "Error processing request"
	msgStockDataMissing  = "Unable to fetch stock data. Please check the symbols."
	msgComparisonError   = "Error analyzing stocks"
	msgSpendingError     = "Error analyzing spending decision"
	msgAgentNotAvailable = "Agent is not available"
)

// offlineReply is returned when an agent has no text generator configured
func offlineReply(identity models.AgentIdentity) models.AgentReply {
	return models.AgentReply{
		Success: false,
		Message: fmt.Sprintf("%s is offline (missing API key)", identity.Name),
		Agent:   identity.ID,
	}
}

func failureReply(identity models.AgentIdentity, message string, err error) models.AgentReply {
	reply := models.AgentReply{
		Success: false,
		Message: message,
		Agent:   identity.ID,
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return models.FormatAmount(*v)
}

// preview truncates s to at most n runes, appending an ellipsis
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s + "..."
	}
	return string(runes[:n]) + "..."
}
