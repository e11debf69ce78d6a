package models

import (
	"strings"
	"time"
)

// Intent represents the routing decision for an inbound message
type Intent string

const (
	IntentAnalyst Intent = "analyst"
	IntentCoach   Intent = "coach"
	IntentBoth    Intent = "both"

	// IntentComparison labels envelopes produced by the instrument comparison pipeline
	IntentComparison Intent = "comparison"
)

// ParseIntent normalizes raw classifier output. ok is false when the text is
// not exactly one of analyst, coach or both.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(normalizeLabel(raw)) {
	case IntentAnalyst:
		return IntentAnalyst, true
	case IntentCoach:
		return IntentCoach, true
	case IntentBoth:
		return IntentBoth, true
	}
	return "", false
}

func normalizeLabel(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IncludesAnalyst reports whether the analyst handles this intent
func (i Intent) IncludesAnalyst() bool {
	return i == IntentAnalyst || i == IntentBoth
}

// IncludesCoach reports whether the coach handles this intent
func (i Intent) IncludesCoach() bool {
	return i == IntentCoach || i == IntentBoth
}

// AgentIdentity carries the stable display metadata of an agent
type AgentIdentity struct {
	ID   AgentType
	Name string
	Role string
}

var (
	AnalystIdentity = AgentIdentity{ID: AgentAnalyst, Name: "The Wolf", Role: "Investment Analyst"}
	CoachIdentity   = AgentIdentity{ID: AgentCoach, Name: "The Sage", Role: "Financial Coach"}
)

// AgentReply is the uniform envelope returned by every specialist call
type AgentReply struct {
	Success  bool      `json:"success"`
	Response string    `json:"response,omitempty"`
	Analysis string    `json:"analysis,omitempty"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	Agent    AgentType `json:"agent"`
}

// Text returns the agent output, falling back to the failure message
func (r AgentReply) Text() string {
	switch {
	case r.Response != "":
		return r.Response
	case r.Analysis != "":
		return r.Analysis
	case r.Message != "":
		return r.Message
	}
	return r.Error
}

// AgentResponse is a reply tagged with the metadata of the agent that produced it
type AgentResponse struct {
	AgentReply
	AgentName string          `json:"agentName"`
	AgentRole string          `json:"agentRole"`
	StockData *InstrumentPair `json:"stockData,omitempty"`
}

// Tag attaches identity metadata to a reply regardless of its outcome
func Tag(identity AgentIdentity, reply AgentReply) AgentResponse {
	reply.Agent = identity.ID
	return AgentResponse{
		AgentReply: reply,
		AgentName:  identity.Name,
		AgentRole:  identity.Role,
	}
}

// RoutedResponse aggregates the replies produced for one inbound message
type RoutedResponse struct {
	Success   bool            `json:"success"`
	Intent    Intent          `json:"intent"`
	Responses []AgentResponse `json:"responses"`
	Timestamp time.Time       `json:"timestamp"`
}
