package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// MaxConversationTurns is the number of most recent turns retained per profile
const MaxConversationTurns = 50

// AgentType identifies the agent that produced a turn
type AgentType string

const (
	AgentAnalyst     AgentType = "analyst"
	AgentCoach       AgentType = "coach"
	AgentCoordinator AgentType = "coordinator"
)

// ConversationTurn represents one user message and one agent answer
type ConversationTurn struct {
	AgentType AgentType `json:"agentType" bson:"agent_type"`
	Message   string    `json:"message" bson:"message"`
	Response  string    `json:"response" bson:"response"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ConversationTurns is the JSONB-backed, oldest-first list of turns on a profile
type ConversationTurns []ConversationTurn

// Value implements driver.Valuer for JSONB
func (c ConversationTurns) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *ConversationTurns) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok {
		*c = make(ConversationTurns, 0)
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// Last returns a copy of the n most recent turns, oldest first
func (c ConversationTurns) Last(n int) ConversationTurns {
	if n <= 0 || len(c) == 0 {
		return ConversationTurns{}
	}
	start := len(c) - n
	if start < 0 {
		start = 0
	}
	out := make(ConversationTurns, len(c)-start)
	copy(out, c[start:])
	return out
}

// AppendTurns appends added to existing and keeps at most max turns, dropping
// the oldest first. The dropped turns are returned in their original order.
// existing is never modified.
func AppendTurns(existing, added ConversationTurns, max int) (kept, evicted ConversationTurns) {
	all := make(ConversationTurns, 0, len(existing)+len(added))
	all = append(all, existing...)
	all = append(all, added...)

	if max < 0 {
		max = 0
	}
	if len(all) <= max {
		return all, nil
	}
	cut := len(all) - max
	return all[cut:], all[:cut]
}

// NewestFirst returns a reversed copy of the turns
func (c ConversationTurns) NewestFirst() ConversationTurns {
	out := make(ConversationTurns, len(c))
	for i := range c {
		out[len(c)-1-i] = c[i]
	}
	return out
}
