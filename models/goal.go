package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// GoalPriority represents the priority of a financial goal
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// Valid reports whether p is one of the known priorities
func (p GoalPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Date is a deadline as sent by clients: either a calendar date
// (2006-01-02, midnight UTC) or an RFC3339 timestamp
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON implements json.Unmarshaler. null leaves d unchanged.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// TimePtr returns the date as a UTC time, or nil for a nil Date
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time.UTC()
	return &t
}

// Goal represents a savings goal owned by a single profile
type Goal struct {
	ID            string       `json:"id" bson:"id"`
	Name          string       `json:"name" bson:"name"`
	TargetAmount  float64      `json:"targetAmount" bson:"target_amount"`
	CurrentAmount float64      `json:"currentAmount" bson:"current_amount"`
	Deadline      *time.Time   `json:"deadline,omitempty" bson:"deadline,omitempty"`
	Priority      GoalPriority `json:"priority" bson:"priority"`
	CreatedAt     time.Time    `json:"createdAt" bson:"created_at"`
}

// Progress returns the completion percentage rounded to one decimal.
// Over-funded goals report more than 100; a zero target reports 0.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(g.CurrentAmount).
		Div(decimal.NewFromFloat(g.TargetAmount)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	return pct.InexactFloat64()
}

// DaysRemaining returns the whole days left until the deadline, rounded up.
// Overdue goals yield a negative count. ok is false when no deadline is set.
func (g Goal) DaysRemaining(now time.Time) (days int, ok bool) {
	if g.Deadline == nil {
		return 0, false
	}
	return int(math.Ceil(g.Deadline.Sub(now).Hours() / 24)), true
}

// Goals is the JSONB-backed list of goals stored on a profile
type Goals []Goal

// Value implements driver.Valuer for JSONB
func (g Goals) Value() (driver.Value, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g)
}

// Scan implements sql.Scanner for JSONB
func (g *Goals) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok {
		*g = make(Goals, 0)
		return nil
	}
	return json.Unmarshal(bytes, g)
}
