package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkHoursPerMonth is the divisor used to derive an hourly wage (8 hours/day, 20 days).
const WorkHoursPerMonth = 160

// RiskTolerance represents how much investment risk a user accepts
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// Valid reports whether r is one of the known tolerance levels
func (r RiskTolerance) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// MonthlyExpenses represents the recurring monthly outgoings of a user
type MonthlyExpenses struct {
	Rent         float64 `json:"rent" bson:"rent"`
	Food         float64 `json:"food" bson:"food"`
	ExistingEMIs float64 `json:"existingEmis" bson:"existing_emis"`
	Utilities    float64 `json:"utilities" bson:"utilities"`
	Other        float64 `json:"other" bson:"other"`
}

// Total returns the sum of all expense categories
func (e MonthlyExpenses) Total() float64 {
	return e.Rent + e.Food + e.ExistingEMIs + e.Utilities + e.Other
}

// Valid reports whether every category is non-negative
func (e MonthlyExpenses) Valid() bool {
	return e.Rent >= 0 && e.Food >= 0 && e.ExistingEMIs >= 0 && e.Utilities >= 0 && e.Other >= 0
}

// Value implements driver.Valuer for JSONB
func (e MonthlyExpenses) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB
func (e *MonthlyExpenses) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok {
		*e = MonthlyExpenses{}
		return nil
	}
	return json.Unmarshal(bytes, e)
}

// Preferences represents user preferences
type Preferences struct {
	RiskTolerance        RiskTolerance `json:"riskTolerance" bson:"risk_tolerance"`
	InvestmentInterest   bool          `json:"investmentInterest" bson:"investment_interest"`
	NotificationsEnabled bool          `json:"notificationsEnabled" bson:"notifications_enabled"`
}

// DefaultPreferences returns the preferences assigned to new profiles
func DefaultPreferences() Preferences {
	return Preferences{
		RiskTolerance:        RiskMedium,
		InvestmentInterest:   false,
		NotificationsEnabled: true,
	}
}

// Value implements driver.Valuer for JSONB
func (p Preferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *Preferences) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok {
		*p = DefaultPreferences()
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// UserProfile represents a user together with their financial profile,
// goals and conversation history. Goals and turns have no identity outside it.
type UserProfile struct {
	ID              uuid.UUID         `json:"id" bson:"-"`
	Email           string            `json:"email" bson:"email"`
	PasswordHash    string            `json:"-" bson:"password_hash"` // Never serialize password hash
	Name            string            `json:"name" bson:"name"`
	MonthlyIncome   float64           `json:"monthlyIncome" bson:"monthly_income"`
	MonthlyExpenses MonthlyExpenses   `json:"monthlyExpenses" bson:"monthly_expenses"`
	CurrentSavings  float64           `json:"currentSavings" bson:"current_savings"`
	Preferences     Preferences       `json:"preferences" bson:"preferences"`
	Goals           Goals             `json:"goals" bson:"goals"`
	Conversations   ConversationTurns `json:"-" bson:"conversations"`
	CreatedAt       time.Time         `json:"createdAt" bson:"created_at"`
	LastLogin       time.Time         `json:"lastLogin" bson:"last_login"`
}

// DisposableIncome is income minus all monthly expenses. A negative value
// signals financial stress and is not an error.
func (u *UserProfile) DisposableIncome() float64 {
	return u.MonthlyIncome - u.MonthlyExpenses.Total()
}

// HourlyWage derives an hourly wage from the monthly income
func (u *UserProfile) HourlyWage() float64 {
	return u.MonthlyIncome / WorkHoursPerMonth
}

// FindGoal returns the index of the goal with the given id, or -1
func (u *UserProfile) FindGoal(goalID string) int {
	for i := range u.Goals {
		if u.Goals[i].ID == goalID {
			return i
		}
	}
	return -1
}

// jsonbBytes normalizes the types pgx may hand back for a JSONB column
func jsonbBytes(value interface{}) ([]byte, bool) {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil, false
	}
	if len(bytes) == 0 {
		return nil, false
	}
	return bytes, true
}
