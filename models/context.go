package models

import "github.com/shopspring/decimal"

// HistoryWindow is the number of prior turns copied into a context snapshot
const HistoryWindow = 5

// FinancialContext is an immutable snapshot of a user's financial state handed
// to the specialists. It is passed by value and owns copies of its slices.
type FinancialContext struct {
	MonthlyIncome       float64           `json:"monthlyIncome"`
	DisposableIncome    float64           `json:"disposableIncome"`
	CurrentSavings      float64           `json:"currentSavings"`
	HourlyWage          float64           `json:"hourlyWage"`
	Goals               Goals             `json:"goals"`
	RiskTolerance       RiskTolerance     `json:"riskTolerance"`
	ConversationHistory ConversationTurns `json:"conversationHistory"`
}

// NewFinancialContext snapshots a profile
func NewFinancialContext(u *UserProfile) FinancialContext {
	if u == nil {
		return FinancialContext{}
	}
	goals := make(Goals, len(u.Goals))
	for i, g := range u.Goals {
		if g.Deadline != nil {
			d := *g.Deadline
			g.Deadline = &d
		}
		goals[i] = g
	}
	return FinancialContext{
		MonthlyIncome:       u.MonthlyIncome,
		DisposableIncome:    u.DisposableIncome(),
		CurrentSavings:      u.CurrentSavings,
		HourlyWage:          u.HourlyWage(),
		Goals:               goals,
		RiskTolerance:       u.Preferences.RiskTolerance,
		ConversationHistory: u.Conversations.Last(HistoryWindow),
	}
}

// HasProfile reports whether the user has a financial profile on file
func (fc FinancialContext) HasProfile() bool {
	return fc.MonthlyIncome != 0
}

// FormatAmount renders a monetary amount without trailing zeros, e.g. 50000 or 1250.5
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}
