package models

import "github.com/shopspring/decimal"

// SpendingImpact is the affordability tier of a prospective purchase
type SpendingImpact string

const (
	ImpactBankruptcyRisk SpendingImpact = "BANKRUPTCY RISK"
	ImpactEMITrap        SpendingImpact = "EMI TRAP"
	ImpactSafeBuy        SpendingImpact = "SAFE BUY"
)

// SpendingSignals are the locally computed signals for a purchase decision
type SpendingSignals struct {
	LaborHours float64        `json:"laborHours"`
	Impact     SpendingImpact `json:"impact"`
	Affordable bool           `json:"affordability"`
}

// DecisionAnalysis is the coach's verdict on a purchase
type DecisionAnalysis struct {
	AgentReply
	Signals SpendingSignals `json:"signals"`
}

// LaborHours converts a price into hours of work, rounded to one decimal.
// A non-positive wage yields 0.
func LaborHours(price, hourlyWage float64) float64 {
	if hourlyWage <= 0 {
		return 0
	}
	return decimal.NewFromFloat(price).
		Div(decimal.NewFromFloat(hourlyWage)).
		Round(1).
		InexactFloat64()
}

// ClassifyImpact applies the tiers in strict precedence: a price above savings
// first, then a price above disposable income, otherwise a safe buy.
func ClassifyImpact(price, currentSavings, disposableIncome float64) SpendingImpact {
	if price > currentSavings {
		return ImpactBankruptcyRisk
	}
	if price > disposableIncome {
		return ImpactEMITrap
	}
	return ImpactSafeBuy
}

// EvaluateSpending computes all signals for a purchase
func EvaluateSpending(price float64, fc FinancialContext) SpendingSignals {
	return SpendingSignals{
		LaborHours: LaborHours(price, fc.HourlyWage),
		Impact:     ClassifyImpact(price, fc.CurrentSavings, fc.DisposableIncome),
		Affordable: price <= fc.DisposableIncome,
	}
}
