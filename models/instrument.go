package models

// InstrumentSnapshot represents current market data for a listed instrument
type InstrumentSnapshot struct {
	Symbol           string   `json:"symbol"`
	Price            float64  `json:"price"`
	Change           float64  `json:"change"`
	ChangePercent    float64  `json:"changePercent"`
	PERatio          *float64 `json:"peRatio,omitempty"`
	MarketCap        float64  `json:"marketCap"`
	FiftyTwoWeekHigh float64  `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64  `json:"fiftyTwoWeekLow"`
	AnalystRating    *float64 `json:"analystRating,omitempty"` // 1 = strong buy, 5 = sell
	TargetPrice      *float64 `json:"targetPrice,omitempty"`
}

// InstrumentPair holds the two snapshots used by a comparison
type InstrumentPair struct {
	First  *InstrumentSnapshot `json:"stock1"`
	Second *InstrumentSnapshot `json:"stock2"`
}

// AveragePrice returns the mean price of both instruments, or 0 if either is missing
func (p *InstrumentPair) AveragePrice() float64 {
	if p == nil || p.First == nil || p.Second == nil {
		return 0
	}
	return (p.First.Price + p.Second.Price) / 2
}

// ComparisonResult is the analyst's answer to a two-instrument comparison
type ComparisonResult struct {
	AgentReply
	StockData *InstrumentPair `json:"stockData,omitempty"`
}
