package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"finpal-backend/logger"
	"finpal-backend/models"

	"go.uber.org/zap"
)

// Provider looks up market data for a single instrument symbol
type Provider interface {
	Quote(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error)
}

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrInvalidSymbol  = errors.New("invalid symbol")
	errUnauthorized   = errors.New("unauthorized")
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultCookieURL = "https://fc.yahoo.com"
	crumbPath        = "/v1/test/getcrumb"
	quotePath        = "/v7/finance/quote"
	summaryPath      = "/v10/finance/quoteSummary/"
	summaryModules   = "price,summaryDetail,financialData"
	userAgent        = "Mozilla/5.0 (compatible; finpal/1.0)"
)

// YahooClient fetches quotes from the Yahoo Finance HTTP API. Requests carry
// the session cookie and crumb Yahoo hands out; the crumb is cached and
// fetched again when the API answers 401.
type YahooClient struct {
	baseURL    string
	cookieURL  string
	httpClient *http.Client

	mu    sync.Mutex
	crumb string
}

// YahooOption is a functional option for YahooClient
type YahooOption func(*YahooClient)

// WithBaseURL overrides the API host
func WithBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(client *http.Client) YahooOption {
	return func(c *YahooClient) {
		c.httpClient = client
	}
}

// WithCookieURL overrides the page visited to obtain the session cookie
func WithCookieURL(cookieURL string) YahooOption {
	return func(c *YahooClient) {
		c.cookieURL = cookieURL
	}
}

// NewYahooClient creates a new Yahoo Finance client. A client without a
// cookie jar is copied and given one.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL:    defaultBaseURL,
		cookieURL:  defaultCookieURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		withJar := *c.httpClient
		jar, _ := cookiejar.New(nil)
		withJar.Jar = jar
		c.httpClient = &withJar
	}
	return c
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChange        float64 `json:"regularMarketChange"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			MarketCap                  float64 `json:"marketCap"`
			FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
			FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteResponse"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE rawValue `json:"trailingPE"`
			} `json:"summaryDetail"`
			FinancialData struct {
				RecommendationMean rawValue `json:"recommendationMean"`
				TargetMeanPrice    rawValue `json:"targetMeanPrice"`
			} `json:"financialData"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quote fetches the quote and the summary modules for symbol
func (c *YahooClient) Quote(ctx context.Context, symbol string) (*models.InstrumentSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || strings.ContainsAny(symbol, " /?&#") {
		return nil, ErrInvalidSymbol
	}

	var quote quoteResponse
	if err := c.getJSON(ctx, quotePath+"?symbols="+url.QueryEscape(symbol), &quote); err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if quote.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote error for %s: %s", symbol, quote.QuoteResponse.Error.Description)
	}
	if len(quote.QuoteResponse.Result) == 0 {
		return nil, ErrSymbolNotFound
	}

	var summary summaryResponse
	if err := c.getJSON(ctx, summaryPath+url.PathEscape(symbol)+"?modules="+summaryModules, &summary); err != nil {
		return nil, fmt.Errorf("failed to fetch summary for %s: %w", symbol, err)
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("summary error for %s: %s", symbol, summary.QuoteSummary.Error.Description)
	}

	q := quote.QuoteResponse.Result[0]
	snapshot := &models.InstrumentSnapshot{
		Symbol:           q.Symbol,
		Price:            q.RegularMarketPrice,
		Change:           q.RegularMarketChange,
		ChangePercent:    q.RegularMarketChangePercent,
		MarketCap:        q.MarketCap,
		FiftyTwoWeekHigh: q.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  q.FiftyTwoWeekLow,
	}
	if len(summary.QuoteSummary.Result) > 0 {
		s := summary.QuoteSummary.Result[0]
		snapshot.PERatio = s.SummaryDetail.TrailingPE.Raw
		snapshot.AnalystRating = s.FinancialData.RecommendationMean.Raw
		snapshot.TargetPrice = s.FinancialData.TargetMeanPrice.Raw
	}

	return snapshot, nil
}

// getJSON performs an authenticated GET against the API. A 401 answer
// refreshes the crumb and retries once.
func (c *YahooClient) getJSON(ctx context.Context, path string, out interface{}) error {
	crumb, err := c.sessionCrumb(ctx, false)
	if err != nil {
		return err
	}
	err = c.doGetJSON(ctx, path, crumb, out)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	logger.Get().Info("yahoo crumb rejected, refreshing session")
	if crumb, err = c.sessionCrumb(ctx, true); err != nil {
		return err
	}
	return c.doGetJSON(ctx, path, crumb, out)
}

// sessionCrumb returns the cached crumb, fetching a new session cookie and
// crumb when none is cached or refresh is set
func (c *YahooClient) sessionCrumb(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" && !refresh {
		return c.crumb, nil
	}
	c.crumb = ""

	// The cookie page usually answers 404; only the Set-Cookie header matters.
	cookieResp, err := c.send(ctx, c.cookieURL, "text/html")
	if err != nil {
		return "", fmt.Errorf("failed to fetch session cookie: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(cookieResp.Body, 64*1024))
	cookieResp.Body.Close()

	resp, err := c.send(ctx, c.baseURL+crumbPath, "text/plain")
	if err != nil {
		return "", fmt.Errorf("failed to fetch crumb: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crumb API error: %d - %s", resp.StatusCode, string(body))
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", errors.New("crumb API returned no crumb")
	}

	logger.Get().Debug("fetched yahoo crumb", zap.Bool("refresh", refresh))
	c.crumb = crumb
	return crumb, nil
}

func (c *YahooClient) send(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *YahooClient) doGetJSON(ctx context.Context, path, crumb string, out interface{}) error {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	resp, err := c.send(ctx, c.baseURL+path+sep+"crumb="+url.QueryEscape(crumb), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("API error: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
