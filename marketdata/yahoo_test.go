package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteBody = `{"quoteResponse":{"result":[{"symbol":"AAPL","regularMarketPrice":190.5,
"regularMarketChange":1.5,"regularMarketChangePercent":0.79,"marketCap":2950000000000,
"fiftyTwoWeekHigh":199.6,"fiftyTwoWeekLow":164.1}],"error":null}}`

const summaryBody = `{"quoteSummary":{"result":[{"summaryDetail":{"trailingPE":{"raw":29.4,"fmt":"29.40"}},
"financialData":{"recommendationMean":{"raw":2.1},"targetMeanPrice":{"raw":210}}}],"error":null}}`

// yahooSession mimics Yahoo's session handshake: /cookie sets the session
// cookie, the crumb endpoint needs it, and the data endpoints need both.
type yahooSession struct {
	mu           sync.Mutex
	crumbs       []string
	accepted     string
	crumbFetches int
	rejected     int
}

func (y *yahooSession) authorized(r *http.Request) bool {
	cookie, err := r.Cookie("A3")
	if err != nil || cookie.Value != "session" {
		return false
	}
	y.mu.Lock()
	defer y.mu.Unlock()
	if r.URL.Query().Get("crumb") != y.accepted {
		y.rejected++
		return false
	}
	return true
}

func (y *yahooSession) register(mux *http.ServeMux) {
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		http.NotFound(w, r)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("A3"); err != nil {
			http.Error(w, "", http.StatusUnauthorized)
			return
		}
		y.mu.Lock()
		crumb := y.crumbs[y.crumbFetches%len(y.crumbs)]
		y.crumbFetches++
		y.mu.Unlock()
		_, _ = w.Write([]byte(crumb))
	})
}

func (y *yahooSession) fetches() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.crumbFetches
}

func (y *yahooSession) rejections() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.rejected
}

func newSessionServer(t *testing.T, session *yahooSession, quote, summary string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	session.register(mux)
	mux.HandleFunc("/v7/finance/quote", func(w http.ResponseWriter, r *http.Request) {
		if !session.authorized(r) {
			http.Error(w, `{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`, http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(quote))
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AAPL", func(w http.ResponseWriter, r *http.Request) {
		if !session.authorized(r) {
			http.Error(w, `{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`, http.StatusUnauthorized)
			return
		}
		assert.Equal(t, summaryModules, r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(summary))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, quote, summary string) *httptest.Server {
	t.Helper()
	return newSessionServer(t, &yahooSession{crumbs: []string{"crumb-1"}, accepted: "crumb-1"}, quote, summary)
}

func newTestClient(srv *httptest.Server) *YahooClient {
	return NewYahooClient(WithBaseURL(srv.URL), WithCookieURL(srv.URL+"/cookie"), WithHTTPClient(srv.Client()))
}

func TestQuoteParsesQuoteAndSummary(t *testing.T) {
	srv := newTestServer(t, quoteBody, summaryBody)
	client := newTestClient(srv)

	snap, err := client.Quote(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, 190.5, snap.Price)
	assert.Equal(t, 164.1, snap.FiftyTwoWeekLow)
	require.NotNil(t, snap.PERatio)
	assert.Equal(t, 29.4, *snap.PERatio)
	require.NotNil(t, snap.AnalystRating)
	assert.Equal(t, 2.1, *snap.AnalystRating)
	require.NotNil(t, snap.TargetPrice)
	assert.Equal(t, 210.0, *snap.TargetPrice)
}

func TestQuoteMissingOptionalMetrics(t *testing.T) {
	srv := newTestServer(t, quoteBody, `{"quoteSummary":{"result":[{}],"error":null}}`)
	client := newTestClient(srv)

	snap, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, snap.PERatio)
	assert.Nil(t, snap.AnalystRating)
	assert.Nil(t, snap.TargetPrice)
}

func TestQuoteUnknownSymbol(t *testing.T) {
	srv := newTestServer(t, `{"quoteResponse":{"result":[],"error":null}}`, summaryBody)
	client := newTestClient(srv)

	_, err := client.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestQuoteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	client := newTestClient(srv)

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestQuoteRejectsInvalidSymbol(t *testing.T) {
	client := NewYahooClient()
	_, err := client.Quote(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = client.Quote(context.Background(), "AA/PL")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestQuoteSendsSessionCookieAndCrumb(t *testing.T) {
	session := &yahooSession{crumbs: []string{"a1b2c3"}, accepted: "a1b2c3"}
	srv := newSessionServer(t, session, quoteBody, summaryBody)
	client := newTestClient(srv)

	for i := 0; i < 2; i++ {
		snap, err := client.Quote(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 190.5, snap.Price)
	}
	assert.Equal(t, 1, session.fetches(), "crumb is cached across requests")
	assert.Zero(t, session.rejections())
}

func TestQuoteRefreshesRejectedCrumb(t *testing.T) {
	session := &yahooSession{crumbs: []string{"stale", "fresh"}, accepted: "fresh"}
	srv := newSessionServer(t, session, quoteBody, summaryBody)
	client := newTestClient(srv)

	snap, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, 2, session.fetches())
	assert.Equal(t, 1, session.rejections())
}

func TestQuoteFailsWhenCrumbKeepsBeingRejected(t *testing.T) {
	session := &yahooSession{crumbs: []string{"stale"}, accepted: "never"}
	srv := newSessionServer(t, session, quoteBody, summaryBody)
	client := newTestClient(srv)

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnauthorized)
	assert.Equal(t, 2, session.fetches(), "refreshes only once per request")
}

func TestQuoteWithoutSessionCookie(t *testing.T) {
	session := &yahooSession{crumbs: []string{"crumb-1"}, accepted: "crumb-1"}
	srv := newSessionServer(t, session, quoteBody, summaryBody)
	client := NewYahooClient(WithBaseURL(srv.URL), WithCookieURL(srv.URL+"/missing"), WithHTTPClient(srv.Client()))

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crumb API error: 401")
}
