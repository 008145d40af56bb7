package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nevernicce/dashboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches spot prices and global market data from the
// CoinGecko free API. It never propagates upstream failures: a failed
// call degrades the affected snapshot fields to unavailable so that
// downstream formatting needs no error handling for this source.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting
// (8 requests per minute, one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchSnapshot returns a best-effort market snapshot for the supported
// instruments. The result is never nil; prices and dominance degrade
// independently when their upstream call fails.
func (p *CoinGeckoProvider) FetchSnapshot(ctx context.Context) *domain.MarketSnapshot {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-snapshot")
	defer span.End()

	snapshot := domain.EmptySnapshot()
	p.fetchQuotes(ctx, snapshot)
	p.fetchDominance(ctx, snapshot)
	return snapshot
}

func (p *CoinGeckoProvider) fetchQuotes(ctx context.Context, snapshot *domain.MarketSnapshot) {
	ids := make([]string, 0, len(domain.SupportedSymbols))
	for _, s := range domain.SupportedSymbols {
		ids = append(ids, domain.CoinGeckoID[s])
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	body, err := p.doRequest(ctx, p.baseURL+"/simple/price?"+q.Encode())
	if err != nil {
		log.Printf("coingecko prices unavailable: %v", err)
		return
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_24h_change": 2.34}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("coingecko prices undecodable: %v", err)
		return
	}

	for cgID, data := range raw {
		symbol, ok := domain.CoinGeckoIDToSymbol[cgID]
		if !ok {
			continue
		}
		quote := domain.InstrumentQuote{Symbol: symbol}
		if price, ok := data["usd"]; ok {
			quote.Price = domain.Numeric(price)
		}
		if change, ok := data["usd_24h_change"]; ok {
			quote.Change24h = domain.Numeric(change)
		}
		snapshot.Quotes[symbol] = quote
	}
}

func (p *CoinGeckoProvider) fetchDominance(ctx context.Context, snapshot *domain.MarketSnapshot) {
	body, err := p.doRequest(ctx, p.baseURL+"/global")
	if err != nil {
		log.Printf("coingecko global data unavailable: %v", err)
		return
	}

	var raw struct {
		Data struct {
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("coingecko global data undecodable: %v", err)
		return
	}

	if pct, ok := raw.Data.MarketCapPercentage["btc"]; ok {
		snapshot.BTCDominance = domain.Numeric(pct)
	}
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
