package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/nevernicce/dashboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coinglassBaseURL = "https://open-api.coinglass.com"

// ErrMissingAPIKey marks the configuration failure of an unset
// Coinglass credential, as opposed to an operational upstream failure.
var ErrMissingAPIKey = errors.New("coinglass API key not configured")

// CoinglassProvider fetches open interest, futures volume and 24h
// liquidation volumes per instrument from the Coinglass API.
type CoinglassProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewCoinglassProvider(tracer trace.Tracer, apiKey string) *CoinglassProvider {
	return &CoinglassProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coinglassBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
	}
}

// FetchMetrics returns per-instrument derivative metrics, enriching
// price and 24h change from the given market snapshot (Coinglass does
// not reliably provide them).
//
// Failure contract: an empty credential returns ErrMissingAPIKey. A
// transport-level failure of any overview query degrades that
// instrument and is joined into a non-nil error, while the remaining
// instruments still get processed; the partial map is returned
// alongside the error so the caller decides whether it publishes. An
// overview payload with success=false or no data, and any liquidation
// sub-query failure, degrade fields without producing an error.
func (p *CoinglassProvider) FetchMetrics(ctx context.Context, snapshot *domain.MarketSnapshot) (map[domain.Symbol]*domain.DerivativeMetrics, error) {
	ctx, span := p.tracer.Start(ctx, "coinglass.fetch-metrics")
	defer span.End()

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	metrics := make(map[domain.Symbol]*domain.DerivativeMetrics, len(domain.SupportedSymbols))
	var errs []error
	for _, symbol := range domain.SupportedSymbols {
		m := &domain.DerivativeMetrics{Symbol: symbol}
		if snapshot != nil {
			if quote, ok := snapshot.Quotes[symbol]; ok {
				m.CurrentPrice = quote.Price
				m.Change24h = quote.Change24h
			}
		}
		metrics[symbol] = m

		if err := p.fetchOverview(ctx, symbol, m); err != nil {
			errs = append(errs, fmt.Errorf("overview %s: %w", symbol, err))
			continue
		}
		if err := p.fetchLiquidations(ctx, symbol, m); err != nil {
			// Liquidations degrade silently; the rest of the
			// instrument's fields stay populated.
			log.Printf("coinglass liquidations unavailable for %s: %v", symbol, err)
		}
	}

	return metrics, errors.Join(errs...)
}

func (p *CoinglassProvider) fetchOverview(ctx context.Context, symbol domain.Symbol, m *domain.DerivativeMetrics) error {
	url := fmt.Sprintf("%s/api/pro/v1/futures/openInterest?symbol=%s", p.baseURL, symbol)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return err
	}

	var payload struct {
		Success bool `json:"success"`
		Data    *struct {
			TotalVolume  *float64 `json:"totalVolume"`
			OpenInterest *float64 `json:"openInterest"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode overview response: %w", err)
	}
	if !payload.Success || payload.Data == nil {
		log.Printf("coinglass returned no futures overview for %s", symbol)
		return nil
	}

	if payload.Data.TotalVolume != nil {
		m.Volume24h = domain.Numeric(*payload.Data.TotalVolume)
	}
	if payload.Data.OpenInterest != nil {
		m.OpenInterest = domain.Numeric(*payload.Data.OpenInterest)
	}
	return nil
}

func (p *CoinglassProvider) fetchLiquidations(ctx context.Context, symbol domain.Symbol, m *domain.DerivativeMetrics) error {
	url := fmt.Sprintf("%s/api/pro/v1/liquidation/history?symbol=%s&interval=h24", p.baseURL, symbol)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return err
	}

	// Rows are most-recent-first; only the latest 24h window matters.
	var payload struct {
		Success bool `json:"success"`
		Data    []struct {
			LongLiquidation  *float64 `json:"longLiquidation"`
			ShortLiquidation *float64 `json:"shortLiquidation"`
			TotalLiquidation *float64 `json:"totalLiquidation"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode liquidation response: %w", err)
	}
	if !payload.Success || len(payload.Data) == 0 {
		log.Printf("coinglass returned no liquidation rows for %s", symbol)
		return nil
	}

	latest := payload.Data[0]
	if latest.LongLiquidation != nil {
		m.LongLiquidations24h = domain.Numeric(*latest.LongLiquidation)
	}
	if latest.ShortLiquidation != nil {
		m.ShortLiquidations24h = domain.Numeric(*latest.ShortLiquidation)
	}
	if latest.TotalLiquidation != nil {
		m.TotalLiquidations24h = domain.Numeric(*latest.TotalLiquidation)
	}
	return nil
}

func (p *CoinglassProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("coinglassSecret", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coinglass API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
