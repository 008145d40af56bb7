package provider

import (
	"context"
	"strings"

	"github.com/nevernicce/dashboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// ManualMetricsSource produces derivative metrics from operator-typed
// text instead of the Coinglass API. It satisfies the same contract as
// CoinglassProvider.FetchMetrics, so the rest of the pipeline cannot
// tell the two producers apart.
type ManualMetricsSource struct {
	tracer trace.Tracer
	input  string
}

func NewManualMetricsSource(tracer trace.Tracer, input string) *ManualMetricsSource {
	return &ManualMetricsSource{tracer: tracer, input: input}
}

// FetchMetrics parses the operator input and enriches price and 24h
// change from the given snapshot. Operator input never fails: garbage
// clauses degrade to unavailable fields.
func (s *ManualMetricsSource) FetchMetrics(ctx context.Context, snapshot *domain.MarketSnapshot) (map[domain.Symbol]*domain.DerivativeMetrics, error) {
	_, span := s.tracer.Start(ctx, "manual-metrics.parse")
	defer span.End()

	metrics := ParseManualInput(s.input)
	if snapshot != nil {
		for symbol, m := range metrics {
			if quote, ok := snapshot.Quotes[symbol]; ok {
				m.CurrentPrice = quote.Price
				m.Change24h = quote.Change24h
			}
		}
	}
	return metrics, nil
}

// ParseManualInput parses a semicolon-separated list of
// "SYMBOL: KEY=VALUE, KEY=VALUE" clauses with keys TV, TL, LL, SL, OI.
// Parsing is lenient: clauses without a colon and fields without an
// equals sign are skipped, unknown symbols and keys are dropped, and
// the literal "n/a" (any case) means no manual data at all. Every
// supported symbol is present in the result; fields the operator did
// not mention stay unavailable.
func ParseManualInput(text string) map[domain.Symbol]*domain.DerivativeMetrics {
	metrics := make(map[domain.Symbol]*domain.DerivativeMetrics, len(domain.SupportedSymbols))
	for _, symbol := range domain.SupportedSymbols {
		metrics[symbol] = &domain.DerivativeMetrics{Symbol: symbol}
	}

	if strings.EqualFold(strings.TrimSpace(text), "n/a") {
		return metrics
	}

	for _, clause := range strings.Split(text, ";") {
		name, fields, ok := strings.Cut(clause, ":")
		if !ok {
			continue
		}
		symbol := domain.Symbol(strings.ToUpper(strings.TrimSpace(name)))
		if !domain.IsSupported(symbol) {
			continue
		}
		m := metrics[symbol]

		for _, field := range strings.Split(fields, ",") {
			key, raw, ok := strings.Cut(field, "=")
			if !ok {
				continue
			}
			value := domain.Text(strings.TrimSpace(raw))
			switch strings.ToUpper(strings.TrimSpace(key)) {
			case "TV":
				m.Volume24h = value
			case "TL":
				m.TotalLiquidations24h = value
			case "LL":
				m.LongLiquidations24h = value
			case "SL":
				m.ShortLiquidations24h = value
			case "OI":
				m.OpenInterest = value
			}
		}
	}

	return metrics
}
