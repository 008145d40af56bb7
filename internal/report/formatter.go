package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/nevernicce/dashboard/internal/domain"
)

// BuildDocument merges derivative metrics, sentiment and dominance data
// into a report document. Each segment is semantically atomic: the
// header, one block per instrument, the dominance line, the sentiment
// line. A nil metrics map, nil sentiment reading and nil snapshot each
// mean that source is wholly absent; when all three are absent the
// document degrades to a single fallback segment instead of an empty
// one.
func BuildDocument(now time.Time, loc *time.Location, metrics map[domain.Symbol]*domain.DerivativeMetrics, sentiment *domain.SentimentReading, snapshot *domain.MarketSnapshot) domain.ReportDocument {
	if metrics == nil && sentiment == nil && snapshot == nil {
		return domain.ReportDocument{Segments: []string{"No data available to generate the report."}}
	}

	segments := []string{
		fmt.Sprintf("📊 Dashboard — %s", now.In(loc).Format("2006-01-02 15:04 MST")),
	}

	if metrics != nil {
		for _, symbol := range domain.SupportedSymbols {
			m, ok := metrics[symbol]
			if !ok {
				m = &domain.DerivativeMetrics{Symbol: symbol}
			}
			segments = append(segments, formatInstrument(m))
		}
	} else {
		segments = append(segments, "Derivatives data unavailable.")
	}

	if snapshot != nil {
		segments = append(segments, formatDominance(snapshot.BTCDominance))
	}

	if sentiment != nil {
		segments = append(segments, fmt.Sprintf("Fear & Greed Index: %d (%s)", sentiment.Value, sentiment.Classification))
	} else {
		segments = append(segments, "Fear & Greed index unavailable.")
	}

	return domain.ReportDocument{Segments: segments}
}

func formatInstrument(m *domain.DerivativeMetrics) string {
	lines := make([]string, 0, 7)
	lines = append(lines, fmt.Sprintf("%s:", m.Symbol))

	// The price line is rendered only when both price and change are
	// numeric; a degraded quote drops the line rather than printing
	// sentinels next to a percent sign.
	if m.CurrentPrice.IsNumeric() && m.Change24h.IsNumeric() {
		lines = append(lines, fmt.Sprintf("Price: %s (%s%%)", m.CurrentPrice.Format(), m.Change24h.Format()))
	}

	lines = append(lines,
		fmt.Sprintf("24h Volume: %s", m.Volume24h.Format()),
		fmt.Sprintf("24h Liquidations (total): %s", m.TotalLiquidations24h.Format()),
		fmt.Sprintf("24h Long Liquidations: %s", m.LongLiquidations24h.Format()),
		fmt.Sprintf("24h Short Liquidations: %s", m.ShortLiquidations24h.Format()),
		fmt.Sprintf("Open Interest (OI): %s", m.OpenInterest.Format()),
	)
	return strings.Join(lines, "\n")
}

func formatDominance(dominance domain.Value) string {
	if !dominance.IsAvailable() {
		return "BTC dominance unavailable."
	}
	return fmt.Sprintf("BTC Dominance: %s%%", dominance.Format())
}
