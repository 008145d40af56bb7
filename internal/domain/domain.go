package domain

import (
	"fmt"
	"time"
)

// Symbol is one of the fixed instruments tracked by the dashboard.
type Symbol string

const (
	BTC Symbol = "BTC"
	ETH Symbol = "ETH"
	XRP Symbol = "XRP"
)

// SupportedSymbols is the fixed instrument set in report order.
var SupportedSymbols = []Symbol{BTC, ETH, XRP}

// CoinGeckoID maps symbols to CoinGecko coin ids.
var CoinGeckoID = map[Symbol]string{
	BTC: "bitcoin",
	ETH: "ethereum",
	XRP: "ripple",
}

// CoinGeckoIDToSymbol is the reverse of CoinGeckoID.
var CoinGeckoIDToSymbol = map[string]Symbol{
	"bitcoin":  BTC,
	"ethereum": ETH,
	"ripple":   XRP,
}

// IsSupported reports whether s belongs to the fixed instrument set.
func IsSupported(s Symbol) bool {
	_, ok := CoinGeckoID[s]
	return ok
}

type valueKind int

const (
	kindUnavailable valueKind = iota
	kindNumeric
	kindText
)

// UnavailableText is the rendered form of a Value with no data.
const UnavailableText = "N/A"

// Value is a report field that is either a number, verbatim operator
// text, or unavailable. It replaces a stringly "N/A" sentinel so that
// formatting logic branches on the kind instead of comparing strings.
type Value struct {
	kind valueKind
	num  float64
	text string
}

// Unavailable is the zero Value; it renders as UnavailableText.
var Unavailable = Value{}

// Numeric builds a numeric Value.
func Numeric(f float64) Value {
	return Value{kind: kindNumeric, num: f}
}

// Text builds a Value carrying verbatim text, e.g. an operator-typed
// "500M". Empty text and the literal unavailable token collapse to
// Unavailable, so re-rendering a rendered sentinel stays a sentinel.
func Text(s string) Value {
	if s == "" || s == UnavailableText {
		return Unavailable
	}
	return Value{kind: kindText, text: s}
}

// IsNumeric reports whether v holds a number.
func (v Value) IsNumeric() bool { return v.kind == kindNumeric }

// IsAvailable reports whether v holds any data at all.
func (v Value) IsAvailable() bool { return v.kind != kindUnavailable }

// Float returns the numeric payload; valid only when IsNumeric.
func (v Value) Float() float64 { return v.num }

// Format renders v: numbers to two decimals, text verbatim,
// unavailable as UnavailableText.
func (v Value) Format() string {
	switch v.kind {
	case kindNumeric:
		return fmt.Sprintf("%.2f", v.num)
	case kindText:
		return v.text
	default:
		return UnavailableText
	}
}

// InstrumentQuote is one instrument's spot price and 24h change.
type InstrumentQuote struct {
	Symbol    Symbol
	Price     Value
	Change24h Value
}

// MarketSnapshot is the price-index view of the market: one quote per
// supported symbol plus BTC dominance. A failed upstream call leaves
// the affected fields unavailable rather than erroring.
type MarketSnapshot struct {
	Quotes       map[Symbol]InstrumentQuote
	BTCDominance Value
}

// EmptySnapshot returns a snapshot with every field unavailable.
func EmptySnapshot() *MarketSnapshot {
	quotes := make(map[Symbol]InstrumentQuote, len(SupportedSymbols))
	for _, s := range SupportedSymbols {
		quotes[s] = InstrumentQuote{Symbol: s}
	}
	return &MarketSnapshot{Quotes: quotes}
}

// DerivativeMetrics is the per-instrument derivatives view. The
// automated and manual producers emit the same shape; any field may be
// unavailable independently of the others.
type DerivativeMetrics struct {
	Symbol               Symbol
	CurrentPrice         Value
	Change24h            Value
	Volume24h            Value
	OpenInterest         Value
	LongLiquidations24h  Value
	ShortLiquidations24h Value
	TotalLiquidations24h Value
}

// SentimentReading is the latest Fear & Greed index point. A nil
// *SentimentReading means the reading is wholly absent; individual
// fields are never partially missing.
type SentimentReading struct {
	Value          int
	Classification string
	ObservedAt     time.Time
}

// ReportDocument is the formatted report as an ordered sequence of
// semantically atomic segments. Delivery may split between segments but
// never inside one.
type ReportDocument struct {
	Segments []string
}

// IsEmpty reports whether the document has nothing to send.
func (d ReportDocument) IsEmpty() bool { return len(d.Segments) == 0 }
