package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nevernicce/dashboard/internal/domain"
	"github.com/nevernicce/dashboard/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type fakeMarkets struct {
	snapshot *domain.MarketSnapshot
}

func (f *fakeMarkets) FetchSnapshot(ctx context.Context) *domain.MarketSnapshot {
	if f.snapshot != nil {
		return f.snapshot
	}
	return domain.EmptySnapshot()
}

type fakeSentiment struct {
	reading *domain.SentimentReading
	err     error
}

func (f *fakeSentiment) FetchLatest(ctx context.Context) (*domain.SentimentReading, error) {
	return f.reading, f.err
}

type fakeDerivatives struct {
	metrics map[domain.Symbol]*domain.DerivativeMetrics
	err     error
}

func (f *fakeDerivatives) FetchMetrics(ctx context.Context, snapshot *domain.MarketSnapshot) (map[domain.Symbol]*domain.DerivativeMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.metrics != nil {
		return f.metrics, nil
	}
	metrics := make(map[domain.Symbol]*domain.DerivativeMetrics)
	for _, s := range domain.SupportedSymbols {
		m := &domain.DerivativeMetrics{
			Symbol:       s,
			Volume24h:    domain.Numeric(500),
			OpenInterest: domain.Numeric(100),
		}
		if snapshot != nil {
			if quote, ok := snapshot.Quotes[s]; ok {
				m.CurrentPrice = quote.Price
				m.Change24h = quote.Change24h
			}
		}
		metrics[s] = m
	}
	return metrics, nil
}

func newTestService(markets MarketDataSource, sentiment SentimentSource, derivatives DerivativesSource, sender *fakeSender) *ReportService {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	s := NewReportService(tracer, markets, sentiment, derivatives, newTestPublisher(sender), time.FixedZone("MSK", 3*60*60))
	s.now = func() time.Time { return time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestPublishToChannelFullSuccess(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(
		&fakeMarkets{},
		&fakeSentiment{reading: &domain.SentimentReading{Value: 63, Classification: "Greed"}},
		&fakeDerivatives{},
		sender,
	)

	if err := s.PublishToChannel(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != testChannelID {
		t.Fatalf("expected one channel post, got %+v", sender.sent)
	}

	text := sender.sent[0].text
	// Header, three instrument blocks in order, dominance, sentiment.
	if !strings.Contains(text, "📊 Dashboard — 2026-08-29 11:00 MSK") {
		t.Fatalf("missing header: %q", text)
	}
	btcIdx := strings.Index(text, "BTC:")
	ethIdx := strings.Index(text, "ETH:")
	xrpIdx := strings.Index(text, "XRP:")
	if btcIdx < 0 || ethIdx < btcIdx || xrpIdx < ethIdx {
		t.Fatalf("instrument blocks missing or out of order: %q", text)
	}
	if !strings.Contains(text, "Fear & Greed Index: 63 (Greed)") {
		t.Fatalf("missing sentiment line: %q", text)
	}
}

func TestPublishToChannelMissingKey(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(
		&fakeMarkets{},
		&fakeSentiment{},
		&fakeDerivatives{err: provider.ErrMissingAPIKey},
		sender,
	)

	err := s.PublishToChannel(context.Background())
	if !errors.Is(err, provider.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	// The admin gets the configuration warning; the channel gets
	// nothing.
	if len(sender.sent) != 1 || sender.sent[0].chatID != testAdminID {
		t.Fatalf("expected one admin message, got %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].text, "Coinglass API is not connected") {
		t.Fatalf("unexpected warning: %q", sender.sent[0].text)
	}
}

func TestPublishToChannelUpstreamFailure(t *testing.T) {
	sender := &fakeSender{}
	upstreamErr := errors.New("overview BTC: coinglass API error 502")
	s := newTestService(&fakeMarkets{}, &fakeSentiment{}, &fakeDerivatives{err: upstreamErr}, sender)

	if err := s.PublishToChannel(context.Background()); !errors.Is(err, upstreamErr) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Coinglass API error") {
		t.Fatalf("expected admin API-error warning, got %+v", sender.sent)
	}
}

func TestPublishToChannelDeliveryFailure(t *testing.T) {
	sendErr := errors.New("chat not found")
	sender := &fakeSender{
		failOn: func(chatID int64, text string) error {
			if chatID == testChannelID {
				return sendErr
			}
			return nil
		},
	}
	s := newTestService(&fakeMarkets{}, &fakeSentiment{}, &fakeDerivatives{}, sender)

	if err := s.PublishToChannel(context.Background()); !errors.Is(err, sendErr) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != testAdminID {
		t.Fatalf("expected one admin delivery warning, got %+v", sender.sent)
	}
}

func TestBuildReportDegradedSentiment(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(
		&fakeMarkets{},
		&fakeSentiment{err: errors.New("http 503")},
		&fakeDerivatives{},
		sender,
	)

	doc, err := s.BuildAutomated(context.Background())
	if err != nil {
		t.Fatalf("sentiment failure must not abort the build: %v", err)
	}
	last := doc.Segments[len(doc.Segments)-1]
	if last != "Fear & Greed index unavailable." {
		t.Fatalf("unexpected sentiment segment: %q", last)
	}
}

func TestSendPreviewGoesToRequestedChat(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(&fakeMarkets{}, &fakeSentiment{}, &fakeDerivatives{}, sender)

	if err := s.SendPreview(context.Background(), testAdminID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != testAdminID {
		t.Fatalf("expected one preview to the admin, got %+v", sender.sent)
	}
}

func TestPublishManualToChannel(t *testing.T) {
	snapshot := domain.EmptySnapshot()
	snapshot.Quotes[domain.BTC] = domain.InstrumentQuote{
		Symbol:    domain.BTC,
		Price:     domain.Numeric(97000),
		Change24h: domain.Numeric(2.1),
	}

	sender := &fakeSender{}
	s := newTestService(&fakeMarkets{snapshot: snapshot}, &fakeSentiment{}, &fakeDerivatives{}, sender)

	if err := s.PublishManualToChannel(context.Background(), "BTC: TV=500M, TL=10M"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != testChannelID {
		t.Fatalf("expected one channel post, got %+v", sender.sent)
	}

	text := sender.sent[0].text
	if !strings.Contains(text, "24h Volume: 500M") {
		t.Fatalf("manual volume missing: %q", text)
	}
	// Prices come from the fresh snapshot, not the operator text.
	if !strings.Contains(text, "Price: 97000.00 (2.10%)") {
		t.Fatalf("snapshot enrichment missing: %q", text)
	}
}

func TestSendManualPreview(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(&fakeMarkets{}, &fakeSentiment{}, &fakeDerivatives{}, sender)

	if err := s.SendManualPreview(context.Background(), "N/A", testAdminID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != testAdminID {
		t.Fatalf("expected one admin preview, got %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].text, "24h Volume: N/A") {
		t.Fatalf("expected sentinel fields: %q", sender.sent[0].text)
	}
}
