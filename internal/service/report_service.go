package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/nevernicce/dashboard/internal/domain"
	"github.com/nevernicce/dashboard/internal/provider"
	"github.com/nevernicce/dashboard/internal/report"

	"go.opentelemetry.io/otel/trace"
)

// MarketDataSource supplies the best-effort market snapshot. Failures
// surface as unavailable fields, never as errors.
type MarketDataSource interface {
	FetchSnapshot(ctx context.Context) *domain.MarketSnapshot
}

// SentimentSource supplies the latest Fear & Greed reading.
type SentimentSource interface {
	FetchLatest(ctx context.Context) (*domain.SentimentReading, error)
}

// DerivativesSource produces the per-instrument derivative metrics.
// The Coinglass provider and the manual-override source are the two
// interchangeable implementations.
type DerivativesSource interface {
	FetchMetrics(ctx context.Context, snapshot *domain.MarketSnapshot) (map[domain.Symbol]*domain.DerivativeMetrics, error)
}

const (
	missingKeyWarning = "⚠️ Coinglass API is not connected!\n\n" +
		"Set COINGLASS_API_KEY in the environment so the bot can fetch derivatives data automatically. " +
		"Publication of the report has been cancelled."
	upstreamErrorWarning = "❌ Coinglass API error!\n\n" +
		"Fetching derivatives data from the Coinglass API failed. Check the bot logs for details. " +
		"Publication of the report has been cancelled."
)

// ReportService runs one report cycle: fetch the market snapshot, the
// derivative metrics and the sentiment reading, format the document,
// and hand it to the publisher. Cycles are independent; the service
// keeps no state between them and concurrent cycles may interleave.
type ReportService struct {
	tracer      trace.Tracer
	markets     MarketDataSource
	sentiment   SentimentSource
	derivatives DerivativesSource
	publisher   *Publisher
	loc         *time.Location
	now         func() time.Time
}

func NewReportService(tracer trace.Tracer, markets MarketDataSource, sentiment SentimentSource, derivatives DerivativesSource, publisher *Publisher, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		tracer:      tracer,
		markets:     markets,
		sentiment:   sentiment,
		derivatives: derivatives,
		publisher:   publisher,
		loc:         loc,
		now:         time.Now,
	}
}

// BuildReport runs the fetch-merge-format pipeline with the given
// derivatives source. Derivatives failures abort the build; price and
// sentiment failures only degrade the document.
func (s *ReportService) BuildReport(ctx context.Context, source DerivativesSource) (domain.ReportDocument, error) {
	ctx, span := s.tracer.Start(ctx, "report.build")
	defer span.End()

	snapshot := s.markets.FetchSnapshot(ctx)

	metrics, err := source.FetchMetrics(ctx, snapshot)
	if err != nil {
		return domain.ReportDocument{}, err
	}

	reading := s.fetchSentiment(ctx)

	return report.BuildDocument(s.now(), s.loc, metrics, reading, snapshot), nil
}

// BuildAutomated builds the report from the configured automated
// derivatives source without delivering it.
func (s *ReportService) BuildAutomated(ctx context.Context) (domain.ReportDocument, error) {
	return s.BuildReport(ctx, s.derivatives)
}

// PublishToChannel builds the automated report and posts it to the
// channel. Used by the /report command and the scheduled autopost; on
// failure only the admin is notified, never the public channel.
func (s *ReportService) PublishToChannel(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "report.publish-channel")
	defer span.End()

	doc, err := s.BuildReport(ctx, s.derivatives)
	if err != nil {
		s.notifyBuildFailure(err)
		return err
	}
	return s.publisher.PublishToChannel(ctx, doc)
}

// SendPreview builds the automated report and sends it to the given
// chat instead of the channel. Used by the /test command.
func (s *ReportService) SendPreview(ctx context.Context, chatID int64) error {
	ctx, span := s.tracer.Start(ctx, "report.send-preview")
	defer span.End()

	doc, err := s.BuildReport(ctx, s.derivatives)
	if err != nil {
		s.notifyBuildFailure(err)
		return err
	}
	return s.publisher.SendTo(ctx, chatID, doc)
}

// PublishManualToChannel runs the manual-override path: operator text
// replaces the Coinglass source, prices are still enriched from a fresh
// snapshot, and the result goes to the channel.
func (s *ReportService) PublishManualToChannel(ctx context.Context, input string) error {
	ctx, span := s.tracer.Start(ctx, "report.publish-manual")
	defer span.End()

	doc, err := s.BuildReport(ctx, provider.NewManualMetricsSource(s.tracer, input))
	if err != nil {
		return err
	}
	return s.publisher.PublishToChannel(ctx, doc)
}

// SendManualPreview is the manual-override path delivered to the given
// chat instead of the channel.
func (s *ReportService) SendManualPreview(ctx context.Context, input string, chatID int64) error {
	ctx, span := s.tracer.Start(ctx, "report.manual-preview")
	defer span.End()

	doc, err := s.BuildReport(ctx, provider.NewManualMetricsSource(s.tracer, input))
	if err != nil {
		return err
	}
	return s.publisher.SendTo(ctx, chatID, doc)
}

func (s *ReportService) fetchSentiment(ctx context.Context) *domain.SentimentReading {
	reading, err := s.sentiment.FetchLatest(ctx)
	if err != nil {
		// Sentiment is binary for callers: present or wholly
		// absent, never partially populated.
		log.Printf("fear & greed index unavailable: %v", err)
		return nil
	}
	return reading
}

func (s *ReportService) notifyBuildFailure(err error) {
	if errors.Is(err, provider.ErrMissingAPIKey) {
		s.publisher.NotifyAdmin(missingKeyWarning)
		return
	}
	s.publisher.NotifyAdmin(upstreamErrorWarning)
}
