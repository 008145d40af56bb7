package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nevernicce/dashboard/internal/domain"
	"github.com/nevernicce/dashboard/internal/report"

	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyDocument is returned when delivery is asked to send a report
// with no segments; an empty report indicates an upstream bug, not a
// valid post.
var ErrEmptyDocument = errors.New("report document is empty")

// Sender is the transport primitive for delivering one message to one
// chat. The Telegram bot satisfies it in production.
type Sender interface {
	Send(chatID int64, text string) error
}

// Publisher splits report documents into transport-safe chunks and
// delivers them in order. The first failed chunk aborts the rest of the
// delivery and raises an admin side-channel notification.
type Publisher struct {
	tracer    trace.Tracer
	sender    Sender
	channelID int64
	adminID   int64
	pause     time.Duration
}

func NewPublisher(tracer trace.Tracer, sender Sender, channelID, adminID int64) *Publisher {
	return &Publisher{
		tracer:    tracer,
		sender:    sender,
		channelID: channelID,
		adminID:   adminID,
		// One message per second keeps us under the Telegram
		// per-chat rate limit.
		pause: time.Second,
	}
}

// PublishToChannel delivers the document to the configured channel.
func (p *Publisher) PublishToChannel(ctx context.Context, doc domain.ReportDocument) error {
	return p.deliver(ctx, p.channelID, doc)
}

// SendTo delivers the document to an arbitrary chat, used for admin
// previews.
func (p *Publisher) SendTo(ctx context.Context, chatID int64, doc domain.ReportDocument) error {
	return p.deliver(ctx, chatID, doc)
}

func (p *Publisher) deliver(ctx context.Context, chatID int64, doc domain.ReportDocument) error {
	_, span := p.tracer.Start(ctx, "publisher.deliver")
	defer span.End()

	chunks := report.SplitDocument(doc, report.MaxChunkLen)
	if len(chunks) == 0 {
		log.Println("refusing to deliver an empty report document")
		return ErrEmptyDocument
	}

	for i, chunk := range chunks {
		if err := p.sender.Send(chatID, chunk); err != nil {
			log.Printf("chunk %d/%d delivery to %d failed: %v", i+1, len(chunks), chatID, err)
			p.NotifyAdmin("Failed to deliver the report post, remaining chunks were not sent.")
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pause):
			}
		}
	}
	return nil
}

// NotifyAdmin sends a best-effort side-channel message to the
// administrative operator. Delivery problems on the side channel itself
// are only logged.
func (p *Publisher) NotifyAdmin(text string) {
	if p.adminID == 0 {
		return
	}
	if err := p.sender.Send(p.adminID, text); err != nil {
		log.Printf("admin notification failed: %v", err)
	}
}
