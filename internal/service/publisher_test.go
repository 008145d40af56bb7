package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nevernicce/dashboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	testChannelID int64 = -100123
	testAdminID   int64 = 42
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent   []sentMessage
	failOn func(chatID int64, text string) error
}

func (f *fakeSender) Send(chatID int64, text string) error {
	if f.failOn != nil {
		if err := f.failOn(chatID, text); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func newTestPublisher(sender *fakeSender) *Publisher {
	p := NewPublisher(trace.NewNoopTracerProvider().Tracer("test"), sender, testChannelID, testAdminID)
	p.pause = 0
	return p
}

func TestPublisherDeliversChunksInOrder(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPublisher(sender)

	doc := domain.ReportDocument{Segments: []string{
		strings.Repeat("a", 3000),
		strings.Repeat("b", 3000),
		"tail",
	}}
	if err := p.PublishToChannel(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(sender.sent))
	}
	for _, msg := range sender.sent {
		if msg.chatID != testChannelID {
			t.Fatalf("unexpected chat: %d", msg.chatID)
		}
		if len(msg.text) > 4000 {
			t.Fatalf("chunk exceeds transport limit: %d", len(msg.text))
		}
	}
	if !strings.HasPrefix(sender.sent[0].text, "aaa") {
		t.Fatal("chunks out of order")
	}
	if !strings.HasSuffix(sender.sent[1].text, "tail") {
		t.Fatalf("second chunk should end with the tail segment: %q", sender.sent[1].text[:20])
	}
}

func TestPublisherEmptyDocument(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPublisher(sender)

	err := p.PublishToChannel(context.Background(), domain.ReportDocument{})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should be sent: %+v", sender.sent)
	}
}

func TestPublisherAbortsOnFirstFailure(t *testing.T) {
	sendErr := errors.New("forbidden: bot was kicked")
	sender := &fakeSender{
		failOn: func(chatID int64, text string) error {
			if chatID == testChannelID {
				return sendErr
			}
			return nil
		},
	}
	p := newTestPublisher(sender)

	doc := domain.ReportDocument{Segments: []string{
		strings.Repeat("a", 3000),
		strings.Repeat("b", 3000),
	}}
	err := p.PublishToChannel(context.Background(), doc)
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}

	// Only the admin side-channel notification went through.
	if len(sender.sent) != 1 || sender.sent[0].chatID != testAdminID {
		t.Fatalf("expected exactly one admin notification, got %+v", sender.sent)
	}
}

func TestPublisherSendTo(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPublisher(sender)

	doc := domain.ReportDocument{Segments: []string{"preview"}}
	if err := p.SendTo(context.Background(), testAdminID, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != testAdminID || sender.sent[0].text != "preview" {
		t.Fatalf("unexpected delivery: %+v", sender.sent)
	}
}

func TestNotifyAdminWithoutAdmin(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(trace.NewNoopTracerProvider().Tracer("test"), sender, testChannelID, 0)
	p.NotifyAdmin("warning")
	if len(sender.sent) != 0 {
		t.Fatalf("no admin configured, nothing should be sent: %+v", sender.sent)
	}
}
