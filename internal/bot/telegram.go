package bot

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/nevernicce/dashboard/internal/provider"

	tele "gopkg.in/telebot.v3"
)

const infoMessage = "This is the dashboard bot for the @nevernicce_trade channel. " +
	"For any questions please contact @nevernicce."

const noPermissionMessage = "You do not have permission to do that."

const manualInputPrompt = "Please enter the current Coinglass futures data for BTC, ETH and XRP. " +
	"Use the following format per coin (fields may be incomplete, 'N/A' or omitted when unavailable):\n\n" +
	"BTC: TV=X, TL=Y, LL=A, SL=B, OI=C;\n" +
	"ETH: TV=D, TL=E, LL=F, SL=G, OI=H;\n" +
	"XRP: TV=I, TL=J, LL=K, SL=L, OI=M\n\n" +
	"TV — total futures volume, TL — total liquidations, LL — long liquidations, " +
	"SL — short liquidations, OI — open interest.\n\n" +
	"Example:\nBTC: TV=500M, TL=10M, LL=6M, SL=4M, OI=100K; ETH: TV=200M, TL=5M, LL=3M, SL=2M, OI=50K; " +
	"XRP: TV=100M, TL=2M, LL=1.5M, SL=0.5M, OI=20K\n\n" +
	"If no data is available, simply reply 'N/A'."

// ReportRunner is the slice of the report service the bot drives.
type ReportRunner interface {
	PublishToChannel(ctx context.Context) error
	SendPreview(ctx context.Context, chatID int64) error
	PublishManualToChannel(ctx context.Context, input string) error
	SendManualPreview(ctx context.Context, input string, chatID int64) error
}

// TelegramSender adapts *tele.Bot to the service.Sender transport
// primitive.
type TelegramSender struct {
	Bot *tele.Bot
}

func (s TelegramSender) Send(chatID int64, text string) error {
	_, err := s.Bot.Send(tele.ChatID(chatID), text)
	return err
}

// NewBot creates the long-polling Telegram bot.
func NewBot(token string) (*tele.Bot, error) {
	return tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
}

// RegisterHandlers wires the bot commands and the catch-all text
// handler. Report cycles run synchronously inside the handler; telebot
// dispatches updates on separate goroutines, so a slow upstream stalls
// only its own cycle.
func RegisterHandlers(b *tele.Bot, reports ReportRunner, sessions *Sessions, adminID int64) {
	adminOnly := func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != adminID {
				return c.Send(noPermissionMessage)
			}
			return next(c)
		}
	}

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(infoMessage)
	})
	b.Handle("/help", func(c tele.Context) error {
		return c.Send(infoMessage)
	})

	b.Handle("/report", adminOnly(func(c tele.Context) error {
		if err := c.Send("Collecting statistics and preparing the report for immediate publication..."); err != nil {
			return err
		}
		err := reports.PublishToChannel(context.Background())
		return c.Send(publishOutcome(err, "Report generated and published to the channel."))
	}))

	b.Handle("/test", adminOnly(func(c tele.Context) error {
		if err := c.Send("Starting a test data collection and report run..."); err != nil {
			return err
		}
		err := reports.SendPreview(context.Background(), c.Chat().ID)
		return c.Send(publishOutcome(err, "Test report sent to you."))
	}))

	b.Handle("/report_admin", adminOnly(func(c tele.Context) error {
		sessions.Await(c.Sender().ID, TargetChannel)
		log.Printf("manual Coinglass input requested by operator %d (channel-bound)", c.Sender().ID)
		return c.Send(manualInputPrompt)
	}))

	b.Handle("/report_admin_test", adminOnly(func(c tele.Context) error {
		sessions.Await(c.Sender().ID, TargetAdmin)
		log.Printf("manual Coinglass input requested by operator %d (preview-bound)", c.Sender().ID)
		return c.Send(manualInputPrompt)
	}))

	b.Handle(tele.OnText, func(c tele.Context) error {
		if c.Sender() != nil && c.Sender().ID == adminID {
			if target, ok := sessions.Take(c.Sender().ID); ok {
				return handleManualInput(c, reports, target)
			}
		}
		return c.Send(infoMessage)
	})
}

func handleManualInput(c tele.Context, reports ReportRunner, target ManualTarget) error {
	if err := c.Send("Received the Coinglass data, processing..."); err != nil {
		return err
	}

	var err error
	switch target {
	case TargetChannel:
		err = reports.PublishManualToChannel(context.Background(), c.Text())
		return c.Send(publishOutcome(err, "Report with manual Coinglass data generated and published to the channel."))
	default:
		err = reports.SendManualPreview(context.Background(), c.Text(), c.Chat().ID)
		return c.Send(publishOutcome(err, "Test report with manual Coinglass data sent to you."))
	}
}

func publishOutcome(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, provider.ErrMissingAPIKey):
		return "Coinglass API key is not configured; the report was cancelled."
	default:
		return "The report could not be delivered, check the bot logs."
	}
}
