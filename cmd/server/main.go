package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nevernicce/dashboard/internal/bot"
	"github.com/nevernicce/dashboard/internal/config"
	"github.com/nevernicce/dashboard/internal/handler"
	"github.com/nevernicce/dashboard/internal/job"
	"github.com/nevernicce/dashboard/internal/provider"
	"github.com/nevernicce/dashboard/internal/service"
	"github.com/nevernicce/dashboard/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newBotFunc     = bot.NewBot
	newSenderFunc  = func(b *tele.Bot) service.Sender { return bot.TelegramSender{Bot: b} }
	newMarketsFunc = func(tracer trace.Tracer) service.MarketDataSource {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newSentimentFunc = func(tracer trace.Tracer) service.SentimentSource {
		return provider.NewFearGreedProvider(tracer)
	}
	newDerivativesFunc = func(tracer trace.Tracer, apiKey string) service.DerivativesSource {
		return provider.NewCoinglassProvider(tracer, apiKey)
	}
	registerHandlersFunc   = bot.RegisterHandlers
	startBotFunc           = func(b *tele.Bot) { go b.Start() }
	stopBotFunc            = func(b *tele.Bot) { b.Stop() }
	startJobFunc           = func(j *job.AutopostJob, ctx context.Context) { go j.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	if cfg.TelegramBotToken == "" || cfg.ChannelID == 0 || cfg.AdminID == 0 {
		log.Fatal("TELEGRAM_BOT_TOKEN, CHANNEL_ID and ADMIN_ID must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	b, err := newBotFunc(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	loc := cfg.Location()
	publisher := service.NewPublisher(tracer, newSenderFunc(b), cfg.ChannelID, cfg.AdminID)
	reports := service.NewReportService(
		tracer,
		newMarketsFunc(tracer),
		newSentimentFunc(tracer),
		newDerivativesFunc(tracer, cfg.CoinglassAPIKey),
		publisher,
		loc,
	)

	sessions := bot.NewSessions()
	registerHandlersFunc(b, reports, sessions, cfg.AdminID)
	startBotFunc(b)
	log.Println("Telegram bot started")

	autopost := job.NewAutopostJob(tracer, reports, cfg.AutopostHour, loc)
	startJobFunc(autopost, ctx)

	h := handler.New(tracer, reports)
	r := newRouterFunc()
	r.Use(otelgin.Middleware("dashboard-bot"))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down...")

	cancel()
	stopBotFunc(b)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
