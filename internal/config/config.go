package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramBotToken string
	ChannelID        int64
	AdminID          int64
	CoinglassAPIKey  string

	AutopostHour   int
	ReportTimezone string
	HTTPPort       int
}

// Load reads configuration from the environment. Missing bot
// credentials are only warned about here; main treats them as fatal.
// A missing Coinglass key is not fatal anywhere: it disables the
// automated derivatives source and nothing else.
func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		CoinglassAPIKey:  os.Getenv("COINGLASS_API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.CoinglassAPIKey == "" {
		log.Println("Warning: COINGLASS_API_KEY not set, automated derivatives data will be unavailable")
	}

	cfg.ChannelID = parseID("CHANNEL_ID")
	cfg.AdminID = parseID("ADMIN_ID")

	// Disabled by default; the channel owner posts on demand.
	cfg.AutopostHour = -1
	if v := strings.TrimSpace(os.Getenv("AUTOPOST_HOUR")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.AutopostHour = n
		} else {
			log.Printf("Warning: invalid AUTOPOST_HOUR=%q, autopost disabled", v)
		}
	}

	cfg.ReportTimezone = strings.TrimSpace(os.Getenv("REPORT_TIMEZONE"))
	if cfg.ReportTimezone == "" {
		cfg.ReportTimezone = "Europe/Moscow"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	return cfg
}

// Location resolves the report timezone, falling back to UTC when the
// zone database does not know it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		log.Printf("Warning: unknown REPORT_TIMEZONE %q, using UTC", c.ReportTimezone)
		return time.UTC
	}
	return loc
}

func parseID(name string) int64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		log.Printf("Warning: %s not set", name)
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q", name, v)
		return 0
	}
	return id
}
