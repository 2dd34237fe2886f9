package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/groupgate/pixbot/internal/models"
)

// Config aggregates runtime configuration for the bot and supporting services.
type Config struct {
	BotToken       string
	MPAccessToken  string
	MPBaseURL      string
	GroupChatID    int64
	MySQLDSN       string
	ListenAddr     string
	RequestTimeout time.Duration
	StartImageURL  string
	PromoCodes     []string
	CounterStart   int
	CounterCeiling int
	CounterTick    time.Duration
	MonthlyPrice   float64
	MonthlyLabel   string
	LifetimePrice  float64
	LifetimeLabel  string
	OpsUsername    string
	OpsPassword    string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		MPBaseURL:      getEnv("MP_BASE_URL", "https://api.mercadopago.com"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":10000"),
		RequestTimeout: time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 30)),
		StartImageURL:  getEnv("START_IMAGE_URL", "https://files.catbox.moe/3jvcid.jpg"),
		PromoCodes:     splitList(getEnv("PROMO_CODES", "THG100,FLP100")),
		CounterStart:   getInt("COUNTER_START", 135920),
		CounterCeiling: getInt("COUNTER_CEILING", 137500),
		CounterTick:    time.Millisecond * time.Duration(getInt("COUNTER_TICK_MS", 1800)),
		MonthlyPrice:   getFloat("PLAN_MENSAL_PRICE", 15.00),
		MonthlyLabel:   getEnv("PLAN_MENSAL_LABEL", "💳 Mensal — R$15"),
		LifetimePrice:  getFloat("PLAN_VITALICIO_PRICE", 19.00),
		LifetimeLabel:  getEnv("PLAN_VITALICIO_LABEL", "🔥 Vitalício — R$19"),
		OpsUsername:    getEnv("OPS_USERNAME", "admin"),
		OpsPassword:    getEnv("OPS_PASSWORD", "change-me"),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MPAccessToken = os.Getenv("MP_ACCESS_TOKEN")
	cfg.GroupChatID = getInt64("GROUP_CHAT_ID", 0)
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.MPAccessToken == "" {
		missing = append(missing, "MP_ACCESS_TOKEN")
	}
	if cfg.GroupChatID == 0 {
		missing = append(missing, "GROUP_CHAT_ID")
	}
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// Catalog builds the immutable plan catalog offered by the storefront.
func (c Config) Catalog() models.Catalog {
	return models.Catalog{
		{Key: models.PlanMonthly, Label: c.MonthlyLabel, Amount: c.MonthlyPrice},
		{Key: models.PlanLifetime, Label: c.LifetimeLabel, Amount: c.LifetimePrice},
	}
}

// PromoSet returns the promo allow-set, normalized to upper case.
func (c Config) PromoSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.PromoCodes))
	for _, code := range c.PromoCodes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// No env file is fine; everything can come from the process environment.
	return nil
}
