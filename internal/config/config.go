package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// RedisAddr: если задан, состояния диалогов хранятся в Redis, иначе в Postgres.
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	// StateTTL: 0 хранит состояния бессрочно; незавершённый диалог ждёт сколько угодно.
	StateTTL  time.Duration `envconfig:"STATE_TTL" default:"0"`

	TZ       string         `envconfig:"TZ" default:"Europe/Kyiv"`
	Location *time.Location `ignored:"true"`

	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	Env       string `envconfig:"ENV" default:"dev"` // dev|prod
	SentryDSN string `envconfig:"SENTRY_DSN"`
	Release   string `envconfig:"RELEASE"`

	SuperadminIDs IDList `envconfig:"SUPERADMIN_IDS"`
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	MaxChain      int    `envconfig:"MAX_CHAIN" default:"16"`
	BotDebug      bool   `envconfig:"BOT_DEBUG"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	// envconfig пропускает заданные, но пустые переменные
	if cfg.BotToken == "" || cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: BOT_TOKEN and DATABASE_URL are required")
	}
	if cfg.TZ == "" {
		cfg.TZ = "Europe/Kyiv"
	}
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return nil, fmt.Errorf("config: bad TZ %q: %w", cfg.TZ, err)
	}
	cfg.Location = loc
	if cfg.StateTTL < 0 {
		return nil, fmt.Errorf("config: STATE_TTL must not be negative, got %s", cfg.StateTTL)
	}
	if cfg.WebhookURL != "" && !validSecret(cfg.WebhookSecret) {
		return nil, fmt.Errorf("config: WEBHOOK_URL needs WEBHOOK_SECRET of 1-256 chars A-Z a-z 0-9 _ -")
	}
	if cfg.MaxChain <= 0 {
		return nil, fmt.Errorf("config: MAX_CHAIN must be positive, got %d", cfg.MaxChain)
	}
	return &cfg, nil
}

// validSecret: ограничения Telegram на secret_token.
func validSecret(s string) bool {
	if len(s) == 0 || len(s) > 256 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// IDList: telegram id через запятую или пробел.
type IDList []int64

func (l *IDList) Decode(value string) error {
	ids, err := parseIDs(value)
	if err != nil {
		return err
	}
	*l = ids
	return nil
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
