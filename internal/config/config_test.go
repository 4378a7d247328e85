package config

import (
	"os"
	"strings"
	"testing"
)

// clearEnv убирает переменные окружения машины, на которой идут тесты.
func clearEnv(t *testing.T) {
	for _, k := range []string{"TZ", "REDIS_ADDR", "STATE_TTL", "HTTP_ADDR", "SUPERADMIN_IDS", "MAX_CHAIN", "WEBHOOK_URL", "WEBHOOK_SECRET"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func setRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://bot@localhost/duty?sslmode=disable")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TZ != "Europe/Kyiv" || cfg.Location == nil {
		t.Fatalf("зона по умолчанию: %q %v", cfg.TZ, cfg.Location)
	}
	if cfg.StateTTL != 0 || cfg.MaxChain != 16 || cfg.HTTPAddr != ":8080" {
		t.Fatalf("неожиданные значения по умолчанию: %+v", cfg)
	}
	if cfg.RedisAddr != "" || len(cfg.SuperadminIDs) != 0 {
		t.Fatalf("лишние значения: %+v", cfg)
	}
}

func TestLoadSuperadminIDs(t *testing.T) {
	setRequired(t)
	t.Setenv("SUPERADMIN_IDS", "111, 222 333")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []int64{111, 222, 333}
	if len(cfg.SuperadminIDs) != len(want) {
		t.Fatalf("ожидали %v, получили %v", want, cfg.SuperadminIDs)
	}
	for i := range want {
		if cfg.SuperadminIDs[i] != want[i] {
			t.Fatalf("ожидали %v, получили %v", want, cfg.SuperadminIDs)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing_token", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOT_TOKEN", "")
		t.Setenv("DATABASE_URL", "postgres://x")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку без BOT_TOKEN")
		}
	})
	t.Run("bad_ids", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SUPERADMIN_IDS", "12,abc")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку для нечислового id")
		}
	})
	t.Run("bad_tz", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TZ", "Europe/Atlantis")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку для неизвестной зоны")
		}
	})
	t.Run("negative_ttl", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STATE_TTL", "-1h")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку для отрицательного STATE_TTL")
		}
	})
	t.Run("bad_chain", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MAX_CHAIN", "0")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку для MAX_CHAIN=0")
		}
	})
}

func TestLoadWebhookSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"missing", "", true},
		{"bad_chars", "a b/c", true},
		{"too_long", strings.Repeat("a", 257), true},
		{"ok", "Duty_bot-42", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("WEBHOOK_URL", "https://bot.example.org")
			t.Setenv("WEBHOOK_SECRET", tt.secret)
			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if err == nil && cfg.WebhookSecret != tt.secret {
				t.Fatalf("секрет потерян: %q", cfg.WebhookSecret)
			}
		})
	}
}
