package app

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/metrics"
)

const (
	WebhookPath  = "/bot/webhook"
	// SecretHeader: Telegram повторяет в нём secret_token из setWebhook.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

type HTTPServer struct {
	srv *http.Server
}

// Routes: /healthz, /metrics и, если задан webhook, приём апдейтов.
// Апдейт без верного секрета отклоняется с 401; пустой секрет закрывает маршрут целиком.
func Routes(db *sql.DB, webhook func(context.Context, tgbotapi.Update), secret string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())

	if webhook != nil {
		r.Post(WebhookPath, func(w http.ResponseWriter, r *http.Request) {
			if !validSecret(r.Header.Get(SecretHeader), secret) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var u tgbotapi.Update
			if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			webhook(r.Context(), u)
			w.WriteHeader(http.StatusOK)
		})
	}
	return r
}

func validSecret(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func StartHTTP(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}
