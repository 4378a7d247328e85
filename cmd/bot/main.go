package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/app"
	"github.com/Spok95/group-duty-bot/internal/bot/flow"
	"github.com/Spok95/group-duty-bot/internal/config"
	"github.com/Spok95/group-duty-bot/internal/db"
	"github.com/Spok95/group-duty-bot/internal/jobs"
	"github.com/Spok95/group-duty-bot/internal/logging"
	"github.com/Spok95/group-duty-bot/internal/observability"
	"github.com/Spok95/group-duty-bot/internal/statestore"
	"github.com/Spok95/group-duty-bot/internal/tg"
)

const (
	superadminSyncEvery = 5 * time.Minute
	stateGCEvery        = time.Hour
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env, cfg.Release)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	store := db.NewStore(database)

	runner := jobs.New(ctx, lg.Component("jobs"))
	runner.Every(superadminSyncEvery, "superadmin-sync", jobs.SuperadminSync(store, cfg.SuperadminIDs, lg.Component("jobs")))

	var states flow.StateStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping failed", zap.Error(err))
		}
		states = statestore.NewRedis(client, cfg.StateTTL)
		logger.Info("conversation states in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		pg := statestore.NewPostgres(database)
		if cfg.StateTTL > 0 {
			runner.Every(stateGCEvery, "state-gc", jobs.StateGC(pg, cfg.StateTTL, lg.Component("jobs")))
		}
		states = pg
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	bot.Debug = cfg.BotDebug
	logger.Info("bot started", zap.String("username", bot.Self.UserName))

	channel := tg.NewChannel(bot)
	ctrl := flow.NewController(store, states, channel, lg.Component("controller"), flow.Options{
		Location: cfg.Location,
		MaxChain: cfg.MaxChain,
	})
	router := app.NewRouter(ctx, lg.Component("router"))
	dispatcher := app.NewDispatcher(ctrl, channel, store, router, lg.Component("dispatcher"))

	if cfg.WebhookURL != "" {
		if err := tg.SetWebhook(bot, cfg.WebhookURL+app.WebhookPath, cfg.WebhookSecret); err != nil {
			logger.Fatal("set webhook failed", zap.Error(err))
		}
		app.StartHTTP(ctx, cfg.HTTPAddr, app.Routes(database, dispatcher.HandleUpdate, cfg.WebhookSecret), logger)
		logger.Info("webhook mode", zap.String("url", cfg.WebhookURL))
		<-ctx.Done()
		router.Wait()
	} else {
		if _, err := tg.Request(bot, tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("delete webhook failed", zap.Error(err))
		}
		app.StartHTTP(ctx, cfg.HTTPAddr, app.Routes(database, nil, ""), logger)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		u.AllowedUpdates = tg.AllowedUpdates
		updates := bot.GetUpdatesChan(u)
		go func() {
			<-ctx.Done()
			bot.StopReceivingUpdates()
		}()
		logger.Info("polling mode")
		dispatcher.Run(ctx, updates)
	}

	runner.Wait()
	logger.Info("bot stopped")
}

var (
	_ flow.Store      = (*db.Store)(nil)
	_ flow.StateStore = (*statestore.Postgres)(nil)
	_ flow.StateStore = (*statestore.Redis)(nil)
	_ flow.StateStore = (*statestore.Memory)(nil)
	_ app.Groups      = (*db.Store)(nil)
)
