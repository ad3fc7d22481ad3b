// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, каталоги, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/bot"
	"serotonyl.ru/herd-bot/internal/bot/filters"
	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/db/postgres"
	"serotonyl.ru/herd-bot/internal/features/admin"
	"serotonyl.ru/herd-bot/internal/features/day"
	"serotonyl.ru/herd-bot/internal/features/events"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
	"serotonyl.ru/herd-bot/internal/features/rewards"
	"serotonyl.ru/herd-bot/internal/jobs"
	"serotonyl.ru/herd-bot/internal/minigame/autoplay"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	var opts []telego.BotOption
	if cfg.AppEnv == "development" {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, opts...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 3. Каталоги ===
	catalog, err := events.Default()
	if err != nil {
		pool.Close()
		return nil, err
	}
	themes, err := rewards.Default()
	if err != nil {
		pool.Close()
		return nil, err
	}

	seeds := common.DeriveSeeds(cfg.PlanSeed)
	registry := minigame.NewRegistry()
	autoplay.Register(registry, seeds.Autoplay, cfg.AutoplayStepDelay)

	// === 4. Сервисы ===
	saveRepo := herd.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	builder := plan.NewBuilder(catalog, registry.Kinds(), cfg.FestivalLookaheadDays, common.NewRNG(seeds.Plan))
	runner := minigame.NewRunner(registry, cfg.DayConfig, common.NewRNG(seeds.Runner))
	dayService := day.NewService(saveRepo, builder, runner, rewards.NewResolver(themes), cfg.DayConfig, cfg.FeatureFamilyDefault)
	adminService := admin.NewService(adminRepo, cfg.AdminPasswordHash, cfg.IsAdmin)

	// === 5. Обработчики ===
	sender := bot.NewSender(botAPI)
	dayHandler := day.NewHandler(dayService, sender)
	adminHandler := admin.NewHandler(adminService, dayService, sender)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.AllowedChatIDs, cfg.IsAdmin)

	// === 7. Собираем бота ===
	b := bot.New(botAPI, cfg, dayHandler, adminHandler, sender, chatFilter)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(dayHandler, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

var migrations = []postgres.Migration{
	{Version: 1, SQL: migration001Saves},
	{Version: 2, SQL: migration002DayLog},
	{Version: 3, SQL: migration003Admin},
}

// === SQL миграции ===

const migration001Saves = `
CREATE TABLE IF NOT EXISTS herd_saves (
    id VARCHAR(64) PRIMARY KEY,
    chat_id BIGINT NOT NULL DEFAULT 0,
    day INTEGER NOT NULL DEFAULT 1,
    state JSONB NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_herd_saves_chat ON herd_saves(chat_id);
`

const migration002DayLog = `
CREATE TABLE IF NOT EXISTS herd_day_log (
    id SERIAL PRIMARY KEY,
    save_id VARCHAR(64) NOT NULL REFERENCES herd_saves(id) ON DELETE CASCADE,
    day INTEGER NOT NULL,
    perfect BOOLEAN NOT NULL DEFAULT FALSE,
    reward VARCHAR(128) NOT NULL DEFAULT '',
    mvp VARCHAR(64) NOT NULL DEFAULT '',
    played_at TIMESTAMP NOT NULL,
    UNIQUE (save_id, day)
);
`

const migration003Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id SERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE NOT NULL,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(user_id, is_active);

CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id SERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    success BOOLEAN NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_attempts_user_time ON admin_login_attempts(user_id, attempt_time);
`
