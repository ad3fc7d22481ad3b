// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `ignored:"true"` // заполняем вручную из ADMIN_IDS
	// Если задан — бот отвечает только в этих чатах (через запятую). Пусто = везде.
	AllowedChatIDsRaw string  `envconfig:"ALLOWED_CHAT_IDS"`
	AllowedChatIDs    []int64 `ignored:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"herd_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Jobs ---
	// Утренняя рассылка превью дня
	JobsPreviewCron string `envconfig:"JOBS_PREVIEW_CRON" default:"0 9 * * *"`
	// Вечерний автопрогон дня для стад с включённым автопилотом
	JobsAutoDayCron string `envconfig:"JOBS_AUTO_DAY_CRON" default:"0 20 * * *"`

	// --- Feature Flags ---
	FeatureFamilyDefault bool `envconfig:"FEATURE_FAMILY_DEFAULT" default:"false"`
	FeaturePreviewDigest bool `envconfig:"FEATURE_PREVIEW_DIGEST" default:"true"`
	FeatureAutoDay       bool `envconfig:"FEATURE_AUTO_DAY" default:"true"`

	// Настройки игрового дня. Встроены анонимно, чтобы переменные шли без префикса.
	DayConfig
}

// DayConfig — настройки игрового дня. Нужны и боту, и локальной утилите herdctl,
// поэтому грузятся отдельно от Telegram/БД.
type DayConfig struct {
	// Сколько персонажей максимум участвует в одной мини-игре
	MaxParticipants int `envconfig:"DAY_MAX_PARTICIPANTS" default:"3"`
	// Сколько аксессуаров персонаж может носить одновременно
	MaxAccessories int `envconfig:"DAY_MAX_ACCESSORIES" default:"3"`

	// Сложность = base + perDay*(day-1) + perStep*позиция, не выше cap
	DifficultyBase    float64 `envconfig:"DAY_DIFFICULTY_BASE" default:"1.0"`
	DifficultyPerDay  float64 `envconfig:"DAY_DIFFICULTY_PER_DAY" default:"0.05"`
	DifficultyPerStep float64 `envconfig:"DAY_DIFFICULTY_PER_STEP" default:"0.1"`
	DifficultyCap     float64 `envconfig:"DAY_DIFFICULTY_CAP" default:"3.0"`

	// За сколько дней до фестиваля его модификаторы уже действуют
	FestivalLookaheadDays int `envconfig:"DAY_FESTIVAL_LOOKAHEAD_DAYS" default:"1"`

	// 0 = ждать мини-игру бесконечно (исходное поведение)
	MiniGameTimeout time.Duration `envconfig:"DAY_MINIGAME_TIMEOUT" default:"0"`

	// 0 = сид от текущего времени
	PlanSeed int64 `envconfig:"DAY_PLAN_SEED" default:"0"`

	// Сколько прошедших дней хранить в истории сохранения
	HistoryLimit int `envconfig:"DAY_HISTORY_LIMIT" default:"30"`

	// Пауза автопилота между «ходами» мини-игры
	AutoplayStepDelay time.Duration `envconfig:"DAY_AUTOPLAY_STEP_DELAY" default:"2s"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, входит ли пользователь в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return c.DayConfig.Validate()
}

// Validate проверяет настройки игрового дня.
func (d *DayConfig) Validate() error {
	if d.MaxParticipants <= 0 {
		return fmt.Errorf("DAY_MAX_PARTICIPANTS должен быть > 0")
	}
	if d.MaxAccessories <= 0 {
		return fmt.Errorf("DAY_MAX_ACCESSORIES должен быть > 0")
	}
	if d.DifficultyPerDay < 0 || d.DifficultyPerStep < 0 {
		return fmt.Errorf("DAY_DIFFICULTY_PER_* не могут быть отрицательными")
	}
	if d.DifficultyCap < d.DifficultyBase {
		return fmt.Errorf("DAY_DIFFICULTY_CAP меньше DAY_DIFFICULTY_BASE")
	}
	if d.MiniGameTimeout < 0 {
		return fmt.Errorf("DAY_MINIGAME_TIMEOUT не может быть отрицательным")
	}
	if d.HistoryLimit < 0 {
		return fmt.Errorf("DAY_HISTORY_LIMIT не может быть отрицательным")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	chats, err := parseInt64CSV(cfg.AllowedChatIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_CHAT_IDS parse: %w", err)
	}
	cfg.AllowedChatIDs = chats

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDay читает только настройки игрового дня (для herdctl без Telegram и БД).
func LoadDay() (*DayConfig, error) {
	var dc DayConfig
	if err := envconfig.Process("", &dc); err != nil {
		return nil, fmt.Errorf("не удалось загрузить настройки дня: %w", err)
	}
	if err := dc.Validate(); err != nil {
		return nil, err
	}
	return &dc, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
