package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend выбирает хранилище акронимов.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
)

// Config агрегирует значения конфигурации из переменных окружения.
type Config struct {
	Twitch   TwitchConfig
	Bot      BotConfig
	Lookup   LookupConfig
	Postgres PostgresConfig
	Batch    BatchConfig
}

// TwitchConfig содержит учётные данные и каналы для Twitch IRC клиента.
type TwitchConfig struct {
	Username   string
	OAuthToken string
	Channels   []string

	// ClientID, ClientSecret и RefreshToken нужны Helix API для личных
	// сообщений и обновления пользовательского токена.
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenFile    string
	HelixURL     string
}

// BotConfig — файлы и параметры поведения бота.
type BotConfig struct {
	Admins          []string
	SettingsFile    string
	AcronymsBackend Backend
	AcronymsFile    string
	PhrasesFile     string
	CheekyCooldown  time.Duration
}

// LookupConfig — внешние HTTP сервисы.
type LookupConfig struct {
	ISSURL     string
	GeocodeURL string
	Timeout    time.Duration
}

// PostgresConfig хранит параметры подключения к пулу базы данных.
// Пустой Host отключает архив и Postgres-хранилище акронимов.
type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
}

// Enabled сообщает, настроен ли Postgres.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// DSN собирает строку подключения для pgx/pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

// BatchConfig задаёт параметры батчинга и флашей при записи архива.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// LoadDotEnv подгружает переменные из файлов .env, если они есть. Уже
// заданные переменные окружения не перезаписываются.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load читает переменные окружения и возвращает валидированную Config.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Twitch: TwitchConfig{
			Username:   strings.ToLower(env("TWITCH_USERNAME", "")),
			OAuthToken: env("TWITCH_OAUTH_TOKEN", ""),
			Channels:   lowered(splitAndTrim(os.Getenv("TWITCH_CHANNELS"))),

			ClientID:     env("TWITCH_CLIENT_ID", ""),
			ClientSecret: env("TWITCH_CLIENT_SECRET", ""),
			RefreshToken: env("TWITCH_REFRESH_TOKEN", ""),
			TokenFile:    env("TWITCH_TOKEN_FILE", ".secrets/twitch_tokens.json"),
			HelixURL:     env("TWITCH_HELIX_URL", "https://api.twitch.tv/helix"),
		},
		Bot: BotConfig{
			Admins:          lowered(splitAndTrim(os.Getenv("ACROBOT_ADMINS"))),
			SettingsFile:    env("ACROBOT_SETTINGS_FILE", "config.json"),
			AcronymsBackend: Backend(strings.ToLower(env("ACROBOT_ACRONYMS_BACKEND", string(BackendFile)))),
			AcronymsFile:    env("ACROBOT_ACRONYMS_FILE", "acronyms.json"),
			PhrasesFile:     env("ACROBOT_PHRASES_FILE", "phrases.yaml"),
			CheekyCooldown:  duration("ACROBOT_CHEEKY_COOLDOWN", 5*time.Second, &errs),
		},
		Lookup: LookupConfig{
			ISSURL:     env("ISS_API_URL", "http://api.open-notify.org"),
			GeocodeURL: env("GEOCODE_API_URL", "https://nominatim.openstreetmap.org"),
			Timeout:    duration("ACROBOT_LOOKUP_TIMEOUT", 10*time.Second, &errs),
		},
		Postgres: postgresFromEnv(),
		Batch: BatchConfig{
			MaxBatch:      100,
			FlushEvery:    1500 * time.Millisecond,
			ChanBuffer:    4096,
			StatsLogEvery: 5 * time.Minute,
			FlushTimeout:  5 * time.Second,
		},
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Twitch.Username == "" {
		return fmt.Errorf("требуется TWITCH_USERNAME")
	}
	if c.Twitch.OAuthToken == "" {
		return fmt.Errorf("требуется TWITCH_OAUTH_TOKEN")
	}
	if len(c.Twitch.Channels) == 0 {
		return fmt.Errorf("требуется TWITCH_CHANNELS")
	}
	if c.Twitch.ClientID == "" {
		return fmt.Errorf("требуется TWITCH_CLIENT_ID")
	}
	if c.Twitch.RefreshToken != "" && c.Twitch.ClientSecret == "" {
		return fmt.Errorf("TWITCH_REFRESH_TOKEN требует TWITCH_CLIENT_SECRET")
	}

	switch c.Bot.AcronymsBackend {
	case BackendFile:
	case BackendPostgres:
		if !c.Postgres.Enabled() {
			return fmt.Errorf("ACROBOT_ACRONYMS_BACKEND=postgres требует POSTGRES_HOST")
		}
	default:
		return fmt.Errorf("неизвестный ACROBOT_ACRONYMS_BACKEND %q", c.Bot.AcronymsBackend)
	}
	if c.Bot.CheekyCooldown < 0 {
		return fmt.Errorf("ACROBOT_CHEEKY_COOLDOWN не может быть отрицательным")
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("ACROBOT_LOOKUP_TIMEOUT должен быть больше нуля")
	}

	if c.Postgres.Enabled() {
		if err := c.Postgres.validate(); err != nil {
			return err
		}
	}

	if c.Batch.MaxBatch <= 0 {
		return fmt.Errorf("Batch.MaxBatch должен быть больше нуля")
	}
	if c.Batch.FlushEvery <= 0 {
		return fmt.Errorf("Batch.FlushEvery должен быть больше нуля")
	}
	if c.Batch.ChanBuffer <= 0 {
		return fmt.Errorf("Batch.ChanBuffer должен быть больше нуля")
	}
	if c.Batch.StatsLogEvery <= 0 {
		return fmt.Errorf("Batch.StatsLogEvery должен быть больше нуля")
	}
	if c.Batch.FlushTimeout <= 0 {
		return fmt.Errorf("Batch.FlushTimeout должен быть больше нуля")
	}

	return nil
}

// LoadPostgres читает только параметры Postgres; нужен командам, которым
// не требуется подключение к Twitch.
func LoadPostgres() (PostgresConfig, error) {
	p := postgresFromEnv()
	if !p.Enabled() {
		return PostgresConfig{}, fmt.Errorf("требуется POSTGRES_HOST")
	}
	if err := p.validate(); err != nil {
		return PostgresConfig{}, err
	}
	return p, nil
}

func postgresFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     env("POSTGRES_HOST", ""),
		Port:     env("POSTGRES_PORT", ""),
		DB:       env("POSTGRES_DB", ""),
		User:     env("POSTGRES_USER", ""),
		Password: env("POSTGRES_PASSWORD", ""),
	}
}

func (p PostgresConfig) validate() error {
	if p.Port == "" {
		return fmt.Errorf("требуется POSTGRES_PORT")
	}
	if p.DB == "" {
		return fmt.Errorf("требуется POSTGRES_DB")
	}
	if p.User == "" {
		return fmt.Errorf("требуется POSTGRES_USER")
	}
	if p.Password == "" {
		return fmt.Errorf("требуется POSTGRES_PASSWORD")
	}
	return nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

// splitAndTrim режет список через запятую; каналы приходят без #.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "#"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lowered приводит ники к нижнему регистру: Twitch присылает логины так.
func lowered(list []string) []string {
	for i, v := range list {
		list[i] = strings.ToLower(v)
	}
	return list
}
