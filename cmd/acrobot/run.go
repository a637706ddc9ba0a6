package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"acrobot/acronyms"
	"acrobot/auth"
	"acrobot/config"
	"acrobot/lookup"
	"acrobot/phrases"
	"acrobot/service"
	"acrobot/state"
	"acrobot/storage"
	"acrobot/tokens"
	"acrobot/twitch"
)

const (
	watchDebounce = 500 * time.Millisecond
	helixTimeout  = 10 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Twitch and answer chat",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

// runBot запускает бота и повторяет запуск после команды restart.
func runBot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	for {
		err := runOnce(ctx)
		switch {
		case errors.Is(err, service.ErrRestart):
			logger.Info("перезапуск по команде")
		case err == nil, errors.Is(err, service.ErrQuit), errors.Is(err, context.Canceled):
			logger.Info("завершение работы")
			return nil
		default:
			logger.Error("сервис завершился с ошибкой", zap.Error(err))
			return err
		}
	}
}

func runOnce(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		pool, err = pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("pgxpool.New: %w", err)
		}
		defer pool.Close()

		if err := storage.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	helixHTTP := &http.Client{Timeout: helixTimeout}
	manager := newTokenManager(cfg.Twitch, helixHTTP)
	token, err := manager.Get(ctx)
	if err != nil {
		return fmt.Errorf("twitch token: %w", err)
	}

	deps := service.Deps{
		Config:     cfg,
		Store:      state.FileStore{Path: cfg.Bot.SettingsFile},
		Lookup:     lookup.NewClient(&http.Client{Timeout: cfg.Lookup.Timeout}, cfg.Lookup.ISSURL, cfg.Lookup.GeocodeURL),
		Whispers:   twitch.NewWhisperer(helixHTTP, cfg.Twitch.HelixURL, cfg.Twitch.ClientID, manager),
		OAuthToken: "oauth:" + token.Access,
		Logger:     logger,
	}

	switch cfg.Bot.AcronymsBackend {
	case config.BackendPostgres:
		deps.Acronyms = storage.NewAcronymStore(pool)
	default:
		store, err := acronyms.NewJSONStore(cfg.Bot.AcronymsFile)
		if err != nil {
			return err
		}
		deps.Acronyms = store
		deps.Watch = func(ctx context.Context) error {
			return acronyms.Watch(ctx, store, watchDebounce, logger)
		}
	}

	bank, err := phrases.Load(cfg.Bot.PhrasesFile)
	if err != nil {
		return err
	}
	deps.Phrases = bank

	defaults := state.Defaults(cfg.Twitch.Username, cfg.Twitch.Channels, cfg.Bot.Admins)
	deps.Settings, err = state.Restore(ctx, deps.Store, defaults, logger)
	if err != nil {
		return fmt.Errorf("restore settings: %w", err)
	}

	if pool != nil {
		// архив дописывает остаток после остановки сервиса, до закрытия пула
		batchCtx, stopBatch := context.WithCancel(context.WithoutCancel(ctx))
		batcher := storage.NewBatcher(batchCtx, pool, storage.BatchConfig{
			MaxBatch:      cfg.Batch.MaxBatch,
			FlushEvery:    cfg.Batch.FlushEvery,
			ChanBuffer:    cfg.Batch.ChanBuffer,
			StatsLogEvery: cfg.Batch.StatsLogEvery,
			FlushTimeout:  cfg.Batch.FlushTimeout,
		}, logger)
		defer func() {
			stopBatch()
			<-batcher.Done()
		}()

		deps.Batcher = batcher
		deps.Notices = storage.NewNoticeStore(pool)
	}

	logger.Info("запуск",
		zap.String("nick", cfg.Twitch.Username),
		zap.Strings("channels", deps.Settings.Channels),
		zap.String("acronyms", string(cfg.Bot.AcronymsBackend)),
		zap.Bool("archive", pool != nil),
	)

	return service.New(deps).Run(ctx)
}

// newTokenManager собирает менеджер пользовательского токена. Без секрета
// приложения или refresh_token токен из окружения используется как есть.
func newTokenManager(cfg config.TwitchConfig, httpClient *http.Client) *tokens.UserTokenManager {
	seed := tokens.Token{
		Access:  strings.TrimPrefix(cfg.OAuthToken, "oauth:"),
		Refresh: cfg.RefreshToken,
	}

	var refresh tokens.UserTokenRefresher
	if cfg.ClientSecret != "" && cfg.RefreshToken != "" {
		refresh = auth.NewRefresher(httpClient, cfg.ClientID, cfg.ClientSecret).Refresh
	}

	return tokens.NewUserTokenManager(tokens.FileTokenStore{Path: cfg.TokenFile}, seed, refresh)
}
