package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"acrobot/acronyms"
	"acrobot/bot"
	"acrobot/config"
	"acrobot/model"
	"acrobot/modes"
	"acrobot/state"
	"acrobot/storage"
	"acrobot/twitch"
)

var (
	// ErrQuit возвращается из Run после команды quit.
	ErrQuit = errors.New("quit requested")
	// ErrRestart возвращается из Run после команды restart.
	ErrRestart = errors.New("restart requested")
)

// Deps — зависимости, собранные в main.
type Deps struct {
	Config   config.Config
	Settings state.Settings
	Store    state.Store
	Acronyms acronyms.Store
	Phrases  bot.Phrases
	Lookup   bot.Lookup
	// Batcher и Notices необязательны: без Postgres архив выключен.
	Batcher *storage.Batcher
	Notices NoticeSaver
	// Watch необязателен: следит за файлом акронимов.
	Watch func(context.Context) error
	// Whispers отправляет личные ответы через Helix.
	Whispers twitch.WhisperSender
	// OAuthToken заменяет токен из конфига для IRC, если не пуст:
	// main передаёт сюда обновлённый токен.
	OAuthToken string
	Logger     *zap.Logger
}

// stopFlushTimeout ограничивает ожидание отправки прощальных сообщений.
const stopFlushTimeout = 3 * time.Second

// Service управляет жизненным циклом Twitch клиента, цикла событий бота
// и фоновых задач.
type Service struct {
	client runner
	bot    *bot.Bot
	watch  func(context.Context) error
	stopCh chan error
	logger *zap.Logger
}

type runner interface {
	Run(ctx context.Context) error
	Flush(ctx context.Context) error
}

// New собирает Service: Twitch клиент, бота и мост между ними.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	s := &Service{
		watch:  d.Watch,
		stopCh: make(chan error, 1),
		logger: d.Logger,
	}

	handler := NewHandler(d.Batcher, d.Notices, d.Config.Batch.FlushTimeout, d.Logger)
	token := d.OAuthToken
	if token == "" {
		token = d.Config.Twitch.OAuthToken
	}
	client := twitch.NewClient(d.Config.Twitch.Username, token, d.Settings.Channels, handler, d.Whispers, d.Logger)

	b := bot.New(bot.Options{
		Nick:          d.Config.Twitch.Username,
		Settings:      d.Settings,
		Store:         d.Store,
		Acronyms:      d.Acronyms,
		Lookup:        d.Lookup,
		Phrases:       d.Phrases,
		Transport:     client,
		Delays:        modes.Delays{modes.Cheeky: d.Config.Bot.CheekyCooldown},
		LookupTimeout: d.Config.Lookup.Timeout,
		Logger:        d.Logger,
		Stop:          s.Stop,
	})
	handler.bot = b

	s.client = client
	s.bot = b
	return s
}

// Stop просит Run завершиться с ErrQuit или ErrRestart. Повторные вызовы
// игнорируются.
func (s *Service) Stop(restart bool) {
	err := ErrQuit
	if restart {
		err = ErrRestart
	}
	select {
	case s.stopCh <- err:
	default:
	}
}

// Run подключает Twitch клиента и крутит цикл событий бота до отмены
// контекста, ошибки или команды quit/restart.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.client.Run(gctx) })
	g.Go(func() error { return s.bot.Run(gctx) })
	if s.watch != nil {
		g.Go(func() error { return s.watch(gctx) })
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case err := <-s.stopCh:
			// прощальные сообщения уже в очереди транспорта
			flushCtx, cancel := context.WithTimeout(gctx, stopFlushTimeout)
			defer cancel()
			if ferr := s.client.Flush(flushCtx); ferr != nil {
				s.logger.Warn("не все сообщения отправлены перед остановкой", zap.Error(ferr))
			}
			return err
		}
	})

	err := g.Wait()
	s.logger.Info("сервис остановлен", zap.Error(err))
	return err
}

// NoticeSaver сохраняет notice-события.
type NoticeSaver interface {
	SaveNotice(ctx context.Context, notice model.Notice, timeout time.Duration) error
}

// Handler реализует twitch.Handler: архивирует сообщения и передаёт их
// боту.
type Handler struct {
	bot          *bot.Bot
	batcher      *storage.Batcher
	notices      NoticeSaver
	flushTimeout time.Duration
	logger       *zap.Logger
}

var _ twitch.Handler = (*Handler)(nil)

// NewHandler собирает Handler, используемый Twitch колбэками. Бот
// подключается после создания транспорта.
func NewHandler(batcher *storage.Batcher, notices NoticeSaver, flushTimeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{batcher: batcher, notices: notices, flushTimeout: flushTimeout, logger: logger}
}

// HandleChat помещает сообщение в архив и в очередь бота.
func (h *Handler) HandleChat(ctx context.Context, msg model.ChatMessage) {
	addr := bot.Address(h.bot.Nick(), msg.Channel, msg.Text)
	msg.Kind = string(addr.Kind)

	if h.batcher != nil {
		if ok := h.batcher.Enqueue(msg); !ok {
			h.logger.Warn("архив: сообщение отброшено", zap.String("channel", msg.Channel))
		}
	}

	h.bot.Submit(ctx, bot.Message{
		ID:       msg.ID,
		Sender:   msg.Username,
		Audience: msg.Channel,
		Text:     msg.Text,
	})
}

// HandleNotice сохраняет notice-событие напрямую через пул БД.
func (h *Handler) HandleNotice(ctx context.Context, notice model.Notice) {
	h.logger.Info("twitch: notice", zap.String("channel", notice.Channel), zap.String("msg_id", notice.ID), zap.String("message", notice.Message))
	if h.notices == nil {
		return
	}
	if err := h.notices.SaveNotice(ctx, notice, h.flushTimeout); err != nil {
		h.logger.Error("ошибка сохранения NOTICE", zap.String("channel", notice.Channel), zap.Error(err))
	}
}
