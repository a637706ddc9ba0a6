// Package bot классифицирует входящие сообщения чата и отвечает на них:
// вопросы на естественном языке и команды администрирования.
//
// Всё изменяемое состояние (режимы, пользователи, каналы) принадлежит
// циклу событий Run. Внешние запросы выполняются в отдельных горутинах, а
// их продолжения возвращаются в цикл через очередь событий.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"acrobot/acronyms"
	"acrobot/lookup"
	"acrobot/model"
	"acrobot/modes"
	"acrobot/state"
)

// Transport отправляет ответы и управляет участием в каналах.
type Transport interface {
	SendPrivate(recipient, text string)
	SendBroadcast(audience, text string)
	Join(channel string)
	Part(channel string)
}

// Lookup — внешние сервисы геокодирования и данных о МКС.
type Lookup interface {
	Geocode(ctx context.Context, query string) (lookup.Location, error)
	Passes(ctx context.Context, lat, lon float64) ([]time.Time, error)
	Position(ctx context.Context) (lookup.Position, error)
}

// Phrases выдаёт случайную заготовленную фразу по ключу.
type Phrases interface {
	Get(key string) string
}

// Message — входящее сообщение. Audience — канал или ник бота для личных
// сообщений.
type Message struct {
	ID       string
	Sender   string
	Audience string
	Text     string
}

// Options собирает зависимости Bot.
type Options struct {
	Nick          string
	Settings      state.Settings
	Store         state.Store
	Acronyms      acronyms.Store
	Lookup        Lookup
	Phrases       Phrases
	Transport     Transport
	Delays        modes.Delays
	Clock         modes.Clock
	LookupTimeout time.Duration
	QueueSize     int
	Logger        *zap.Logger
	// Stop вызывается командами quit и restart.
	Stop func(restart bool)
}

// Bot — состояние сессии и обработчики сообщений.
type Bot struct {
	nick      string
	gate      *modes.Gate
	users     map[string]model.User
	channels  []string
	store     state.Store
	acronyms  acronyms.Store
	lookup    Lookup
	phrases   Phrases
	transport Transport
	now       modes.Clock
	timeout   time.Duration
	logger    *zap.Logger
	stop      func(restart bool)

	events chan func()
	// tasks считает запросы, запущенные через spawn.
	tasks sync.WaitGroup
}

// New собирает Bot из настроек и зависимостей.
func New(opts Options) *Bot {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 10 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Stop == nil {
		opts.Stop = func(bool) {}
	}

	b := &Bot{
		nick:      opts.Nick,
		users:     make(map[string]model.User, len(opts.Settings.Users)),
		channels:  append([]string(nil), opts.Settings.Channels...),
		store:     opts.Store,
		acronyms:  opts.Acronyms,
		lookup:    opts.Lookup,
		phrases:   opts.Phrases,
		transport: opts.Transport,
		now:       opts.Clock,
		timeout:   opts.LookupTimeout,
		logger:    opts.Logger,
		stop:      opts.Stop,
		events:    make(chan func(), opts.QueueSize),
	}
	for nick, u := range opts.Settings.Users {
		b.users[nick] = u
	}

	initial := make(map[modes.Mode]bool, len(opts.Settings.Modes))
	for name, v := range opts.Settings.Modes {
		initial[modes.Mode(name)] = v
	}
	b.gate = modes.NewGate(initial, opts.Delays, opts.Clock, b.save)

	return b
}

// Nick возвращает ник бота.
func (b *Bot) Nick() string {
	return b.nick
}

// Channels возвращает копию текущего списка каналов.
func (b *Bot) Channels() []string {
	return append([]string(nil), b.channels...)
}

// Run обрабатывает события до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-b.events:
			fn()
		}
	}
}

// Submit ставит сообщение в очередь цикла событий. При переполнении
// очереди сообщение отбрасывается и возвращается false.
func (b *Bot) Submit(ctx context.Context, msg Message) bool {
	select {
	case b.events <- func() { b.HandleMessage(ctx, msg) }:
		return true
	default:
		b.logger.Warn("бот: очередь заполнена, сообщение отброшено",
			zap.String("sender", msg.Sender), zap.String("audience", msg.Audience))
		return false
	}
}

// post возвращает продолжение в цикл событий.
func (b *Bot) post(ctx context.Context, fn func()) {
	select {
	case b.events <- fn:
	case <-ctx.Done():
	}
}

// spawn выполняет task вне цикла событий с таймаутом на внешний запрос и
// отправляет возвращённое продолжение обратно в цикл.
func (b *Bot) spawn(r *request, task func(ctx context.Context) func()) {
	b.tasks.Add(1)
	go func() {
		defer b.tasks.Done()
		ctx, cancel := context.WithTimeout(r.ctx, b.timeout)
		defer cancel()
		if next := task(ctx); next != nil {
			b.post(r.ctx, next)
		}
	}()
}

// request — контекст обработки одного сообщения.
type request struct {
	ctx      context.Context
	sender   string
	audience string
	// channel — канал, в котором пришло сообщение; пусто для личных.
	channel string
	log     *zap.Logger
}

func (b *Bot) newRequest(ctx context.Context, msg Message, direct bool) *request {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	r := &request{
		ctx:      ctx,
		sender:   msg.Sender,
		audience: msg.Audience,
		channel:  msg.Audience,
		log: b.logger.With(
			zap.String("msg_id", id),
			zap.String("sender", msg.Sender),
			zap.String("audience", msg.Audience),
		),
	}
	if direct {
		r.audience = msg.Sender
		r.channel = ""
	}
	return r
}

// reply отправляет текст в канал или лично, в зависимости от адресата.
func (b *Bot) reply(audience, text string) {
	if isChannel(audience) {
		b.transport.SendBroadcast(audience, text)
		return
	}
	b.transport.SendPrivate(audience, text)
}

func (b *Bot) private(r *request, text string) {
	b.transport.SendPrivate(r.sender, text)
}

// gatedReply отправляет фразу key, если режим mode может сработать сейчас.
func (b *Bot) gatedReply(mode modes.Mode, key, audience string) {
	if !b.gate.Try(mode) {
		return
	}
	if text := b.phrases.Get(key); text != "" {
		b.reply(audience, text)
	}
}

// Settings возвращает текущее состояние для сохранения.
func (b *Bot) Settings() state.Settings {
	users := make(map[string]model.User, len(b.users))
	for nick, u := range b.users {
		users[nick] = u
	}
	return state.Settings{
		Version:  state.SettingsVersion,
		Nick:     b.nick,
		Modes:    b.gate.Snapshot(),
		Users:    users,
		Channels: b.Channels(),
	}
}

// save сохраняет настройки. Ошибка только логируется: состояние в памяти
// остаётся главным.
func (b *Bot) save() {
	if b.store == nil {
		return
	}
	if err := b.store.Save(b.Settings()); err != nil {
		b.logger.Error("бот: не удалось сохранить настройки", zap.Error(err))
	}
}

func isChannel(audience string) bool {
	return strings.HasPrefix(audience, "#")
}
