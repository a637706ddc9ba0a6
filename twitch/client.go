package twitch

import (
	"context"
	"strconv"
	"strings"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"go.uber.org/zap"

	"acrobot/model"
)

// Handler принимает Twitch-события, преобразованные в доменные модели.
type Handler interface {
	HandleChat(context.Context, model.ChatMessage)
	HandleNotice(context.Context, model.Notice)
}

const (
	whisperQueue   = 64
	whisperTimeout = 10 * time.Second
	// sayGrace — пауза после сброса очереди личных сообщений: go-twitch-irc
	// буферизует Say во внутреннем канале и не даёт дождаться отправки.
	sayGrace = 300 * time.Millisecond
)

type whisperJob struct {
	to   string
	text string
	// done закрывается воркером, когда до него дошла очередь; это маркер
	// Flush, а не сообщение.
	done chan struct{}
}

// Client оборачивает go-twitch-irc: доставляет входящие сообщения в
// Handler и отправляет ответы бота. Личные сообщения уходят через Helix в
// отдельной горутине в порядке отправки.
type Client struct {
	client   *twitchirc.Client
	handler  Handler
	whispers WhisperSender
	outbox   chan whisperJob
	username string
	sayGrace time.Duration
	logger   *zap.Logger
	baseCtx  context.Context
}

// NewClient инициализирует IRC-клиент, регистрирует колбэки и ставит
// каналы в очередь на вход. go-twitch-irc сам заходит в них после
// подключения и переподключения.
func NewClient(username, oauthToken string, channels []string, handler Handler, whispers WhisperSender, logger *zap.Logger) *Client {
	client := twitchirc.NewClient(username, oauthToken)

	c := &Client{
		client:   client,
		handler:  handler,
		whispers: whispers,
		outbox:   make(chan whisperJob, whisperQueue),
		username: strings.ToLower(username),
		sayGrace: sayGrace,
		logger:   logger,
	}

	client.OnPrivateMessage(func(m twitchirc.PrivateMessage) {
		c.handler.HandleChat(c.context(), toChatMessage(m))
	})

	client.OnWhisperMessage(func(m twitchirc.WhisperMessage) {
		c.handler.HandleChat(c.context(), toWhisper(m, c.username))
	})

	client.OnConnect(func() {
		logger.Info("twitch: подключено", zap.Strings("channels", channels))
	})

	client.OnReconnectMessage(func(message twitchirc.ReconnectMessage) {
		logger.Warn("twitch: сервер запросил RECONNECT", zap.String("raw", message.Raw))
	})

	client.OnNoticeMessage(func(msg twitchirc.NoticeMessage) {
		c.handler.HandleNotice(c.context(), toNotice(msg))
	})

	for _, ch := range channels {
		if name := channelName(ch); name != "" {
			client.Join(name)
		}
	}

	return c
}

// Run подключает клиента и блокируется до отмены контекста или ошибки.
func (c *Client) Run(ctx context.Context) error {
	c.baseCtx = ctx

	whisperCtx, stopWhispers := context.WithCancel(ctx)
	whispersDone := make(chan struct{})
	go func() {
		defer close(whispersDone)
		c.sendWhispers(whisperCtx)
	}()
	defer func() {
		stopWhispers()
		<-whispersDone
	}()

	errCh := make(chan error, 1)

	go func() {
		errCh <- c.client.Connect()
	}()

	select {
	case <-ctx.Done():
		_ = c.client.Disconnect()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// SendPrivate ставит личное сообщение в очередь Helix. При переполнении
// сообщение отбрасывается: вызывающий — цикл событий бота.
func (c *Client) SendPrivate(recipient, text string) {
	job := whisperJob{to: strings.ToLower(strings.TrimSpace(recipient)), text: text}
	select {
	case c.outbox <- job:
	default:
		c.logger.Warn("twitch: очередь личных сообщений заполнена", zap.String("to", job.to))
	}
}

// Flush ждёт отправки уже поставленных личных сообщений, затем даёт
// go-twitch-irc время записать сообщения в канал.
func (c *Client) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case c.outbox <- whisperJob{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	timer := time.NewTimer(c.sayGrace)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) sendWhispers(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-c.outbox:
			if job.done != nil {
				close(job.done)
				continue
			}
			if job.to == "" || job.to == c.username {
				continue
			}
			if c.whispers == nil {
				c.logger.Warn("twitch: личные сообщения не настроены", zap.String("to", job.to))
				continue
			}

			sendCtx, cancel := context.WithTimeout(ctx, whisperTimeout)
			err := c.whispers.Whisper(sendCtx, c.username, job.to, job.text)
			cancel()
			if err != nil {
				c.logger.Warn("twitch: личное сообщение не отправлено", zap.String("to", job.to), zap.Error(err))
			}
		}
	}
}

// SendBroadcast пишет в канал; адресат без # считается ником.
func (c *Client) SendBroadcast(audience, text string) {
	if !strings.HasPrefix(audience, "#") {
		c.SendPrivate(audience, text)
		return
	}
	c.client.Say(channelName(audience), text)
}

// Join заходит в канал.
func (c *Client) Join(channel string) {
	c.client.Join(channelName(channel))
}

// Part покидает канал.
func (c *Client) Part(channel string) {
	c.client.Depart(channelName(channel))
}

func toChatMessage(m twitchirc.PrivateMessage) model.ChatMessage {
	return model.ChatMessage{
		ID:          m.ID,
		Channel:     "#" + channelName(m.Channel),
		UserID:      m.User.ID,
		Username:    m.User.Name,
		DisplayName: m.User.DisplayName,
		Text:        m.Message,
		Badges:      copyBadges(m.User.Badges),
		IsMod:       m.User.Badges["moderator"] > 0 || m.User.Badges["broadcaster"] > 0,
		SentAt:      sentAt(m.Time),
	}
}

func toWhisper(m twitchirc.WhisperMessage, username string) model.ChatMessage {
	target := strings.ToLower(m.Target)
	if target == "" {
		target = username
	}
	return model.ChatMessage{
		ID:          m.MessageID,
		Channel:     target,
		UserID:      m.User.ID,
		Username:    m.User.Name,
		DisplayName: m.User.DisplayName,
		Text:        m.Message,
		Badges:      copyBadges(m.User.Badges),
		Whisper:     true,
		SentAt:      time.Now().UTC(),
	}
}

func toNotice(msg twitchirc.NoticeMessage) model.Notice {
	return model.Notice{
		Channel:  "#" + channelName(msg.Channel),
		ID:       msg.MsgID,
		Message:  msg.Message,
		Tags:     msg.Tags,
		NoticeAt: noticeTimestamp(msg.Tags),
	}
}

func copyBadges(in map[string]int) map[string]int {
	badges := make(map[string]int, len(in))
	for k, v := range in {
		badges[k] = v
	}
	return badges
}

func sentAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func noticeTimestamp(tags map[string]string) time.Time {
	if ts := tags["tmi-sent-ts"]; ts != "" {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}

	return time.Now().UTC()
}

// channelName убирает # и приводит имя канала к виду, который ждёт Twitch.
func channelName(ch string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}

func (c *Client) context() context.Context {
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}
