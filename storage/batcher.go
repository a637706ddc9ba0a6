package storage

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"acrobot/model"
)

// BatchConfig задаёт параметры батчинга для архива сообщений.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// Batcher асинхронно архивирует входящие сообщения через pgx.Batch.
type Batcher struct {
	input   chan model.ChatMessage
	config  BatchConfig
	sender  batchSender
	logger  *zap.Logger
	dropped atomic.Uint64
	done    chan struct{}
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// NewBatcher создаёт батчер и запускает фоновые флаши.
func NewBatcher(ctx context.Context, pool *pgxpool.Pool, cfg BatchConfig, logger *zap.Logger) *Batcher {
	return newBatcher(ctx, pool, cfg, logger)
}

// Enqueue пытается добавить сообщение в очередь; при переполнении возвращает false.
func (b *Batcher) Enqueue(msg model.ChatMessage) bool {
	select {
	case b.input <- msg:
		return true
	default:
		dropped := b.dropped.Add(1)
		if dropped%100 == 0 {
			b.logger.Warn("архив: очередь заполнена", zap.Uint64("dropped_total", dropped))
		}
		return false
	}
}

// Dropped возвращает число сообщений, отброшенных из-за переполнения.
func (b *Batcher) Dropped() uint64 {
	return b.dropped.Load()
}

// Done закрывается, когда фоновая горутина сбросила остаток и вышла.
func (b *Batcher) Done() <-chan struct{} {
	return b.done
}

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)

	flushTicker := time.NewTicker(b.config.FlushEvery)
	statsTicker := time.NewTicker(b.config.StatsLogEvery)
	defer flushTicker.Stop()
	defer statsTicker.Stop()

	var (
		batch            = &pgx.Batch{}
		pending          = 0
		totalInserted    uint64
		intervalInserted uint64
	)

	const q = `
insert into acrobot_messages (
  message_id, channel, user_id, username, display_name, text, badges,
  is_mod, is_whisper, kind, sent_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
on conflict (message_id) do nothing;`

	flush := func() {
		if pending == 0 {
			return
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), b.config.FlushTimeout)
		defer cancel()

		br := b.sender.SendBatch(dbCtx, batch)
		if err := br.Close(); err != nil {
			b.logger.Error("архив: ошибка флаша", zap.Int("rows", pending), zap.Error(err))
		}

		totalInserted += uint64(pending)
		intervalInserted += uint64(pending)

		batch = &pgx.Batch{}
		pending = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			b.logger.Info("архив: контекст отменён", zap.Uint64("inserted_total", totalInserted))
			return
		case <-flushTicker.C:
			flush()
		case <-statsTicker.C:
			b.logger.Info("архив: статистика",
				zap.Uint64("inserted", intervalInserted),
				zap.Duration("interval", b.config.StatsLogEvery),
				zap.Uint64("inserted_total", totalInserted),
			)
			intervalInserted = 0
		case msg := <-b.input:
			badgesJSON, _ := json.Marshal(msg.Badges)
			batch.Queue(q,
				nullable(msg.ID), msg.Channel, nullable(msg.UserID), msg.Username, nullable(msg.DisplayName), msg.Text, badgesJSON,
				msg.IsMod, msg.Whisper, msg.Kind, msg.SentAt.UTC(),
			)
			pending++
			if pending >= b.config.MaxBatch {
				flush()
			}
		}
	}
}

// nullable превращает пустую строку в NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newBatcher(ctx context.Context, sender batchSender, cfg BatchConfig, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Batcher{
		input:  make(chan model.ChatMessage, cfg.ChanBuffer),
		config: cfg,
		sender: sender,
		logger: logger,
		done:   make(chan struct{}),
	}

	go b.run(ctx)

	return b
}
