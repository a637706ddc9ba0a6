package storage

import (
	"context"
	"encoding/json"
	"time"

	"acrobot/model"
)

// SaveNotice сохраняет notice-событие в базе с учётом заданного таймаута.
func SaveNotice(ctx context.Context, db execer, notice model.Notice, timeout time.Duration) error {
	dbCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tagsJSON, _ := json.Marshal(notice.Tags)

	_, err := db.Exec(dbCtx, `
insert into channel_notices (
  channel, msg_id, message, tags, notice_at
) values ($1, $2, $3, $4, $5);
`, notice.Channel, nullable(notice.ID), notice.Message, tagsJSON, notice.NoticeAt)

	return err
}

// NoticeStore привязывает SaveNotice к пулу соединений.
type NoticeStore struct {
	db execer
}

// NewNoticeStore создаёт NoticeStore поверх пула или соединения.
func NewNoticeStore(db execer) *NoticeStore {
	return &NoticeStore{db: db}
}

// SaveNotice сохраняет notice-событие.
func (s *NoticeStore) SaveNotice(ctx context.Context, notice model.Notice, timeout time.Duration) error {
	return SaveNotice(ctx, s.db, notice, timeout)
}
