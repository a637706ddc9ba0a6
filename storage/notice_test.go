package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"acrobot/model"
)

type recordingExecer struct {
	sql  []string
	args [][]any
	err  error
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = append(r.sql, sql)
	r.args = append(r.args, args)
	return pgconn.CommandTag{}, r.err
}

func TestSaveNotice(t *testing.T) {
	db := &recordingExecer{}
	at := time.Unix(1_700_000_000, 0).UTC()

	err := SaveNotice(context.Background(), db, model.Notice{
		Channel:  "#space",
		Message:  "This room is now in slow mode.",
		Tags:     map[string]string{"msg-id": "slow_on"},
		NoticeAt: at,
	}, time.Second)
	if err != nil {
		t.Fatalf("SaveNotice returned error: %v", err)
	}

	if len(db.sql) != 1 || !strings.Contains(db.sql[0], "channel_notices") {
		t.Fatalf("unexpected statements: %v", db.sql)
	}
	args := db.args[0]
	if args[0] != "#space" || args[1].(*string) != nil || args[4] != at {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestMigrateWrapsError(t *testing.T) {
	db := &recordingExecer{err: errors.New("permission denied")}

	err := Migrate(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "migrate") {
		t.Fatalf("expected wrapped migrate error, got %v", err)
	}
	if !strings.Contains(db.sql[0], "create table if not exists acronyms") {
		t.Fatalf("schema not executed: %q", db.sql[0])
	}
}
