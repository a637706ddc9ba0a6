package twitch

import (
	"testing"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
)

func TestToChatMessage(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	badges := map[string]int{"moderator": 1}

	msg := toChatMessage(twitchirc.PrivateMessage{
		ID:      "abc",
		Channel: "Space",
		Message: "acrobot what is fts",
		Time:    at,
		User: twitchirc.User{
			ID:          "42",
			Name:        "zlsa",
			DisplayName: "ZLSA",
			Badges:      badges,
		},
	})

	if msg.Channel != "#space" || msg.Username != "zlsa" || msg.DisplayName != "ZLSA" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.IsMod || msg.Whisper {
		t.Fatalf("unexpected flags: %+v", msg)
	}
	if !msg.SentAt.Equal(at) || msg.SentAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", msg.SentAt)
	}

	badges["vip"] = 1
	if _, ok := msg.Badges["vip"]; ok {
		t.Fatalf("badges must be copied")
	}
}

func TestToWhisper(t *testing.T) {
	msg := toWhisper(twitchirc.WhisperMessage{
		MessageID: "w1",
		Message:   "help",
		User:      twitchirc.User{Name: "zlsa"},
	}, "acrobot")

	if msg.Channel != "acrobot" || !msg.Whisper || msg.Username != "zlsa" {
		t.Fatalf("unexpected whisper: %+v", msg)
	}

	msg = toWhisper(twitchirc.WhisperMessage{Target: "AcroBot"}, "other")
	if msg.Channel != "acrobot" {
		t.Fatalf("expected target nick, got %q", msg.Channel)
	}
}

func TestToNotice(t *testing.T) {
	notice := toNotice(twitchirc.NoticeMessage{
		Channel: "space",
		MsgID:   "slow_on",
		Message: "This room is now in slow mode.",
		Tags:    map[string]string{"tmi-sent-ts": "1700000000000"},
	})

	if notice.Channel != "#space" || notice.ID != "slow_on" {
		t.Fatalf("unexpected notice: %+v", notice)
	}
	if !notice.NoticeAt.Equal(time.UnixMilli(1_700_000_000_000)) {
		t.Fatalf("unexpected timestamp: %v", notice.NoticeAt)
	}
}

func TestNoticeTimestampFallback(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got := noticeTimestamp(map[string]string{"tmi-sent-ts": "garbage"})
	if got.Before(before) {
		t.Fatalf("expected current time, got %v", got)
	}
}

func TestChannelName(t *testing.T) {
	cases := map[string]string{
		"#Space":  "space",
		" space ": "space",
		"#":       "",
	}
	for in, want := range cases {
		if got := channelName(in); got != want {
			t.Fatalf("channelName(%q) = %q, want %q", in, got, want)
		}
	}
}
