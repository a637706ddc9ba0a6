package model

import "time"

// ChatMessage — входящее сообщение чата или личное сообщение боту.
type ChatMessage struct {
	ID          string
	Channel     string
	UserID      string
	Username    string
	DisplayName string
	Text        string
	Badges      map[string]int
	IsMod       bool
	// Whisper истинно для личных сообщений; тогда Channel равен нику бота.
	Whisper bool
	// Kind — результат адресации: natural или command.
	Kind   string
	SentAt time.Time
}

// Notice описывает notice-событие, полученное от Twitch.
type Notice struct {
	Channel  string
	ID       string
	Message  string
	Tags     map[string]string
	NoticeAt time.Time
}

// User — флаги пользователя, известные боту.
type User struct {
	Admin  bool `json:"admin"`
	Ignore bool `json:"ignore"`
}
