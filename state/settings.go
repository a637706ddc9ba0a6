package state

import (
	"errors"
	"sort"

	"acrobot/model"
)

// SettingsVersion — версия схемы сохранённых настроек. Документ с другой
// версией отбрасывается и заменяется значениями по умолчанию.
const SettingsVersion = 2

// ErrVersionMismatch возвращается, когда версия файла не совпадает с SettingsVersion.
var ErrVersionMismatch = errors.New("settings version mismatch")

// Settings — всё, что бот сохраняет между запусками.
type Settings struct {
	Version  int                   `json:"version"`
	Nick     string                `json:"nick"`
	Modes    map[string]bool       `json:"modes"`
	Users    map[string]model.User `json:"users"`
	Channels []string              `json:"channels"`
}

// Store описывает хранилище настроек.
type Store interface {
	Load() (*Settings, error)
	Save(Settings) error
}

// Defaults собирает настройки по умолчанию.
func Defaults(nick string, channels, admins []string) Settings {
	s := Settings{
		Version: SettingsVersion,
		Nick:    nick,
		Modes: map[string]bool{
			"debug":        false,
			"cheeky":       true,
			"silent":       false,
			"natural":      true,
			"auto_refresh": false,
		},
		Users:    make(map[string]model.User, len(admins)),
		Channels: make([]string, 0, len(channels)),
	}

	for _, ch := range channels {
		ch = NormalizeChannel(ch)
		if ch != "" && !contains(s.Channels, ch) {
			s.Channels = append(s.Channels, ch)
		}
	}
	for _, nick := range admins {
		s.Users[nick] = model.User{Admin: true}
	}

	return s
}

// NormalizeChannel добавляет # к имени канала, если его нет.
func NormalizeChannel(ch string) string {
	if ch == "" || ch[0] == '#' {
		return ch
	}
	return "#" + ch
}

// Nicks возвращает отсортированные ники, для которых pred истинен.
func (s Settings) Nicks(pred func(model.User) bool) []string {
	var out []string
	for nick, u := range s.Users {
		if pred(u) {
			out = append(out, nick)
		}
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
