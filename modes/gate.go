package modes

import (
	"sort"
	"time"
)

// Mode — имя переключаемой функции бота.
type Mode string

const (
	Debug       Mode = "debug"
	Cheeky      Mode = "cheeky"
	Silent      Mode = "silent"
	Natural     Mode = "natural"
	AutoRefresh Mode = "auto_refresh"
)

var all = []Mode{Debug, Cheeky, Silent, Natural, AutoRefresh}

// All возвращает все допустимые режимы в фиксированном порядке.
func All() []Mode {
	return append([]Mode(nil), all...)
}

// Names возвращает имена всех режимов строками.
func Names() []string {
	out := make([]string, 0, len(all))
	for _, m := range all {
		out = append(out, string(m))
	}
	return out
}

// IsValid проверяет, что имя входит в перечень режимов.
func IsValid(name string) bool {
	for _, m := range all {
		if string(m) == name {
			return true
		}
	}
	return false
}

// Delays задаёт паузу между срабатываниями режима. Отсутствие записи
// означает нулевую паузу.
type Delays map[Mode]time.Duration

// DefaultDelays — таблица пауз по умолчанию: ограничен только cheeky.
func DefaultDelays() Delays {
	return Delays{Cheeky: 5 * time.Second}
}

// Clock возвращает текущее время.
type Clock func() time.Time

// Gate хранит флаги режимов и время, после которого режим снова может
// сработать. Не потокобезопасен: владелец обязан сериализовать вызовы.
type Gate struct {
	modes     map[Mode]bool
	cooldowns map[Mode]time.Time
	delays    Delays
	now       Clock
	onChange  func()
}

// NewGate создаёт Gate с начальными флагами. onChange вызывается после
// каждого успешного Set и отвечает за сохранение конфигурации.
func NewGate(initial map[Mode]bool, delays Delays, now Clock, onChange func()) *Gate {
	if now == nil {
		now = time.Now
	}
	if delays == nil {
		delays = DefaultDelays()
	}

	g := &Gate{
		modes:     make(map[Mode]bool, len(all)),
		cooldowns: make(map[Mode]time.Time),
		delays:    delays,
		now:       now,
		onChange:  onChange,
	}
	for m, v := range initial {
		if IsValid(string(m)) {
			g.modes[m] = v
		}
	}
	return g
}

// IsValid проверяет имя режима.
func (g *Gate) IsValid(name string) bool {
	return IsValid(name)
}

// Set меняет флаг режима. Для неизвестного имени ничего не делает.
func (g *Gate) Set(name string, value bool) {
	if !IsValid(name) {
		return
	}
	g.modes[Mode(name)] = value
	if g.onChange != nil {
		g.onChange()
	}
}

// Enabled возвращает флаг режима; неизвестный режим выключен.
func (g *Gate) Enabled(m Mode) bool {
	return g.modes[m]
}

// Eligible сообщает, может ли режим сработать сейчас.
func (g *Gate) Eligible(m Mode) bool {
	if !g.Enabled(m) {
		return false
	}
	next, ok := g.cooldowns[m]
	return !ok || !next.After(g.now())
}

// Use фиксирует срабатывание режима и откладывает следующее на delay.
func (g *Gate) Use(m Mode) {
	g.cooldowns[m] = g.now().Add(g.delays[m])
}

// Try — Eligible и Use за один вызов.
func (g *Gate) Try(m Mode) bool {
	if !g.Eligible(m) {
		return false
	}
	g.Use(m)
	return true
}

// Snapshot возвращает копию флагов для сохранения.
func (g *Gate) Snapshot() map[string]bool {
	out := make(map[string]bool, len(g.modes))
	for m, v := range g.modes {
		out[string(m)] = v
	}
	return out
}

// Describe перечисляет режимы в виде "name=on" для ответов в чат.
func (g *Gate) Describe() []string {
	out := make([]string, 0, len(all))
	for _, m := range all {
		state := "off"
		if g.modes[m] {
			state = "on"
		}
		out = append(out, string(m)+"="+state)
	}
	sort.Strings(out)
	return out
}
