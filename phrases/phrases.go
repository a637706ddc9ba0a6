// Package phrases — набор заготовленных фраз, из которых бот выбирает
// случайную.
package phrases

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// Ключи фраз, которые использует бот.
const (
	IncompleteQuestion = "incomplete_question"
	Apology            = "apology"
	Greeting           = "greeting"
	Farewell           = "farewell"
)

// Bank хранит списки фраз по ключу.
type Bank struct {
	phrases map[string][]string
	intn    func(int) int
}

// Defaults — встроенные фразы на случай отсутствия файла.
func Defaults() map[string][]string {
	return map[string][]string{
		IncompleteQuestion: {
			"what what?",
			"you have to actually ask me something.",
			"...is there more to that question?",
		},
		Apology: {
			"sorry, I couldn't look that up right now.",
			"something went wrong on my end, try again later.",
		},
		Greeting: {"hello!"},
		Farewell: {"bye!", "see you later."},
	}
}

// New создаёт Bank поверх готового набора фраз.
func New(phrases map[string][]string) *Bank {
	return &Bank{phrases: phrases, intn: rand.IntN}
}

// Load читает YAML файл вида "key: [phrase, ...]" поверх встроенных фраз.
// Отсутствующий файл не считается ошибкой.
func Load(path string) (*Bank, error) {
	merged := Defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(merged), nil
	}
	if err != nil {
		return nil, fmt.Errorf("phrases: read file: %w", err)
	}

	var loaded map[string][]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("phrases: decode yaml: %w", err)
	}
	for key, list := range loaded {
		if len(list) > 0 {
			merged[key] = list
		}
	}

	return New(merged), nil
}

// Get возвращает случайную фразу по ключу или пустую строку.
func (b *Bank) Get(key string) string {
	choices := b.phrases[key]
	if len(choices) == 0 {
		return ""
	}
	return choices[b.intn(len(choices))]
}
