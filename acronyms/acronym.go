// Package acronyms хранит записи об акронимах и ищет их по токену.
package acronyms

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Acronym — одна запись: несколько написаний, расшифровка и описание.
type Acronym struct {
	Acronyms    []string `json:"acronyms"`
	Meaning     string   `json:"meaning"`
	Description string   `json:"description"`
	Author      string   `json:"author,omitempty"`
	Source      string   `json:"source,omitempty"`
	// Weight: 0.0 — никто не знает, 0.2 — термин подсистемы,
	// 0.6 — подсистема ракеты (fts, s1), 1.0 — знают все.
	Weight float64 `json:"weight"`
}

// Store ищет записи по нормализованному токену.
type Store interface {
	Lookup(ctx context.Context, token string) ([]Acronym, error)
	// Refresh перечитывает записи из источника.
	Refresh(ctx context.Context) error
	// All возвращает все записи.
	All(ctx context.Context) ([]Acronym, error)
}

var nonWord = regexp.MustCompile(`\W`)

// Clean убирает лишние символы и приводит к нижнему регистру: "F-9!" -> "f9".
func Clean(token string) string {
	return strings.ToLower(nonWord.ReplaceAllString(token, ""))
}

// Name возвращает каноническое написание записи.
func (a Acronym) Name() string {
	if len(a.Acronyms) == 0 {
		return ""
	}
	return strings.ToUpper(a.Acronyms[0])
}

// Matches сообщает, совпадает ли токен с одним из написаний.
func (a Acronym) Matches(token string) bool {
	for _, spelling := range a.Acronyms {
		if Clean(spelling) == token {
			return true
		}
	}
	return false
}

func (a Acronym) String() string {
	s := a.Name()
	if a.Meaning != "" {
		s += " (" + a.Meaning + ")"
	}
	if a.Description != "" {
		s += ": " + a.Description
	}
	return s
}

// SortByWeight упорядочивает записи от самых известных к наименее известным.
func SortByWeight(list []Acronym) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Weight > list[j].Weight
	})
}

// Names возвращает канонические имена записей без повторов, по алфавиту.
func Names(list []Acronym) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, a := range list {
		name := a.Name()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate проверяет, что запись пригодна для хранения.
func (a Acronym) Validate() error {
	if len(a.Acronyms) == 0 {
		return fmt.Errorf("acronym: no spellings")
	}
	for _, spelling := range a.Acronyms {
		if Clean(spelling) == "" {
			return fmt.Errorf("acronym: spelling %q is empty after cleaning", spelling)
		}
	}
	return nil
}
