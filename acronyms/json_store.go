package acronyms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ACRONYMS_FILE — путь к файлу акронимов по умолчанию.
const ACRONYMS_FILE = "acronyms.json"

// JSONStore держит записи из JSON файла в памяти.
type JSONStore struct {
	path string

	mu       sync.RWMutex
	acronyms []Acronym
}

// NewJSONStore читает файл. Отсутствующий файл даёт пустое хранилище.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		path = ACRONYMS_FILE
	}
	s := &JSONStore{path: path}
	if err := s.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Path возвращает путь к файлу.
func (s *JSONStore) Path() string {
	return s.path
}

// Refresh перечитывает файл целиком.
func (s *JSONStore) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("acronyms: read file: %w", err)
	}

	var list []Acronym
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("acronyms: decode json: %w", err)
	}
	for i, a := range list {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("acronyms: record %d: %w", i, err)
		}
	}

	s.replace(list)
	return nil
}

// Lookup возвращает записи, одно из написаний которых совпадает с токеном.
func (s *JSONStore) Lookup(_ context.Context, token string) ([]Acronym, error) {
	token = Clean(token)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []Acronym
	for _, a := range s.acronyms {
		if a.Matches(token) {
			matching = append(matching, a)
		}
	}
	SortByWeight(matching)

	return matching, nil
}

// All возвращает копию всех записей.
func (s *JSONStore) All(_ context.Context) ([]Acronym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Acronym(nil), s.acronyms...), nil
}

// Add добавляет запись и сохраняет файл.
func (s *JSONStore) Add(ctx context.Context, a Acronym) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(append([]Acronym(nil), s.acronyms...), a)
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("acronyms: encode json: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("acronyms: write file: %w", err)
	}

	s.acronyms = list
	return nil
}

func (s *JSONStore) replace(list []Acronym) {
	s.mu.Lock()
	s.acronyms = list
	s.mu.Unlock()
}
