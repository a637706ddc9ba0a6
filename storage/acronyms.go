package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"acrobot/acronyms"
)

type querier interface {
	execer
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AcronymStore читает акронимы из таблицы acronyms. Данные всегда
// актуальны, поэтому Refresh ничего не делает.
type AcronymStore struct {
	db querier
}

// NewAcronymStore создаёт хранилище поверх пула или соединения.
func NewAcronymStore(db querier) *AcronymStore {
	return &AcronymStore{db: db}
}

const selectAcronyms = `
select tokens, meaning, description, author, source, weight
from acronyms`

// Lookup ищет записи, в tokens которых есть токен.
func (s *AcronymStore) Lookup(ctx context.Context, token string) ([]acronyms.Acronym, error) {
	rows, err := s.db.Query(ctx, selectAcronyms+`
where $1 = any(tokens)
order by weight desc, id`, acronyms.Clean(token))
	if err != nil {
		return nil, fmt.Errorf("storage: lookup acronym: %w", err)
	}
	return collectAcronyms(rows)
}

// All возвращает все записи.
func (s *AcronymStore) All(ctx context.Context) ([]acronyms.Acronym, error) {
	rows, err := s.db.Query(ctx, selectAcronyms+`
order by id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list acronyms: %w", err)
	}
	return collectAcronyms(rows)
}

// Add добавляет запись; написания сохраняются очищенными.
func (s *AcronymStore) Add(ctx context.Context, a acronyms.Acronym) error {
	if err := a.Validate(); err != nil {
		return err
	}
	tokens := make([]string, 0, len(a.Acronyms))
	for _, spelling := range a.Acronyms {
		tokens = append(tokens, acronyms.Clean(spelling))
	}

	_, err := s.db.Exec(ctx, `
insert into acronyms (tokens, meaning, description, author, source, weight)
values ($1, $2, $3, $4, $5, $6);`, tokens, a.Meaning, a.Description, a.Author, a.Source, a.Weight)
	if err != nil {
		return fmt.Errorf("storage: insert acronym: %w", err)
	}
	return nil
}

// Refresh нужен для совместимости с acronyms.Store.
func (s *AcronymStore) Refresh(ctx context.Context) error {
	return ctx.Err()
}

func collectAcronyms(rows pgx.Rows) ([]acronyms.Acronym, error) {
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (acronyms.Acronym, error) {
		var a acronyms.Acronym
		err := row.Scan(&a.Acronyms, &a.Meaning, &a.Description, &a.Author, &a.Source, &a.Weight)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan acronyms: %w", err)
	}
	return list, nil
}
