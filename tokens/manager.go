package tokens

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"
)

// ErrNoRefresh возвращается, когда токен нельзя обновить: нет
// refresh_token или секрета приложения.
var ErrNoRefresh = errors.New("tokens: refresh is not configured")

// UserTokenRefresher обменивает refresh_token на новую пару токенов.
type UserTokenRefresher func(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, expiresIn time.Duration, err error)

// UserTokenManager выдаёт актуальный пользовательский токен: берёт его из
// хранилища или из окружения и обновляет, когда срок подходит к концу.
type UserTokenManager struct {
	store   TokenStore
	refresh UserTokenRefresher
	seed    Token
	now     func() time.Time
	mu      sync.Mutex
}

// NewUserTokenManager создаёт менеджер. seed — токен из окружения;
// refresh может быть nil, тогда токен только читается.
func NewUserTokenManager(store TokenStore, seed Token, refresh UserTokenRefresher) *UserTokenManager {
	seed.Seed = seed.Access
	return &UserTokenManager{
		store:   store,
		refresh: refresh,
		seed:    seed,
		now:     time.Now,
	}
}

// Get возвращает токен, обновляя его при необходимости.
func (manager *UserTokenManager) Get(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	token, err := manager.current()
	if err != nil {
		return Token{}, err
	}

	if !isTokenExpiringSoon(&token, manager.now()) || manager.refresh == nil || token.Refresh == "" {
		return token, nil
	}

	return manager.renew(ctx, token)
}

// Refresh принудительно обновляет токен, например после ответа 401.
func (manager *UserTokenManager) Refresh(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	token, err := manager.current()
	if err != nil {
		return Token{}, err
	}
	return manager.renew(ctx, token)
}

func (manager *UserTokenManager) current() (Token, error) {
	token, err := manager.store.LoadUserToken()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Token{}, err
	}
	if token == nil || token.Seed != manager.seed.Seed {
		return manager.seed, nil
	}
	return *token, nil
}

func (manager *UserTokenManager) renew(ctx context.Context, token Token) (Token, error) {
	if manager.refresh == nil || token.Refresh == "" {
		return Token{}, ErrNoRefresh
	}

	accessToken, refreshToken, expiresIn, err := manager.refresh(ctx, token.Refresh)
	if err != nil {
		return Token{}, err
	}

	newToken := Token{
		Access:    accessToken,
		Refresh:   refreshToken,
		ExpiresAt: manager.now().Add(expiresIn),
		Seed:      manager.seed.Seed,
	}

	if err := manager.store.SaveUserToken(newToken); err != nil {
		return Token{}, err
	}

	return newToken, nil
}
