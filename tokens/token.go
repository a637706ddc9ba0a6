package tokens

import "time"

// Token описывает пользовательский OAuth токен бота.
type Token struct {
	Access  string
	Refresh string
	// ExpiresAt нулевой, если срок действия неизвестен.
	ExpiresAt time.Time
	// Seed — токен из окружения, от которого получен этот. Смена токена в
	// окружении отбрасывает сохранённый.
	Seed string
}

// TokenStore описывает хранилище пользовательского токена.
type TokenStore interface {
	LoadUserToken() (*Token, error)
	SaveUserToken(Token) error
}

func isTokenExpiringSoon(token *Token, now time.Time) bool {
	if token.ExpiresAt.IsZero() {
		return false
	}
	return token.ExpiresAt.Before(now.Add(5 * time.Minute))
}
