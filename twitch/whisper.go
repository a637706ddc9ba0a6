package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"acrobot/tokens"
)

const DefaultHelixURL = "https://api.twitch.tv/helix"

// ErrUnknownUser возвращается, когда Helix не знает логин.
var ErrUnknownUser = errors.New("twitch: unknown user")

// TokenSource выдаёт пользовательский токен для Helix.
type TokenSource interface {
	Get(ctx context.Context) (tokens.Token, error)
	Refresh(ctx context.Context) (tokens.Token, error)
}

// WhisperSender отправляет личное сообщение от одного логина другому.
type WhisperSender interface {
	Whisper(ctx context.Context, from, to, text string) error
}

// Whisperer отправляет личные сообщения через Helix API: IRC Twitch их
// больше не принимает. Токену нужен scope user:manage:whispers.
type Whisperer struct {
	http     *http.Client
	baseURL  string
	clientID string
	tokens   TokenSource

	mu  sync.Mutex
	ids map[string]string
}

var _ WhisperSender = (*Whisperer)(nil)

// NewWhisperer создаёт клиент Helix; пустой baseURL заменяется адресом
// по умолчанию.
func NewWhisperer(httpClient *http.Client, baseURL, clientID string, tokens TokenSource) *Whisperer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultHelixURL
	}
	return &Whisperer{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: strings.TrimSpace(clientID),
		tokens:   tokens,
		ids:      make(map[string]string),
	}
}

// Whisper отправляет text от логина from логину to.
func (w *Whisperer) Whisper(ctx context.Context, from, to, text string) error {
	fromID, err := w.userID(ctx, from)
	if err != nil {
		return err
	}
	toID, err := w.userID(ctx, to)
	if err != nil {
		return err
	}

	body, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: text})
	if err != nil {
		return fmt.Errorf("helix whisper: encode body: %w", err)
	}

	query := url.Values{}
	query.Set("from_user_id", fromID)
	query.Set("to_user_id", toID)
	return w.do(ctx, "helix whisper", http.MethodPost, "/whispers", query, body, nil)
}

// userID переводит логин в id пользователя, кешируя ответ.
func (w *Whisperer) userID(ctx context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimSpace(login))

	w.mu.Lock()
	id, ok := w.ids[login]
	w.mu.Unlock()
	if ok {
		return id, nil
	}

	var payload struct {
		Data []struct {
			ID    string `json:"id"`
			Login string `json:"login"`
		} `json:"data"`
	}
	query := url.Values{}
	query.Set("login", login)
	if err := w.do(ctx, "helix users", http.MethodGet, "/users", query, nil, &payload); err != nil {
		return "", err
	}
	if len(payload.Data) == 0 || payload.Data[0].ID == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownUser, login)
	}

	id = payload.Data[0].ID
	w.mu.Lock()
	w.ids[login] = id
	w.mu.Unlock()
	return id, nil
}

// do выполняет запрос с текущим токеном; на 401 токен обновляется и
// запрос повторяется один раз.
func (w *Whisperer) do(ctx context.Context, op, method, path string, query url.Values, body []byte, out any) error {
	token, err := w.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("%s: token: %w", op, err)
	}

	status, err := w.send(ctx, op, method, path, query, body, token.Access, out)
	if err != nil && status == http.StatusUnauthorized {
		token, rerr := w.tokens.Refresh(ctx)
		if rerr != nil {
			return fmt.Errorf("%s: refresh token: %w", op, errors.Join(err, rerr))
		}
		_, err = w.send(ctx, op, method, path, query, body, token.Access, out)
	}
	return err
}

func (w *Whisperer) send(ctx context.Context, op, method, path string, query url.Values, body []byte, accessToken string, out any) (int, error) {
	u := w.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", w.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return resp.StatusCode, nil
}
