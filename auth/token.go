package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twitchOAuthTokenURL = "https://id.twitch.tv/oauth2/token"

// Refresher обновляет пользовательский OAuth токен Twitch по refresh_token.
type Refresher struct {
	HTTP         *http.Client
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// NewRefresher создаёт Refresher с адресом OAuth Twitch по умолчанию.
func NewRefresher(httpClient *http.Client, clientID, clientSecret string) Refresher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return Refresher{
		HTTP:         httpClient,
		TokenURL:     twitchOAuthTokenURL,
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
	}
}

// Refresh запрашивает новую пару токенов. Twitch может вернуть новый
// refresh_token; старый после этого недействителен.
func (r Refresher) Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, expiresIn time.Duration, err error) {
	form := url.Values{}
	form.Set("client_id", r.ClientID)
	form.Set("client_secret", r.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", strings.TrimSpace(refreshToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", 0, fmt.Errorf("twitch oauth: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("twitch oauth: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", "", 0, fmt.Errorf("twitch oauth: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", 0, fmt.Errorf("twitch oauth: decode response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", "", 0, fmt.Errorf("twitch oauth: empty access_token")
	}
	if payload.RefreshToken == "" {
		payload.RefreshToken = refreshToken
	}

	return payload.AccessToken, payload.RefreshToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}
