// Package lookup ходит во внешние HTTP сервисы: геокодер и данные о
// пролётах МКС.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultISSURL     = "http://api.open-notify.org"
	DefaultGeocodeURL = "https://nominatim.openstreetmap.org"
	userAgent         = "acrobot/1.0"
)

// ErrNotFound возвращается, когда сервис ответил, но ничего не нашёл.
var ErrNotFound = errors.New("not found")

// Client — HTTP клиент для геокодера и API МКС.
type Client struct {
	HTTP       *http.Client
	ISSURL     string
	GeocodeURL string
}

// NewClient создаёт клиента; пустые адреса заменяются значениями по умолчанию.
func NewClient(httpClient *http.Client, issURL, geocodeURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(issURL) == "" {
		issURL = DefaultISSURL
	}
	if strings.TrimSpace(geocodeURL) == "" {
		geocodeURL = DefaultGeocodeURL
	}
	return &Client{
		HTTP:       httpClient,
		ISSURL:     strings.TrimRight(issURL, "/"),
		GeocodeURL: strings.TrimRight(geocodeURL, "/"),
	}
}

// getJSON выполняет GET и декодирует JSON ответ в out.
func (c *Client) getJSON(ctx context.Context, op, base, path string, query url.Values, out any) error {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}
