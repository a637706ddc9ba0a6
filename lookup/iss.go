package lookup

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Position — текущие координаты МКС.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Passes возвращает ближайшие пролёты МКС над точкой, по возрастанию.
func (c *Client) Passes(ctx context.Context, lat, lon float64) ([]time.Time, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))

	var payload struct {
		Message  string `json:"message"`
		Response []struct {
			Duration int64 `json:"duration"`
			RiseTime int64 `json:"risetime"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, "iss passes", c.ISSURL, "/iss-pass.json", q, &payload); err != nil {
		return nil, err
	}
	if payload.Message != "" && payload.Message != "success" {
		return nil, fmt.Errorf("iss passes: api message %q", payload.Message)
	}

	out := make([]time.Time, 0, len(payload.Response))
	for _, p := range payload.Response {
		out = append(out, time.Unix(p.RiseTime, 0).UTC())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	return out, nil
}

// Position возвращает текущее положение МКС.
func (c *Client) Position(ctx context.Context) (Position, error) {
	var payload struct {
		Message     string `json:"message"`
		ISSPosition struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"iss_position"`
	}
	if err := c.getJSON(ctx, "iss position", c.ISSURL, "/iss-now.json", nil, &payload); err != nil {
		return Position{}, err
	}
	if payload.Message != "" && payload.Message != "success" {
		return Position{}, fmt.Errorf("iss position: api message %q", payload.Message)
	}

	lat, err := strconv.ParseFloat(payload.ISSPosition.Latitude, 64)
	if err != nil {
		return Position{}, fmt.Errorf("iss position: parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(payload.ISSPosition.Longitude, 64)
	if err != nil {
		return Position{}, fmt.Errorf("iss position: parse longitude: %w", err)
	}

	return Position{Latitude: lat, Longitude: lon}, nil
}
