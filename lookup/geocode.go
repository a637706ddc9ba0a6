package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Location — результат геокодирования.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	State     string
	Country   string
}

// Name собирает человекочитаемое название места.
func (l Location) Name() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.State, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Geocode ищет координаты места по свободному тексту.
func (c *Client) Geocode(ctx context.Context, query string) (Location, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	var places []nominatimPlace
	if err := c.getJSON(ctx, "geocode", c.GeocodeURL, "/search", q, &places); err != nil {
		return Location{}, err
	}
	if len(places) == 0 {
		return Location{}, fmt.Errorf("geocode %q: %w", query, ErrNotFound)
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Location{}, fmt.Errorf("geocode: parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Location{}, fmt.Errorf("geocode: parse lon: %w", err)
	}

	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}

	return Location{
		Latitude:  lat,
		Longitude: lon,
		City:      city,
		State:     p.Address.State,
		Country:   p.Address.Country,
	}, nil
}
