package provider

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strconv"
)

// HTTPStarMap fetches star maps from a rendering proxy with a query-string API:
// GET <base>?lat=&lng=&date=&style=&width=&height=
type HTTPStarMap struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewHTTPStarMap creates a client for the proxy at baseURL.
func NewHTTPStarMap(baseURL, userAgent string) *HTTPStarMap {
	return &HTTPStarMap{BaseURL: baseURL, UserAgent: userAgent, Client: http.DefaultClient}
}

// FetchStarMap implements StarMapProvider.
func (p *HTTPStarMap) FetchStarMap(ctx context.Context, q StarMapQuery) (image.Image, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("star map url: %w", err)
	}
	v := u.Query()
	v.Set("lat", strconv.FormatFloat(q.Lat, 'f', 6, 64))
	v.Set("lng", strconv.FormatFloat(q.Lng, 'f', 6, 64))
	v.Set("date", q.Date.Format("2006-01-02T15:04"))
	if q.Style != "" {
		v.Set("style", q.Style)
	}
	v.Set("width", strconv.Itoa(q.Width))
	v.Set("height", strconv.Itoa(q.Height))
	u.RawQuery = v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching star map: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("star map provider returned %s", resp.Status)
	}
	return decodeImage(resp.Body)
}
