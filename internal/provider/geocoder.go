package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/starmap-generator/backend/internal/models"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// IsZIP reports whether query looks like a US ZIP code.
func IsZIP(query string) bool {
	return zipPattern.MatchString(strings.TrimSpace(query))
}

// HTTPGeocoder queries a Nominatim-compatible /search endpoint.
type HTTPGeocoder struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewHTTPGeocoder creates a geocoder for baseURL.
func NewHTTPGeocoder(baseURL, userAgent string) *HTTPGeocoder {
	return &HTTPGeocoder{BaseURL: strings.TrimRight(baseURL, "/"), UserAgent: userAgent, Client: http.DefaultClient}
}

type nominatimPlace struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"` // south, north, west, east
}

// Geocode implements Geocoder. ZIP codes are sent as a postal code search.
func (g *HTTPGeocoder) Geocode(ctx context.Context, query string) (*models.GeoResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	v := url.Values{}
	v.Set("format", "json")
	v.Set("limit", "1")
	if IsZIP(query) {
		v.Set("postalcode", query[:5])
		v.Set("countrycodes", "us")
	} else {
		v.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/search?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned %s", resp.Status)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder longitude %q: %w", p.Lon, err)
	}

	result := &models.GeoResult{Lat: lat, Lng: lng, DisplayName: p.DisplayName}
	if vp, ok := parseBoundingBox(p.BoundingBox); ok {
		result.Viewport = vp
	}
	return result, nil
}

func parseBoundingBox(bb []string) (*models.Viewport, bool) {
	if len(bb) != 4 {
		return nil, false
	}
	var f [4]float64
	for i, s := range bb {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		f[i] = v
	}
	return &models.Viewport{South: f[0], North: f[1], West: f[2], East: f[3]}, true
}
