package models

// Viewport is the bounding box a geocoder suggests for a result.
type Viewport struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// GeoResult is the location a geocoder resolved a query to.
type GeoResult struct {
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	DisplayName string    `json:"displayName,omitempty"`
	Viewport    *Viewport `json:"viewport,omitempty"`
}
