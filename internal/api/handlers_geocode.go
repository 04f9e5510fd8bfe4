// handlers_geocode.go - ZIP code and address lookup
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/format"
	"github.com/starmap-generator/backend/internal/history"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/provider"
)

// GeocodeHandlerImpl implements the GeocodeHandler interface
type GeocodeHandlerImpl struct {
	geocoder provider.Geocoder
	history  *history.Store
}

// NewGeocodeHandler creates a new geocode handler. history may be nil.
func NewGeocodeHandler(geocoder provider.Geocoder, hist *history.Store) GeocodeHandler {
	return &GeocodeHandlerImpl{
		geocoder: geocoder,
		history:  hist,
	}
}

type geocodeRequest struct {
	Query string `json:"query"`
}

func (r *geocodeRequest) validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return NewValidationError("query")
	}
	return nil
}

type geocodeResponse struct {
	*models.GeoResult
	Kind        models.HistoryKind `json:"kind"`
	Coordinates string             `json:"coordinates"`
}

// HandleGeocode resolves a ZIP code or address to a location and
// remembers the query in the matching history list
func (h *GeocodeHandlerImpl) HandleGeocode(c echo.Context) error {
	if h.geocoder == nil {
		return NewServiceUnavailableError("geocoding is not configured")
	}

	var req geocodeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	kind := models.HistoryAddress
	if provider.IsZIP(req.Query) {
		kind = models.HistoryZIP
	}

	ctx := c.Request().Context()
	result, err := h.geocoder.Geocode(ctx, req.Query)
	if errors.Is(err, provider.ErrNotFound) {
		return NewNotFoundError("location", req.Query)
	}
	if err != nil {
		return NewUpstreamError("geocoding failed", err)
	}

	if h.history != nil {
		if err := h.history.Record(ctx, kind, req.Query); err != nil {
			apiLog.Warn().Err(err).Str("kind", string(kind)).Msg("failed to record geocode history")
		}
	}

	return c.JSON(http.StatusOK, geocodeResponse{
		GeoResult:   result,
		Kind:        kind,
		Coordinates: format.FormatCoordinates(result.Lat, result.Lng),
	})
}
