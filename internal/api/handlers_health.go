// handlers_health.go - Health check and preset handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/export"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/overlay"
	"github.com/starmap-generator/backend/internal/preset"
	"github.com/starmap-generator/backend/internal/session"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	sessions *session.Manager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions *session.Manager) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		sessions: sessions,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Count()
	}
	return c.JSON(http.StatusOK, resp)
}

// PresetHandlerImpl implements the PresetHandler interface
type PresetHandlerImpl struct {
	presets *preset.Presets
	fonts   *overlay.FontBook
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(presets *preset.Presets, fonts *overlay.FontBook) PresetHandler {
	if presets == nil {
		presets = preset.Default()
	}
	return &PresetHandlerImpl{presets: presets, fonts: fonts}
}

type presetsResponse struct {
	*preset.Presets
	Fonts   []string        `json:"fonts"`
	Views   []models.View   `json:"views"`
	Formats []export.Format `json:"formats"`
}

// HandleGetPresets returns paper sizes, styles, fonts and the fallback palette
func (h *PresetHandlerImpl) HandleGetPresets(c echo.Context) error {
	resp := presetsResponse{
		Presets: h.presets,
		Fonts:   []string{},
		Views: []models.View{
			models.ViewStarMap,
			models.ViewStreetMap,
			models.ViewCanvasLayout,
			models.ViewCombinedLandscape,
			models.ViewCombinedPortrait,
		},
		Formats: []export.Format{export.FormatPNG, export.FormatJPEG, export.FormatSVG},
	}
	if h.fonts != nil {
		resp.Fonts = h.fonts.Families()
	}
	return c.JSON(http.StatusOK, resp)
}
