// handlers_history.go - Input history and saved settings handlers
package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/history"
	"github.com/starmap-generator/backend/internal/models"
)

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	store *history.Store
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store *history.Store) HistoryHandler {
	return &HistoryHandlerImpl{store: store}
}

type recordHistoryRequest struct {
	Value string `json:"value"`
}

func (r *recordHistoryRequest) validate() error {
	r.Value = strings.TrimSpace(r.Value)
	if r.Value == "" {
		return NewValidationError("value")
	}
	return nil
}

func parseKind(c echo.Context) (models.HistoryKind, error) {
	kind := models.HistoryKind(c.Param("kind"))
	if !kind.Valid() {
		return "", NewValidationError("kind")
	}
	return kind, nil
}

// HandleGetHistory returns the most recent values of one history list
func (h *HistoryHandlerImpl) HandleGetHistory(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("history is not available")
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	entries, err := h.store.Recent(c.Request().Context(), kind, limit)
	if err != nil {
		return fromDomainError(err, string(kind))
	}
	return c.JSON(http.StatusOK, entries)
}

// HandleRecordHistory moves a value to the front of a history list and
// returns the updated list
func (h *HistoryHandlerImpl) HandleRecordHistory(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("history is not available")
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	var req recordHistoryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.store.Record(ctx, kind, req.Value); err != nil {
		return fromDomainError(err, string(kind))
	}
	entries, err := h.store.Recent(ctx, kind, 0)
	if err != nil {
		return fromDomainError(err, string(kind))
	}
	return c.JSON(http.StatusOK, entries)
}

// HandleClearHistory empties one history list
func (h *HistoryHandlerImpl) HandleClearHistory(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("history is not available")
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	if err := h.store.Clear(c.Request().Context(), kind); err != nil {
		return fromDomainError(err, string(kind))
	}
	return c.NoContent(http.StatusNoContent)
}

// SettingsHandlerImpl implements the SettingsHandler interface
type SettingsHandlerImpl struct {
	store *history.Store
}

// NewSettingsHandler creates a new saved settings handler
func NewSettingsHandler(store *history.Store) SettingsHandler {
	return &SettingsHandlerImpl{store: store}
}

// HandleListSettings returns the names of all saved settings
func (h *SettingsHandlerImpl) HandleListSettings(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("settings are not available")
	}
	names, err := h.store.ListSettings(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list settings", err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, names)
}

// HandleGetSettings returns one saved settings snapshot
func (h *SettingsHandlerImpl) HandleGetSettings(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("settings are not available")
	}
	name := c.Param("name")
	saved, err := h.store.LoadSettings(c.Request().Context(), name)
	if err != nil {
		return fromDomainError(err, name)
	}
	return c.JSON(http.StatusOK, saved)
}

// HandleSaveSettings stores the request body as a named snapshot
func (h *SettingsHandlerImpl) HandleSaveSettings(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("settings are not available")
	}
	name := c.Param("name")

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}

	saved, err := h.store.SaveSettings(c.Request().Context(), name, data)
	if err != nil {
		return fromDomainError(err, name)
	}
	return c.JSON(http.StatusOK, saved)
}
