// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// PresetHandler serves form choices and defaults
type PresetHandler interface {
	HandleGetPresets(c echo.Context) error
}

// SessionHandler handles canvas sessions and their render passes
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleRender(c echo.Context) error
	HandlePreview(c echo.Context) error
	HandleLayout(c echo.Context) error
	HandleDownload(c echo.Context) error
}

// ExportHandler handles background exports into file storage
type ExportHandler interface {
	HandleStartExport(c echo.Context) error
	HandleGetExport(c echo.Context) error
}

// FileHandler handles stored export files
type FileHandler interface {
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// GeocodeHandler resolves ZIP codes and addresses
type GeocodeHandler interface {
	HandleGeocode(c echo.Context) error
}

// HistoryHandler handles recent input lists
type HistoryHandler interface {
	HandleGetHistory(c echo.Context) error
	HandleRecordHistory(c echo.Context) error
	HandleClearHistory(c echo.Context) error
}

// SettingsHandler handles named form snapshots
type SettingsHandler interface {
	HandleListSettings(c echo.Context) error
	HandleGetSettings(c echo.Context) error
	HandleSaveSettings(c echo.Context) error
}

// RenderSocketHandler handles the WebSocket render channel
type RenderSocketHandler interface {
	HandleWebSocket(c echo.Context) error
}
