// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/starmap-generator/backend/internal/export"
	"github.com/starmap-generator/backend/internal/history"
	"github.com/starmap-generator/backend/internal/overlay"
	"github.com/starmap-generator/backend/internal/preset"
	"github.com/starmap-generator/backend/internal/provider"
	"github.com/starmap-generator/backend/internal/session"
	"github.com/starmap-generator/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store            storage.Store
	SessionMgr       *session.Manager
	ExportMgr        *export.Manager
	History          *history.Store
	Presets          *preset.Presets
	Fonts            *overlay.FontBook
	Geocoder         provider.Geocoder
	JPEGQuality      int
	WSMaxMessageSize int64
	Version          string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Presets  PresetHandler
	Session  SessionHandler
	Export   ExportHandler
	Files    FileHandler
	Geocode  GeocodeHandler
	History  HistoryHandler
	Settings SettingsHandler
	Socket   RenderSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.SessionMgr),
		Presets:  NewPresetHandler(deps.Presets, deps.Fonts),
		Session:  NewSessionHandler(deps.SessionMgr, deps.JPEGQuality),
		Export:   NewExportHandler(deps.SessionMgr, deps.ExportMgr),
		Files:    NewFileHandler(deps.Store),
		Geocode:  NewGeocodeHandler(deps.Geocoder, deps.History),
		History:  NewHistoryHandler(deps.History),
		Settings: NewSettingsHandler(deps.History),
		Socket:   NewWebSocketHandler(deps.SessionMgr, deps.WSMaxMessageSize),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check and form choices
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/presets", handlers.Presets.HandleGetPresets)

	// Canvas session routes
	sessionGroup := apiGroup.Group("/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("/:sessionId", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:sessionId", handlers.Session.HandleDeleteSession)
	sessionGroup.POST("/:sessionId/keepalive", handlers.Session.HandleSessionKeepAlive)
	sessionGroup.POST("/:sessionId/render/:view", handlers.Session.HandleRender)
	sessionGroup.GET("/:sessionId/preview", handlers.Session.HandlePreview)
	sessionGroup.GET("/:sessionId/layout", handlers.Session.HandleLayout)
	sessionGroup.GET("/:sessionId/download", handlers.Session.HandleDownload)
	sessionGroup.POST("/:sessionId/exports", handlers.Export.HandleStartExport)

	apiGroup.GET("/exports/:jobId", handlers.Export.HandleGetExport)

	// Stored export files
	fileGroup := apiGroup.Group("/files")
	fileGroup.GET("/recent", handlers.Files.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Files.HandleGetFile)
	fileGroup.GET("/:id/download", handlers.Files.HandleDownloadFile)
	fileGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)
	fileGroup.PUT("/:id", handlers.Files.HandleRenameFile)

	// Location lookup and remembered inputs
	apiGroup.POST("/geocode", handlers.Geocode.HandleGeocode)
	apiGroup.GET("/history/:kind", handlers.History.HandleGetHistory)
	apiGroup.POST("/history/:kind", handlers.History.HandleRecordHistory)
	apiGroup.DELETE("/history/:kind", handlers.History.HandleClearHistory)
	apiGroup.GET("/settings", handlers.Settings.HandleListSettings)
	apiGroup.GET("/settings/:name", handlers.Settings.HandleGetSettings)
	apiGroup.PUT("/settings/:name", handlers.Settings.HandleSaveSettings)

	RegisterWebSocketRoutes(e, handlers)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws", handlers.Socket.HandleWebSocket)
}

// MiddlewareOptions configures SetupMiddleware
type MiddlewareOptions struct {
	RequestLogging   bool
	EnableCORS       bool
	AllowOrigins     string
	Compression      bool
	CompressionLevel int
	BodyLimit        string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler
	e.JSONSerializer = NewSonicSerializer()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			apiLog.Error().Err(err).Bytes("stack", stack).Msg("panic recovered")
			return err
		},
	}))

	if opts.RequestLogging {
		reqLog := apiLog.With().Str("component", "http").Logger()
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogURI:      true,
			LogStatus:   true,
			LogMethod:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/api/ws" || strings.HasSuffix(path, "/keepalive")
			},
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				var ev *zerolog.Event
				if v.Error != nil || v.Status >= 500 {
					ev = reqLog.Warn().Err(v.Error)
				} else {
					ev = reqLog.Info()
				}
				ev.Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
				return nil
			},
		}))
	}

	if opts.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: opts.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				// Bitmaps are already compressed and the socket must not be wrapped.
				path := c.Request().URL.Path
				return path == "/api/ws" ||
					strings.HasSuffix(path, "/preview") ||
					strings.HasSuffix(path, "/download")
			},
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := strings.Split(opts.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{HeaderRenderGeneration, echo.HeaderContentDisposition},
		}))
	}
}
