package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/starmap-generator/backend/internal/api"
	"github.com/starmap-generator/backend/internal/config"
	"github.com/starmap-generator/backend/internal/export"
	"github.com/starmap-generator/backend/internal/history"
	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/overlay"
	"github.com/starmap-generator/backend/internal/preset"
	"github.com/starmap-generator/backend/internal/provider"
	"github.com/starmap-generator/backend/internal/render"
	"github.com/starmap-generator/backend/internal/session"
	"github.com/starmap-generator/backend/internal/storage"
	"github.com/starmap-generator/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "StarMapGenerator.exe.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Advanced.LogLevel, cfg.Advanced.ConsoleLog, os.Stderr)

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("failed to create directories")
	}

	embeddedMode := web.HasEmbeddedFiles()

	// Presets and fonts
	presets, err := preset.Load(cfg.Storage.PresetsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.PresetsFile).Msg("failed to load presets")
	}
	if _, statErr := os.Stat(cfg.Storage.PresetsFile); errors.Is(statErr, os.ErrNotExist) {
		if err := presets.Save(cfg.Storage.PresetsFile); err != nil {
			log.Warn().Err(err).Msg("failed to write default presets file")
		}
	}

	fonts, err := overlay.NewFontBook()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load built-in fonts")
	}
	if n, err := fonts.LoadDir(cfg.Storage.FontsDirectory); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Storage.FontsDirectory).Msg("failed to load some fonts")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("loaded fonts")
	}

	// Imagery providers
	var stars provider.StarMapProvider
	if cfg.Providers.UseSyntheticStarMap || cfg.Providers.StarMapURL == "" {
		stars = provider.NewSyntheticStarMap()
	} else {
		stars = provider.NewHTTPStarMap(cfg.Providers.StarMapURL, cfg.Providers.UserAgent)
	}

	var streets provider.StreetMapProvider
	if sm, err := provider.NewStaticStreetMap(cfg.Providers.TileProvider, cfg.Providers.UserAgent); err != nil {
		log.Warn().Err(err).Msg("street map disabled")
	} else {
		streets = sm
	}

	var geocoder provider.Geocoder
	if cfg.Providers.GeocoderURL != "" {
		geocoder = provider.NewHTTPGeocoder(cfg.Providers.GeocoderURL, cfg.Providers.UserAgent)
	}

	pipeline := render.NewPipeline(stars, streets, fonts, render.Options{
		FetchTimeout: cfg.FetchTimeout(),
		MaxPixels:    cfg.Render.MaxCanvasPixels,
		Palette:      presets.CompositorPalette(),
		PaperSizes:   presets.PaperSizes,
		DefaultStyle: presets.TextStyle,
		StarStyle:    cfg.Providers.StarMapStyle,
		StreetZoom:   cfg.Providers.StreetZoom,
	})

	// Sessions, storage and exports
	sessionMgr := session.NewManager(pipeline, cfg.Render.MaxSessions)

	fileStore, err := storage.NewLocalStore(cfg.Storage.ExportsDirectory)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	exportMgr := export.NewManager(fileStore, cfg.Render.JPEGQuality)

	histStore, err := history.Open(cfg.Storage.HistoryDatabase, cfg.Advanced.HistoryMaxEntries)
	if err != nil {
		log.Warn().Err(err).Msg("input history disabled")
		histStore = nil
	} else {
		defer histStore.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					log.Debug().Int("count", n).Msg("removed idle sessions")
				}
				if retention := cfg.ExportRetention(); retention > 0 {
					exportMgr.CleanupOldJobs(retention)
					if n := fileStore.CleanupOlderThan(retention); n > 0 {
						log.Debug().Int("count", n).Msg("removed expired exports")
					}
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.ShowErrorDetails = cfg.Advanced.LogLevel == "debug"
	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		EnableCORS:       cfg.Server.EnableCORS,
		AllowOrigins:     cfg.Server.AllowOrigins,
		Compression:      cfg.Processing.EnableCompression,
		CompressionLevel: cfg.Processing.CompressionLevel,
		BodyLimit:        cfg.Server.BodyLimit,
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:            fileStore,
		SessionMgr:       sessionMgr,
		ExportMgr:        exportMgr,
		History:          histStore,
		Presets:          presets,
		Fonts:            fonts,
		Geocoder:         geocoder,
		JPEGQuality:      cfg.Render.JPEGQuality,
		WSMaxMessageSize: int64(cfg.Advanced.WebSocketMaxMessageSize) * 1024,
		Version:          Version,
	}))

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warn().Err(err).Msg("failed to register static routes")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	starSource := "synthetic"
	if _, ok := stars.(*provider.HTTPStarMap); ok {
		starSource = cfg.Providers.StarMapURL
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Star Map Generator Server                       ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Star Map:   %-45s║\n", starSource)
	fmt.Printf("║  Tiles:      %-45s║\n", cfg.Providers.TileProvider)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	exportMgr.Wait()
}
