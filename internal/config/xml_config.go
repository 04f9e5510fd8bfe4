// Package config provides XML-based configuration stored next to the executable.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"StarMapGenerator"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Render pipeline configuration
	Render RenderConfig `xml:"Render"`

	// External imagery and geocoding
	Providers ProvidersConfig `xml:"Providers"`

	// Response processing
	Processing ProcessingConfig `xml:"Processing"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file locations. Paths other than DataDirectory
// are relative to DataDirectory unless absolute.
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	ExportsDirectory string `xml:"ExportsDirectory"`
	HistoryDatabase  string `xml:"HistoryDatabase"`
	FontsDirectory   string `xml:"FontsDirectory"`
	PresetsFile      string `xml:"PresetsFile"`
}

// RenderConfig contains render pipeline and session settings
type RenderConfig struct {
	FetchTimeoutSeconds    int   `xml:"FetchTimeoutSeconds"`
	JPEGQuality            int   `xml:"JPEGQuality"`
	MaxCanvasPixels        int64 `xml:"MaxCanvasPixels"`
	MaxSessions            int   `xml:"MaxSessions"`
	SessionTimeoutMinutes  int   `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int   `xml:"CleanupIntervalMinutes"`
	ExportRetentionHours   int   `xml:"ExportRetentionHours"`
}

// ProvidersConfig selects the star map, street map and geocoder backends
type ProvidersConfig struct {
	StarMapURL          string `xml:"StarMapURL"`
	StarMapStyle        string `xml:"StarMapStyle"`
	UseSyntheticStarMap bool   `xml:"UseSyntheticStarMap"`
	TileProvider        string `xml:"TileProvider"`
	StreetZoom          int    `xml:"StreetZoom"`
	UserAgent           string `xml:"UserAgent"`
	GeocoderURL         string `xml:"GeocoderURL"`
}

// ProcessingConfig contains response processing settings
type ProcessingConfig struct {
	EnableCompression bool `xml:"EnableCompression"`
	CompressionLevel  int  `xml:"CompressionLevel"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	ConsoleLog              bool   `xml:"ConsoleLog"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	HistoryMaxEntries       int    `xml:"HistoryMaxEntries"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "10M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			ExportsDirectory: "exports",
			HistoryDatabase:  "history.duckdb",
			FontsDirectory:   "fonts",
			PresetsFile:      "presets.yaml",
		},
		Render: RenderConfig{
			FetchTimeoutSeconds:    10,
			JPEGQuality:            90,
			MaxCanvasPixels:        100_000_000,
			MaxSessions:            50,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			ExportRetentionHours:   24,
		},
		Providers: ProvidersConfig{
			StarMapURL:          "",
			StarMapStyle:        "default",
			UseSyntheticStarMap: true,
			TileProvider:        "carto-light",
			StreetZoom:          14,
			UserAgent:           "StarMapGenerator/1.0",
			GeocoderURL:         "https://nominatim.openstreetmap.org",
		},
		Processing: ProcessingConfig{
			EnableCompression: true,
			CompressionLevel:  5,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			ConsoleLog:              true,
			EnableRequestLogging:    true,
			HistoryMaxEntries:       10,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file, writing the defaults on
// first run.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Star Map Generator Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if url := os.Getenv("STARMAP_PROVIDER_URL"); url != "" {
		c.Providers.StarMapURL = url
		c.Providers.UseSyntheticStarMap = false
	}

	if url := os.Getenv("GEOCODER_URL"); url != "" {
		c.Providers.GeocoderURL = url
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	under := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Storage.DataDirectory, p)
	}
	c.Storage.ExportsDirectory = under(c.Storage.ExportsDirectory)
	c.Storage.HistoryDatabase = under(c.Storage.HistoryDatabase)
	c.Storage.FontsDirectory = under(c.Storage.FontsDirectory)
	c.Storage.PresetsFile = under(c.Storage.PresetsFile)
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// FetchTimeout returns the imagery wait bound.
func (c *AppConfig) FetchTimeout() time.Duration {
	return time.Duration(c.Render.FetchTimeoutSeconds) * time.Second
}

// SessionTimeout returns how long an idle canvas session is kept.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Render.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns the period of the cleanup ticker.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Render.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Render.CleanupIntervalMinutes) * time.Minute
}

// ExportRetention returns how long exported files are kept.
func (c *AppConfig) ExportRetention() time.Duration {
	return time.Duration(c.Render.ExportRetentionHours) * time.Hour
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.ExportsDirectory,
		c.Storage.FontsDirectory,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
