package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// Defaults used when no config file exists or a key is missing.
const (
	DefaultBackendURL     = "http://localhost:8000"
	DefaultServerAddress  = "localhost:12100"
	DefaultStreamFPS      = 10
	DefaultStreamQuality  = 80
	DefaultReconnectDelay = 2 * time.Second
)

// Config holds all tunables for the inspector gateway.
type Config struct {
	// BackendURL is the base URL of the inspector backend service.
	BackendURL string

	// ServerAddress is the listen address for the JSON-RPC gateway.
	ServerAddress string

	// EnableCORS allows cross-origin requests to the gateway.
	EnableCORS bool

	// StreamFPS and StreamQuality are advertised to the backend stream
	// endpoint as query parameters. Advisory: the backend may ignore them.
	StreamFPS     int
	StreamQuality int

	// ReconnectDelay is the fixed backoff between stream reconnect attempts.
	ReconnectDelay time.Duration
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		BackendURL:     DefaultBackendURL,
		ServerAddress:  DefaultServerAddress,
		StreamFPS:      DefaultStreamFPS,
		StreamQuality:  DefaultStreamQuality,
		ReconnectDelay: DefaultReconnectDelay,
	}
}

// DefaultPath returns the default config file location (~/.ui-inspector.ini).
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".ui-inspector.ini")
}

// Load reads the ini file at path, falling back to defaults for missing keys.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	backendSection := file.Section("backend")
	cfg.BackendURL = backendSection.Key("url").MustString(cfg.BackendURL)

	streamSection := file.Section("stream")
	cfg.StreamFPS = streamSection.Key("fps").MustInt(cfg.StreamFPS)
	cfg.StreamQuality = streamSection.Key("quality").MustInt(cfg.StreamQuality)
	if delay := streamSection.Key("reconnect_delay").MustString(""); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return cfg, fmt.Errorf("invalid reconnect_delay %q: %w", delay, err)
		}
		cfg.ReconnectDelay = d
	}

	serverSection := file.Section("server")
	cfg.ServerAddress = serverSection.Key("listen").MustString(cfg.ServerAddress)
	cfg.EnableCORS = serverSection.Key("cors").MustBool(cfg.EnableCORS)

	return cfg, nil
}
