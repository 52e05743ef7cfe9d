package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the structure of the client config file
type Config struct {
	Server  ServerSection  `toml:"server"`
	UI      UISection      `toml:"ui"`
	Audio   AudioSection   `toml:"audio"`
	Paths   PathsSection   `toml:"paths"`
	Metrics MetricsSection `toml:"metrics"`
}

type ServerSection struct {
	APIURL                string `toml:"api_url"`
	WSURL                 string `toml:"ws_url"`
	Token                 string `toml:"token"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

type UISection struct {
	Notifications     bool   `toml:"notifications"`
	IdleNotifyMinutes int    `toml:"idle_notify_minutes"`
	TimeFormat        string `toml:"time_format"`
}

type AudioSection struct {
	RecordCommand string `toml:"record_command"`
	MimeType      string `toml:"mime_type"`
}

type PathsSection struct {
	StatePath string `toml:"state_path"`
	LogPath   string `toml:"log_path"`
}

type MetricsSection struct {
	ListenAddr string `toml:"listen_addr"`
}

// DefaultConfigPath is where the config lives unless -config says otherwise
const DefaultConfigPath = "~/.config/crewchat/config.toml"

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerSection{
			APIURL:                "http://localhost:8080",
			WSURL:                 "ws://localhost:8080/ws",
			RequestTimeoutSeconds: 30,
		},
		UI: UISection{
			Notifications:     true,
			IdleNotifyMinutes: 5,
			TimeFormat:        "15:04",
		},
		Audio: AudioSection{
			RecordCommand: "arecord -q -f cd -t wav -",
			MimeType:      "audio/wav",
		},
		Paths: PathsSection{
			StatePath: "~/.local/share/crewchat/state.db",
			LogPath:   "~/.local/share/crewchat/crewchat.log",
		},
	}
}

// RequestTimeout returns the API timeout as a duration
func (c Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// IdleNotifyAfter returns how long the user must be idle before active-room messages notify
func (c Config) IdleNotifyAfter() time.Duration {
	return time.Duration(c.UI.IdleNotifyMinutes) * time.Minute
}

// ExpandPath expands a leading ~/ to the home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process environment.
// A missing file is not an error. Variables already set are left alone.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from a TOML file, creates the default file if missing,
// and applies environment variable overrides
func LoadConfig(path string) (Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return Config{}, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultConfig()
		// Unwritable config dirs are not fatal; run on defaults
		_ = writeDefaultConfig(path)
		return applyEnvOverrides(config), nil
	}

	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnvOverrides(config), nil
}

// applyEnvOverrides applies CREWCHAT_SECTION_KEY environment variables
func applyEnvOverrides(config Config) Config {
	// Server section
	if val := os.Getenv("CREWCHAT_SERVER_API_URL"); val != "" {
		config.Server.APIURL = val
	}
	if val := os.Getenv("CREWCHAT_SERVER_WS_URL"); val != "" {
		config.Server.WSURL = val
	}
	if val := os.Getenv("CREWCHAT_SERVER_TOKEN"); val != "" {
		config.Server.Token = val
	}
	if val := os.Getenv("CREWCHAT_SERVER_REQUEST_TIMEOUT_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil {
			config.Server.RequestTimeoutSeconds = secs
		}
	}

	// UI section
	if val := os.Getenv("CREWCHAT_UI_NOTIFICATIONS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.UI.Notifications = enabled
		}
	}
	if val := os.Getenv("CREWCHAT_UI_IDLE_NOTIFY_MINUTES"); val != "" {
		if mins, err := strconv.Atoi(val); err == nil {
			config.UI.IdleNotifyMinutes = mins
		}
	}
	if val := os.Getenv("CREWCHAT_UI_TIME_FORMAT"); val != "" {
		config.UI.TimeFormat = val
	}

	// Audio section
	if val := os.Getenv("CREWCHAT_AUDIO_RECORD_COMMAND"); val != "" {
		config.Audio.RecordCommand = val
	}
	if val := os.Getenv("CREWCHAT_AUDIO_MIME_TYPE"); val != "" {
		config.Audio.MimeType = val
	}

	// Paths section
	if val := os.Getenv("CREWCHAT_PATHS_STATE_PATH"); val != "" {
		config.Paths.StatePath = val
	}
	if val := os.Getenv("CREWCHAT_PATHS_LOG_PATH"); val != "" {
		config.Paths.LogPath = val
	}

	// Metrics section
	if val := os.Getenv("CREWCHAT_METRICS_LISTEN_ADDR"); val != "" {
		config.Metrics.ListenAddr = val
	}

	return config
}

// writeDefaultConfig writes a commented default config file
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := `# crewchat configuration
# This file was auto-generated with default values.
#
# Environment variables override these settings:
# CREWCHAT_SECTION_KEY (e.g., CREWCHAT_SERVER_API_URL=https://ops.example.com)
# A .env file in the working directory is read first.

[server]
# Base URL of the chat REST API
api_url = "http://localhost:8080"

# Realtime change feed (leave empty to disable live updates)
ws_url = "ws://localhost:8080/ws"

# Bearer token issued by the dashboard login. Prefer CREWCHAT_SERVER_TOKEN.
# token = ""

# Timeout for API calls, including uploads
request_timeout_seconds = 30

[ui]
# Desktop notifications for messages in other rooms
notifications = true

# Also notify for the open room after this many idle minutes
idle_notify_minutes = 5

# Go time layout for message timestamps
time_format = "15:04"

[audio]
# Command that writes recorded audio to stdout until interrupted
record_command = "arecord -q -f cd -t wav -"
mime_type = "audio/wav"

[paths]
state_path = "~/.local/share/crewchat/state.db"
log_path = "~/.local/share/crewchat/crewchat.log"

[metrics]
# Serve Prometheus metrics on this address (e.g. "127.0.0.1:9091")
# listen_addr = ""
`

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
