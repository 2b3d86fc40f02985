// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "camera-ready/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadMB caps the total size of one multipart upload (default 50).
	MaxUploadMB int64 `json:"max_upload_mb" yaml:"max_upload_mb"`

	// SessionTTL is how long idle sessions are kept before sweeping
	// (default 2h).
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl"`

	// CleanupSchedule is the cron expression driving the session sweeper
	// (default "*/10 * * * *").
	CleanupSchedule string `json:"cleanup_schedule" yaml:"cleanup_schedule"`
}

// StorageConfig holds filesystem locations.
type StorageConfig struct {
	// WorkDir is the base directory for session files (contains sessions/).
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// HistoryDB is the SQLite database path for the run history.
	HistoryDB string `json:"history_db" yaml:"history_db"`

	// TemplatesDir holds custom template definitions, one YAML file each.
	TemplatesDir string `json:"templates_dir" yaml:"templates_dir"`
}

// RenderConfig holds rendering defaults applied when a session or CLI
// invocation does not override them.
type RenderConfig struct {
	// DefaultTemplate is the registry id used when none is selected.
	DefaultTemplate string `json:"default_template" yaml:"default_template"`

	// DefaultImageWidthPct is the figure width percentage for new sessions.
	DefaultImageWidthPct float64 `json:"default_image_width_pct" yaml:"default_image_width_pct"`
}

// ConvertConfig holds settings for DOCX-to-PDF conversion.
type ConvertConfig struct {
	HTTPConfig `yaml:",inline"`

	// Converter is the local converter binary ("soffice" or "libreoffice").
	// Empty means detect from PATH.
	Converter string `json:"converter" yaml:"converter"`

	// RemoteURL, when set, selects a remote conversion service instead of
	// a local binary. The DOCX is posted as multipart form data.
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`

	// CommandTimeout bounds one local conversion run (default 90s).
	CommandTimeout time.Duration `json:"command_timeout" yaml:"command_timeout"`
}

// Config groups all service configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Render  RenderConfig  `json:"render" yaml:"render"`
	Convert ConvertConfig `json:"convert" yaml:"convert"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadMB:     50,
			SessionTTL:      2 * time.Hour,
			CleanupSchedule: "*/10 * * * *",
		},
		Storage: StorageConfig{
			WorkDir:      "work",
			HistoryDB:    "work/history.db",
			TemplatesDir: "work/templates",
		},
		Render: RenderConfig{
			DefaultTemplate:      "springer_lncs",
			DefaultImageWidthPct: 80,
		},
		Convert: ConvertConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "camera-ready/0.1",
			},
			CommandTimeout: 90 * time.Second,
		},
	}
}
