// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-tracker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GeminiConfig holds settings for the generative text service.
type GeminiConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the Gemini model identifier (default "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the Gemini API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature controls sampling randomness (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxOutputTokens caps the response length (default 1024).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`

	// MaxRetries is the total number of call attempts (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CrossrefConfig holds settings for bibliographic metadata resolution.
type CrossrefConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent inside the User-Agent header for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8787").
	Addr string `json:"addr" yaml:"addr"`

	// LogLevel selects the minimum log level: debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogFormat selects the log output format: json or text.
	LogFormat string `json:"log_format" yaml:"log_format"`
}
