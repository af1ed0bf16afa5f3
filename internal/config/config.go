//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the dataapi service configuration from TOML files
// and DATAAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder/openai"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder/selfhosted"
	"trpc.group/trpc-go/trpc-agent-dataapi/tool/dataapi"
)

const (
	// TransportStdio serves MCP over stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP = "http"

	// ProviderSelfHosted selects the self-hosted embeddings server.
	ProviderSelfHosted = "selfhosted"
	// ProviderOpenAI selects the OpenAI embeddings API.
	ProviderOpenAI = "openai"

	// MaxBatchSize is the largest accepted embeddings.batch_size.
	MaxBatchSize = 2048
	// NoTimeout disables the embeddings request timeout.
	NoTimeout = -1
)

// Config represents the application configuration.
type Config struct {
	Logging     LoggingConfig     `toml:"logging"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Server      ServerConfig      `toml:"server"`
	Credentials CredentialsConfig `toml:"credentials"`
	DataAPI     DataAPIConfig     `toml:"data_api"`
	Embeddings  EmbeddingsConfig  `toml:"embeddings"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// TelemetryConfig contains OTLP exporter settings. Nothing is exported
// unless Traces or Metrics is set.
type TelemetryConfig struct {
	Endpoint    string `toml:"endpoint"`
	Protocol    string `toml:"protocol"`
	ServiceName string `toml:"service_name"`
	Traces      bool   `toml:"traces"`
	Metrics     bool   `toml:"metrics"`
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	Transport string `toml:"transport"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	// Tools restricts the exposed tools by name. Empty exposes all.
	Tools []string `toml:"tools"`
}

// Addr returns host:port for the HTTP transport.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CredentialsConfig holds secrets, kept apart from behavior settings.
type CredentialsConfig struct {
	DataAPI    DataAPICredentials    `toml:"data_api"`
	Embeddings EmbeddingsCredentials `toml:"embeddings"`
}

// DataAPICredentials holds the data API token.
type DataAPICredentials struct {
	Token string `toml:"token"`
}

// EmbeddingsCredentials holds the embeddings key and an optional server URL.
type EmbeddingsCredentials struct {
	APIKey string `toml:"api_key"`
	URL    string `toml:"url"`
}

// DataAPIConfig contains the data API endpoint and the tool definitions.
type DataAPIConfig struct {
	Endpoint  string       `toml:"endpoint"`
	TimeoutMS int          `toml:"timeout_ms"`
	Tools     []ToolConfig `toml:"tools"`
}

// ToolConfig describes one data tool.
type ToolConfig struct {
	Name            string                      `toml:"name"`
	APIName         string                      `toml:"api_name"`
	DescriptionMode dataapi.DescriptionMode     `toml:"description_mode"`
	Description     string                      `toml:"description"`
	Template        dataapi.DescriptionTemplate `toml:"template"`
	Fields          []dataapi.FieldDescriptor   `toml:"fields"`
	ResponseFields  []string                    `toml:"response_fields"`
	TimeoutMS       int                         `toml:"timeout_ms"`
}

// EmbeddingsConfig contains embedder settings.
type EmbeddingsConfig struct {
	Provider       string `toml:"provider"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	StripNewLines  bool   `toml:"strip_new_lines"`
	Dimensions     int    `toml:"dimensions"`
	BatchSize      int    `toml:"batch_size"`
	Concurrency    int    `toml:"concurrency"`
}

// NewDefaultConfig returns a Config with defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "dataapi",
		},
		Server: ServerConfig{
			Name:      "dataapi",
			Version:   "0.1.0",
			Transport: TransportStdio,
			Host:      "localhost",
			Port:      8080,
		},
		DataAPI: DataAPIConfig{
			Endpoint:  dataapi.DefaultEndpoint,
			TimeoutMS: int(dataapi.DefaultTimeout / time.Millisecond),
		},
		Embeddings: EmbeddingsConfig{
			Provider:       ProviderSelfHosted,
			TimeoutSeconds: NoTimeout,
			StripNewLines:  true,
			BatchSize:      512,
			Concurrency:    1,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()
	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}
	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies DATAAPI_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString("DATAAPI_LOG_LEVEL", &config.Logging.Level)
	setString("DATAAPI_SERVER_TRANSPORT", &config.Server.Transport)
	setString("DATAAPI_SERVER_HOST", &config.Server.Host)
	setInt("DATAAPI_SERVER_PORT", &config.Server.Port)
	setString("DATAAPI_OTLP_ENDPOINT", &config.Telemetry.Endpoint)
	setString("DATAAPI_TOKEN", &config.Credentials.DataAPI.Token)
	setString("DATAAPI_ENDPOINT", &config.DataAPI.Endpoint)
	setString("DATAAPI_EMBEDDINGS_API_KEY", &config.Credentials.Embeddings.APIKey)
	setString("DATAAPI_EMBEDDINGS_URL", &config.Credentials.Embeddings.URL)
	setString("DATAAPI_EMBEDDINGS_MODEL", &config.Embeddings.Model)
	setInt("DATAAPI_EMBEDDINGS_BATCH_SIZE", &config.Embeddings.BatchSize)
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, transport string, port int) {
	if transport != "" {
		config.Server.Transport = transport
	}
	if port > 0 {
		config.Server.Port = port
	}
}

// Validate reports every configuration error found.
func (c *Config) Validate() error {
	var errs []error
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("server.transport: unsupported transport %q", c.Server.Transport))
	}
	if c.Server.Transport == TransportHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.DataAPI.TimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("data_api.timeout_ms: must be positive, got %d", c.DataAPI.TimeoutMS))
	}
	seen := make(map[string]struct{}, len(c.DataAPI.Tools))
	for i, t := range c.DataAPI.Tools {
		name := dataapi.NormalizeToolName(t.Name)
		if err := dataapi.ValidateToolName(name); err != nil {
			errs = append(errs, fmt.Errorf("data_api.tools[%d].name %q: %w", i, t.Name, err))
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("data_api.tools[%d].name %q: duplicate", i, t.Name))
		}
		seen[name] = struct{}{}
		switch t.DescriptionMode {
		case "", dataapi.DescriptionModeTemplate, dataapi.DescriptionModeCustom:
		default:
			errs = append(errs, fmt.Errorf("data_api.tools[%d].description_mode: unsupported mode %q", i, t.DescriptionMode))
		}
		if t.TimeoutMS < 0 {
			errs = append(errs, fmt.Errorf("data_api.tools[%d].timeout_ms: must not be negative", i))
		}
	}
	switch c.Embeddings.Provider {
	case ProviderSelfHosted, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("embeddings.provider: unsupported provider %q", c.Embeddings.Provider))
	}
	if c.Embeddings.BatchSize < 1 || c.Embeddings.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("embeddings.batch_size: must be in [1, %d], got %d", MaxBatchSize, c.Embeddings.BatchSize))
	}
	if c.Embeddings.TimeoutSeconds < NoTimeout {
		errs = append(errs, fmt.Errorf("embeddings.timeout_seconds: must be -1 or non-negative, got %d", c.Embeddings.TimeoutSeconds))
	}
	if c.Embeddings.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embeddings.dimensions: must not be negative"))
	}
	return errors.Join(errs...)
}

// EmbeddingsBaseURL resolves the embeddings server URL:
// embeddings.base_url, then credentials.embeddings.url, then the default.
func (c *Config) EmbeddingsBaseURL() string {
	switch {
	case c.Embeddings.BaseURL != "":
		return c.Embeddings.BaseURL
	case c.Credentials.Embeddings.URL != "":
		return c.Credentials.Embeddings.URL
	default:
		return selfhosted.DefaultBaseURL
	}
}

// EmbeddingsModel returns embeddings.model, or the default model of the
// selected provider when it is unset.
func (c *Config) EmbeddingsModel() string {
	if c.Embeddings.Model != "" {
		return c.Embeddings.Model
	}
	if c.Embeddings.Provider == ProviderOpenAI {
		return openai.DefaultModel
	}
	return selfhosted.DefaultModel
}

// EmbeddingsTimeout converts timeout_seconds. -1 and 0 mean no timeout.
func (c *Config) EmbeddingsTimeout() time.Duration {
	if c.Embeddings.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Embeddings.TimeoutSeconds) * time.Second
}

// DataAPITimeout returns the shared data API request timeout.
func (c *Config) DataAPITimeout() time.Duration {
	return time.Duration(c.DataAPI.TimeoutMS) * time.Millisecond
}

// Definitions converts the configured tools into data API definitions.
func (c *Config) Definitions() []dataapi.Definition {
	defs := make([]dataapi.Definition, 0, len(c.DataAPI.Tools))
	for _, t := range c.DataAPI.Tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Definition converts one tool config. The name is normalized, the
// description resolved, and TOML date/time defaults rendered as strings.
func (t ToolConfig) Definition() dataapi.Definition {
	fields := make([]dataapi.FieldDescriptor, len(t.Fields))
	for i, f := range t.Fields {
		f.Default = normalizeDefault(f.Default)
		fields[i] = f
	}
	tmpl := t.Template
	tmpl.InputFields = fields
	mode := t.DescriptionMode
	if mode == "" {
		mode = dataapi.DescriptionModeTemplate
		if t.Description != "" {
			mode = dataapi.DescriptionModeCustom
		}
	}
	def := dataapi.Definition{
		Name:           dataapi.NormalizeToolName(t.Name),
		APIName:        strings.TrimSpace(t.APIName),
		Description:    dataapi.ResolveDescription(mode, tmpl, t.Description),
		Fields:         fields,
		ResponseFields: t.ResponseFields,
	}
	if t.TimeoutMS > 0 {
		def.Timeout = time.Duration(t.TimeoutMS) * time.Millisecond
	}
	return def
}

func normalizeDefault(v any) any {
	switch d := v.(type) {
	case toml.LocalDate:
		return d.String()
	case toml.LocalDateTime:
		return d.String()
	case toml.LocalTime:
		return d.String()
	case time.Time:
		return d.Format(time.DateOnly)
	default:
		return v
	}
}
