// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
)

// ErrNoConfigVersion error is returned when the configuration does not specify
// config format version.
var ErrNoConfigVersion = errors.New("config format version not specified")

// ErrUnsupportedVersion is an error, which is returned when the config file
// uses an incompatible version format.
var ErrUnsupportedVersion = errors.New("unsupported config format version")

// ErrNoConnectionStringKey is an error, which is returned when the storage
// configuration does not name the connection string to use.
var ErrNoConnectionStringKey = errors.New("no connection string key specified")

// ErrInvalidNaming is an error, which is returned when the serialization
// settings refer to an unknown naming policy.
var ErrInvalidNaming = errors.New("invalid naming policy")

// ConfigFormatVersion represents the supported config format version.
const ConfigFormatVersion = "v1alpha1"

// Default names used when the configuration does not provide them.
const (
	DefaultConnectionStringKey = "sdaf"
	DefaultLandscapesTable     = "Landscapes"
	DefaultExportsContainer    = "landscape-exports"
)

// Config represents the landscapes configuration.
type Config struct {
	// Version is the version of the config file.
	Version string `yaml:"version"`

	// Debug configures debug mode, if set to true.
	Debug bool `yaml:"debug"`

	// Logging provides the logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Storage provides the table and blob storage configuration.
	Storage StorageConfig `yaml:"storage"`

	// Serialization configures how landscapes are rendered into records.
	Serialization SerializationConfig `yaml:"serialization"`

	// Metrics provides the metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig provides the logging specific configuration settings.
type LoggingConfig struct {
	// Format specifies the log format. One of text, json or console.
	Format string `yaml:"format"`

	// Level specifies the log level.
	Level string `yaml:"level"`

	// AddSource adds the source location to log events, if set.
	AddSource bool `yaml:"add_source"`

	// Attributes are added to every log event.
	Attributes map[string]string `yaml:"attributes"`
}

// StorageConfig provides storage specific configuration settings.
type StorageConfig struct {
	// ConnectionStringKey names the entry in ConnectionStrings, which
	// provides the storage endpoint.
	ConnectionStringKey string `yaml:"connection_string_key"`

	// ConnectionStrings maps keys to storage endpoints.
	ConnectionStrings map[string]string `yaml:"connection_strings"`

	// LandscapesTable is the name of the table holding landscape records.
	LandscapesTable string `yaml:"landscapes_table"`

	// ExportsContainer is the name of the blob container holding exported
	// landscapes.
	ExportsContainer string `yaml:"exports_container"`

	// CacheClients enables caching of resolved storage clients.
	CacheClients bool `yaml:"cache_clients"`
}

// ConnectionString returns the connection string registered under the given
// key, and a boolean indicating whether it was found.
func (s StorageConfig) ConnectionString(key string) (string, bool) {
	val, ok := s.ConnectionStrings[key]

	return val, ok
}

// SerializationConfig provides the settings for rendering landscape payloads.
type SerializationConfig struct {
	// Naming specifies the naming policy for object keys.
	Naming models.Naming `yaml:"naming"`

	// OmitNull drops null members from the payload, if set.
	OmitNull bool `yaml:"omit_null"`

	// Indent pretty-prints the payload with the given indent.
	Indent string `yaml:"indent"`
}

// MetricsConfig provides the metrics specific configuration settings.
type MetricsConfig struct {
	// TextFile is the path of a file to which metrics are written on exit
	// in the Prometheus text format.
	TextFile string `yaml:"text_file"`
}

// Parse parses the config from the given path.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseBytes(data)
}

// ParseBytes parses the config from the given data, applies defaults and
// validates the result.
func ParseBytes(data []byte) (*Config, error) {
	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}

	if conf.Version == "" {
		return nil, ErrNoConfigVersion
	}

	if conf.Version != ConfigFormatVersion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, conf.Version)
	}

	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

// SetDefaults fills in the settings, which were not specified.
func (c *Config) SetDefaults() {
	if c.Storage.ConnectionStringKey == "" {
		c.Storage.ConnectionStringKey = DefaultConnectionStringKey
	}
	if c.Storage.LandscapesTable == "" {
		c.Storage.LandscapesTable = DefaultLandscapesTable
	}
	if c.Storage.ExportsContainer == "" {
		c.Storage.ExportsContainer = DefaultExportsContainer
	}
	if c.Storage.ConnectionStrings == nil {
		c.Storage.ConnectionStrings = make(map[string]string)
	}
	if c.Serialization.Naming == "" {
		c.Serialization.Naming = models.NamingDefault
	}
}

// Validate validates the configuration settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.ConnectionStringKey) == "" {
		return ErrNoConnectionStringKey
	}

	switch c.Serialization.Naming {
	case models.NamingDefault, models.NamingCamelCase:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidNaming, c.Serialization.Naming)
	}

	return nil
}
