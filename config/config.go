// Package config loads the node's own identity and network location from
// a config file, environment variables, or both, via
// github.com/spf13/viper. Node itself never reads configuration directly:
// this package produces one immutable Config value that the caller passes
// down.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/user/geomesh/model"
)

// Config mirrors the fields original_source/src/config.hpp's
// EzParserConfig populates: node identity, network contact, GPS location,
// and the local database path.
type Config struct {
	NodeId    string  `mapstructure:"node_id"`
	Address   string  `mapstructure:"address"`
	Port      uint16  `mapstructure:"port"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	DbPath    string  `mapstructure:"db_path"`
}

// ValidationError reports a missing or malformed configuration field,
// surfaced before bootstrap.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: field %q: %s", e.Field, e.Reason)
}

// Load reads configuration from path (any format viper supports: YAML,
// JSON, TOML, ...), overlaying environment variables prefixed GEOMESH_,
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("GEOMESH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every field required to bootstrap a Node is present
// and well-formed.
func (c *Config) Validate() error {
	if c.NodeId == "" {
		return ValidationError{Field: "node_id", Reason: "must not be empty"}
	}
	if c.Address == "" {
		return ValidationError{Field: "address", Reason: "must not be empty"}
	}
	if c.Port == 0 {
		return ValidationError{Field: "port", Reason: "must be nonzero"}
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return ValidationError{Field: "latitude", Reason: "must be within [-90, 90]"}
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return ValidationError{Field: "longitude", Reason: "must be within [-180, 180]"}
	}
	if c.DbPath == "" {
		return ValidationError{Field: "db_path", Reason: "must not be empty"}
	}
	return nil
}

// SelfNodeInfo builds the NodeInfo this config describes, addressable at
// Address:Port over IPv4.
func (c *Config) SelfNodeInfo() model.NodeInfo {
	return model.NodeInfo{
		Profile: model.NodeProfile{
			Id: model.NodeId(c.NodeId),
			Contact: model.NetworkContact{
				IPv4Address: c.Address,
				IPv4Port:    c.Port,
			},
		},
		Location: model.GpsLocation{Latitude: c.Latitude, Longitude: c.Longitude},
	}
}

// ListenAddr returns the host:port string to bind the transport server to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
