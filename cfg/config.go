// Package cfg loads and validates voxrelay's configuration file, laid out as
// the same named sections pysiriproxy's pysiriproxy.cfg used (General,
// Server, iPhone, Logging, Responses, Debug), expressed as YAML instead of
// INI.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type (
	// General holds top-level daemon settings.
	General struct {
		ExitOnConnectionLost bool   `yaml:"exit_on_connection_lost"`
		PluginsDir           string `yaml:"plugins_dir"`
	}

	// Server describes the upstream (cloud) endpoint voxrelay dials out to
	// once it has accepted a client connection.
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	}

	// IPhone describes the client-facing listener.
	IPhone struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		CertFile string `yaml:"cert_file"`
		KeyFile  string `yaml:"key_file"`
	}

	// Logging mirrors the Logging section of pysiriproxy.cfg.
	Logging struct {
		LogFile    string `yaml:"log_file"`
		LogDir     string `yaml:"log_dir"`
		DebugLevel int    `yaml:"debug_level"`
		Timestamp  bool   `yaml:"timestamp"`
	}

	// Responses carries canned fallback strings. Error is spoken when a
	// speech rule panics and no rule claims the utterance; MaxAttempts is
	// loaded from the file, but no package reads it.
	Responses struct {
		Error       string `yaml:"error"`
		MaxAttempts string `yaml:"max_attempts"`
	}

	// Debug is loaded from the file, but no package reads Enabled; the
	// build-tagged cmn/debug package is switched only by its build tag.
	Debug struct {
		Enabled bool `yaml:"enabled"`
	}

	// Metrics has no pysiriproxy.cfg counterpart; it configures the two
	// HTTP listeners the ambient observability stack adds on top of the
	// original's bare TCP/TLS proxy (Prometheus scraping and the status
	// page).
	Metrics struct {
		Addr       string `yaml:"addr"`
		StatusAddr string `yaml:"status_addr"`
	}

	Config struct {
		General   General   `yaml:"general"`
		Server    Server    `yaml:"server"`
		IPhone    IPhone    `yaml:"iphone"`
		Logging   Logging   `yaml:"logging"`
		Responses Responses `yaml:"responses"`
		Debug     Debug     `yaml:"debug"`
		Metrics   Metrics   `yaml:"metrics"`
	}
)

// Default returns the configuration pysiriproxy shipped out of the box:
// forward to Apple's production Siri endpoint on 443, listen on 443
// locally, no plugins directory, INFO-level logging to stderr.
func Default() *Config {
	return &Config{
		General: General{ExitOnConnectionLost: false},
		Server:  Server{Host: "guzzoni.apple.com", Port: 443},
		IPhone:  IPhone{Host: "0.0.0.0", Port: 443},
		Logging: Logging{DebugLevel: 0, Timestamp: true},
		Responses: Responses{
			Error:       "Sorry, something went wrong.",
			MaxAttempts: "Sorry, I didn't understand that. Let's try something else.",
		},
		Metrics: Metrics{Addr: "127.0.0.1:9090", StatusAddr: "127.0.0.1:9091"},
	}
}

// Load reads and validates a YAML configuration file, starting from
// Default() so a sparse file only needs to override what it cares about.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if c.IPhone.Port <= 0 || c.IPhone.Port > 65535 {
		return fmt.Errorf("iphone.port %d out of range", c.IPhone.Port)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// ErrorResponse satisfies dispatch.ErrorResponder: the Error string is the
// canned utterance spoken when a speech rule panics and no rule claims the
// utterance.
func (r Responses) ErrorResponse() string { return r.Error }
