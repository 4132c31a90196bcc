package gateway

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/named-data/ndnplay/fetch"
	"github.com/named-data/ndnplay/std/engine"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/utils/toolutils"
)

// Config is the configuration of the gateway.
type Config struct {
	// HTTP listen address
	Listen string `json:"listen"`
	// NDN transport URI (unix, tcp, ws, wss or https)
	Transport string `json:"transport"`
	// Skip certificate verification of WebTransport servers
	Insecure bool `json:"insecure"`

	Fetch struct {
		// Maximum number of concurrent fetches
		Concurrency int `json:"concurrency"`
		// Congestion control algorithm: cubic, aimd or fixed
		Algorithm string `json:"algorithm"`
		// Initial congestion window
		InitialWindow int `json:"initial_window"`
		// Capacity of the expected segment count cache
		CountCacheSize int `json:"count_cache_size"`
	} `json:"fetch"`

	Store struct {
		// Payload store: none, memory or badger
		Type string `json:"type"`
		// Number of objects kept by the memory store
		Capacity int `json:"capacity"`
		// Directory of the badger store
		Path string `json:"path"`
	} `json:"store"`

	// Forwarding hints: name prefix -> comma separated delegations
	FwHints map[string]string `json:"fw_hints"`

	Log struct {
		// Logging level
		Level string `json:"level"`
		// Output format: text or json
		Format string `json:"format"`
	} `json:"log"`
}

func DefaultConfig() *Config {
	c := &Config{
		Listen:    ":8080",
		Transport: engine.GetClientConfig().TransportUri,
	}
	c.Fetch.Concurrency = fetch.DefaultConcurrency
	c.Fetch.Algorithm = "cubic"
	c.Fetch.InitialWindow = fetch.DefaultInitialWindow
	c.Fetch.CountCacheSize = fetch.DefaultCountCacheSize
	c.Store.Type = "none"
	c.Store.Capacity = 256
	c.Log.Level = "INFO"
	c.Log.Format = "text"
	return c
}

// LoadConfig reads a YAML file over the defaults, then applies the
// environment (and a .env file in the working directory if present).
func LoadConfig(file string) (*Config, error) {
	c := DefaultConfig()
	if file != "" {
		if err := toolutils.ReadYaml(c, file); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("NDNPLAY_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("NDN_CLIENT_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("NDNPLAY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NDNPLAY_STORE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("NDNPLAY_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: NDNPLAY_CONCURRENCY=%q", fetch.ErrConfig, v)
		}
		c.Fetch.Concurrency = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", fetch.ErrConfig)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive: %d", fetch.ErrConfig, c.Fetch.Concurrency)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", fetch.ErrConfig, err)
	}
	switch c.Store.Type {
	case "none", "":
	case "memory":
		if c.Store.Capacity < 1 {
			return fmt.Errorf("%w: store capacity must be positive: %d", fetch.ErrConfig, c.Store.Capacity)
		}
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: badger store needs a path", fetch.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store type %q", fetch.ErrConfig, c.Store.Type)
	}
	return nil
}

// FetchConfig returns the fetcher configuration.
func (c *Config) FetchConfig() fetch.Config {
	return fetch.Config{
		Concurrency:    c.Fetch.Concurrency,
		Algorithm:      c.Fetch.Algorithm,
		InitialWindow:  c.Fetch.InitialWindow,
		CountCacheSize: c.Fetch.CountCacheSize,
	}
}
