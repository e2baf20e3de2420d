package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if c.Resync.delay < 0 {
		return errors.New("resync.delay must not be negative")
	}
	if err := c.validateEndpoint(); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.quietPeriod <= 0 {
		return errors.New("engine.quiet_period must be positive")
	}
	if c.Engine.requestTimeout <= 0 {
		return errors.New("engine.request_timeout must be positive")
	}
	if c.Engine.MaxPending < 0 {
		return errors.New("engine.max_pending must not be negative")
	}
	return nil
}

func (c *Config) validateEndpoint() error {
	u, err := url.Parse(c.Endpoint.BaseURL)
	if err != nil {
		return fmt.Errorf("endpoint.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint.base_url must be http or https, got %q", c.Endpoint.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint.base_url has no host: %q", c.Endpoint.BaseURL)
	}
	if c.Endpoint.timeout <= 0 {
		return errors.New("endpoint.timeout must be positive")
	}
	return nil
}
