package config

import (
	"fmt"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	var err error
	if c.Engine.quietPeriod, err = parseDuration("engine.quiet_period", c.Engine.QuietPeriod, defaultQuietPeriod); err != nil {
		return err
	}
	if c.Engine.requestTimeout, err = parseDuration("engine.request_timeout", c.Engine.RequestTimeout, defaultRequestTimeout); err != nil {
		return err
	}
	if c.Resync.delay, err = parseDuration("resync.delay", c.Resync.Delay, defaultResyncDelay); err != nil {
		return err
	}
	if c.Endpoint.timeout, err = parseDuration("endpoint.timeout", c.Endpoint.Timeout, defaultEndpointTimeout); err != nil {
		return err
	}

	c.Endpoint.BaseURL = strings.TrimRight(strings.TrimSpace(c.Endpoint.BaseURL), "/")
	if c.Endpoint.BaseURL == "" {
		c.Endpoint.BaseURL = defaultEndpointURL
	}
	c.Endpoint.BatchPath = strings.TrimSpace(c.Endpoint.BatchPath)
	if c.Endpoint.BatchPath == "" {
		c.Endpoint.BatchPath = defaultBatchPath
	}
	if !strings.HasPrefix(c.Endpoint.BatchPath, "/") {
		c.Endpoint.BatchPath = "/" + c.Endpoint.BatchPath
	}
	c.Endpoint.Token = strings.TrimSpace(c.Endpoint.Token)

	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	c.Server.DBPath = strings.TrimSpace(c.Server.DBPath)
	if c.Server.DBPath == "" {
		c.Server.DBPath = defaultDBPath
	}
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	return nil
}

func parseDuration(field, value, fallback string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
