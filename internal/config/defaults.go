package config

const (
	defaultQuietPeriod     = "300ms"
	defaultRequestTimeout  = "15s"
	defaultResyncDelay     = "50ms"
	defaultEndpointURL     = "http://127.0.0.1:8080"
	defaultBatchPath       = "/api/inventory/batch"
	defaultEndpointTimeout = "15s"
	defaultServerAddr      = "127.0.0.1:8080"
	defaultDBPath          = "batchsim.db"
	defaultMaxBodyBytes    = 1 << 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine: Engine{
			QuietPeriod:    defaultQuietPeriod,
			RequestTimeout: defaultRequestTimeout,
		},
		Resync: Resync{
			Delay: defaultResyncDelay,
		},
		Endpoint: Endpoint{
			BaseURL:   defaultEndpointURL,
			BatchPath: defaultBatchPath,
			Timeout:   defaultEndpointTimeout,
		},
		Server: Server{
			Addr:         defaultServerAddr,
			DBPath:       defaultDBPath,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
	}
}
