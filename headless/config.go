package headless

import "time"

const (
	DefaultMaxRetry   = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultTimeout    = 10 * time.Second
)

type Config struct {
	Endpoint string

	// Number of retries after the first attempt.
	MaxRetry   int
	RetryDelay time.Duration
	// Per attempt.
	Timeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxRetry < 0 {
		cfg.MaxRetry = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:   endpoint,
		MaxRetry:   DefaultMaxRetry,
		RetryDelay: DefaultRetryDelay,
		Timeout:    DefaultTimeout,
	}
}
