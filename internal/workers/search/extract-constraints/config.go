// internal/workers/search/extract-constraints/config.go
package extractconstraints

import "time"

// Extraction is pure; the timeout only bounds the job round trip.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
