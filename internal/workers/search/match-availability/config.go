// internal/workers/search/match-availability/config.go
package matchavailability

import "time"

type Config struct {
	Timeout       time.Duration
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxCandidates: 1000,
	}
}
