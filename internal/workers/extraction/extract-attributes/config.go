// internal/workers/extraction/extract-attributes/config.go
package extractattributes

import "time"

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}
