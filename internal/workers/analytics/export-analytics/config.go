// internal/workers/analytics/export-analytics/config.go
package exportanalytics

import "time"

type Config struct {
	OutputDir string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		OutputDir: "./exports",
		Timeout:   120 * time.Second,
	}
}
