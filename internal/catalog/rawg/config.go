package rawg

import "time"

// Config controls how the client reaches the RAWG API.
type Config struct {
	BaseURL string
	APIKey  string

	// Timeout bounds a whole upstream call, including reading the body.
	Timeout time.Duration

	UserAgent string
}

// DefaultConfig returns settings for the public RAWG API. APIKey is left empty.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://api.rawg.io/api",
		Timeout:   10 * time.Second,
		UserAgent: "GameLog/1.0",
	}
}
