package config

import "os"

// Environment variables that take precedence over the settings file.
const (
	EnvAPIKey  = "FIELDGEN_API_KEY"
	EnvModel   = "FIELDGEN_MODEL"
	EnvBaseURL = "FIELDGEN_BASE_URL"
)

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		s.APIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		s.Model = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		s.BaseURL = v
	}
}
