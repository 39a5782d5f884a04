package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:                     "8390",
		Env:                      "development",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		BackendAPIURL:            "http://localhost:8400",
		BackendAPIToken:          "token",
		ReconcileIntervalSeconds: 60,
		AutosaveIntervalSeconds:  30,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"missing backend url", func(c *Config) { c.BackendAPIURL = "" }, true},
		{"non-positive reconcile interval", func(c *Config) { c.ReconcileIntervalSeconds = 0 }, true},
		{"production with default jwt secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production with short jwt secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production without backend token", func(c *Config) {
			c.Env = "production"
			c.BackendAPIToken = ""
		}, true},
		{"valid production config", func(c *Config) { c.Env = "production" }, false},
		{"short secret allowed in development", func(c *Config) { c.JWTSecret = "short" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Intervals(t *testing.T) {
	c := validConfig()
	assert.Equal(t, time.Minute, c.ReconcileInterval())
	assert.Equal(t, 30*time.Second, c.AutosaveInterval())
}
