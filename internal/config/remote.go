package config

import (
	"fmt"
	"strings"
	"time"
)

// RemoteConfig holds configuration for the hosting-service listing client
// and the outbound chat notifier.
type RemoteConfig struct {
	// BaseURL is the hosting-service API root.
	BaseURL string
	// Token is the bearer token for the hosting-service API.
	Token string
	// NotifierURL is the chat-service webhook endpoint for reminders.
	NotifierURL string
	// RequestTimeout bounds a single outbound HTTP request.
	RequestTimeout time.Duration
}

// LoadRemoteConfigFromEnv loads remote configuration from environment variables.
func LoadRemoteConfigFromEnv() RemoteConfig {
	return RemoteConfig{
		BaseURL:        GetEnv("REMOTE_BASE_URL", "https://api.github.com"),
		Token:          GetEnv("REMOTE_TOKEN", ""),
		NotifierURL:    GetEnv("NOTIFIER_URL", ""),
		RequestTimeout: GetEnvDuration("REMOTE_REQUEST_TIMEOUT", 30*time.Second),
	}
}

// Validate validates remote configuration.
func (c RemoteConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("REMOTE_BASE_URL must not be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("REMOTE_BASE_URL must be an http(s) URL")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("RequestTimeout must be greater than 0")
	}
	return nil
}
