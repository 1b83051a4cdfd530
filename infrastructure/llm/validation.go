package llm

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// defaultTimeout applies when a client config does not set one.
	defaultTimeout = 120 * time.Second

	// maxTimeout caps user-supplied timeouts to keep a stuck request from
	// stalling a whole benchmark run.
	maxTimeout = 10 * time.Minute
)

// ValidateBaseURL checks that a provider base URL is a well-formed HTTP(S)
// URL with a host. An empty URL is valid and means "use the provider default".
func ValidateBaseURL(baseURL string) error {
	if baseURL == "" {
		return nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL %q must include a host", baseURL)
	}
	return nil
}

// NormalizeTimeout clamps a configured timeout into a usable range,
// substituting the default when unset or negative.
func NormalizeTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	if timeout > maxTimeout {
		return maxTimeout
	}
	return timeout
}
