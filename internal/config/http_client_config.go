package config

import (
	"time"

	"github.com/aleister1102/firefoxversions/internal/httpclient"
)

// HTTPClientConfig defines configuration for the upstream HTTP client
type HTTPClientConfig struct {
	TimeoutSecs        int               `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1"`
	UserAgent          string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Proxy              string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	FollowRedirects    bool              `json:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects       int               `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"min=0"`
	MaxContentSizeKB   int               `json:"max_content_size_kb,omitempty" yaml:"max_content_size_kb,omitempty" validate:"min=0"`
	CustomHeaders      map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
}

// NewDefaultHTTPClientConfig creates default HTTP client configuration
func NewDefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		TimeoutSecs:      DefaultHTTPTimeoutSecs,
		UserAgent:        httpclient.DefaultUserAgent,
		FollowRedirects:  DefaultHTTPFollowRedirects,
		MaxRedirects:     DefaultHTTPMaxRedirects,
		MaxContentSizeKB: DefaultHTTPMaxContentSizeKB,
		CustomHeaders:    map[string]string{},
	}
}

// ToClientConfig converts the file section into an httpclient configuration
func (c HTTPClientConfig) ToClientConfig() httpclient.HTTPClientConfig {
	cfg := httpclient.DefaultHTTPClientConfig()
	cfg.Timeout = time.Duration(c.TimeoutSecs) * time.Second
	cfg.InsecureSkipVerify = c.InsecureSkipVerify
	cfg.FollowRedirects = c.FollowRedirects
	cfg.MaxRedirects = c.MaxRedirects
	cfg.MaxContentSize = c.MaxContentSizeKB * 1024
	cfg.Proxy = c.Proxy
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	for k, v := range c.CustomHeaders {
		cfg.CustomHeaders[k] = v
	}
	return cfg
}
