package config

import (
	"net/url"
	"time"

	"github.com/eventpass/companion-sdk/pkg/cmd/properties"
)

// ProxyConfig - Interface for the companion proxy config
type ProxyConfig interface {
	GetBaseURL() string
	GetTimeout() time.Duration
	GetSessionToken() string
	Validate() error
}

// ProxyConfiguration -
type ProxyConfiguration struct {
	BaseURL      string        `config:"baseURL"`
	Timeout      time.Duration `config:"timeout"`
	SessionToken string        `config:"sessionToken"`
}

// NewProxyConfig - create a proxy config with default values
func NewProxyConfig() *ProxyConfiguration {
	return &ProxyConfiguration{
		Timeout: 60 * time.Second,
	}
}

// GetBaseURL - Returns the proxy base URL
func (c *ProxyConfiguration) GetBaseURL() string {
	return c.BaseURL
}

// GetTimeout - Returns the request timeout
func (c *ProxyConfiguration) GetTimeout() time.Duration {
	return c.Timeout
}

// GetSessionToken - Returns the session token from the login flow
func (c *ProxyConfiguration) GetSessionToken() string {
	return c.SessionToken
}

// Validate - checks the proxy config values
func (c *ProxyConfiguration) Validate() error {
	if c.BaseURL == "" {
		return ErrBadConfig.FormatError("proxy.baseURL")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return ErrBadConfig.FormatError("proxy.baseURL")
	}
	if c.Timeout <= 0 {
		return ErrBadConfig.FormatError("proxy.timeout")
	}
	return nil
}

const (
	pathBaseURL      = "proxy.baseURL"
	pathTimeout      = "proxy.timeout"
	pathSessionToken = "proxy.sessionToken"
)

// AddProxyConfigProperties - Adds the command properties needed for Proxy Config
func AddProxyConfigProperties(props properties.Properties) {
	defaults := NewProxyConfig()
	props.AddStringProperty(pathBaseURL, defaults.BaseURL, "Base URL of the companion backend proxy")
	props.AddDurationProperty(pathTimeout, defaults.Timeout, "Timeout for proxy requests")
	props.AddStringProperty(pathSessionToken, defaults.SessionToken, "Session token established by the login flow")
}

// ParseProxyConfig - Parses the Proxy Config values from the command line
func ParseProxyConfig(props properties.Properties) (ProxyConfig, error) {
	cfg := &ProxyConfiguration{
		BaseURL:      props.StringPropertyValue(pathBaseURL),
		Timeout:      props.DurationPropertyValue(pathTimeout),
		SessionToken: props.StringPropertyValue(pathSessionToken),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
