package voice

import (
	"fmt"
	"net/url"
	"time"
)

// Backend selects the realtime transport variant.
type Backend string

const (
	// BackendOpenAI authenticates with an ephemeral bearer token carried in
	// the WebSocket subprotocol list.
	BackendOpenAI Backend = "openai"
	// BackendAzure authenticates with an API key passed as a query
	// parameter.
	BackendAzure Backend = "azure"
)

const (
	defaultOpenAIURL        = "wss://api.openai.com/v1/realtime"
	defaultModel            = "gpt-4o-realtime-preview"
	defaultVoice            = "alloy"
	DefaultHandshakeTimeout = 10 * time.Second
)

// Config describes one realtime connection.
type Config struct {
	Backend          Backend
	URL              string
	APIKey           string
	Model            string
	Voice            string
	Instructions     string
	HandshakeTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Backend == "" {
		out.Backend = BackendOpenAI
	}
	if out.URL == "" && out.Backend == BackendOpenAI {
		out.URL = defaultOpenAIURL
	}
	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.Voice == "" {
		out.Voice = defaultVoice
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return out
}

// dialTarget resolves the WebSocket URL and subprotocols for the configured
// backend variant.
func dialTarget(cfg Config) (string, []string, error) {
	if cfg.URL == "" {
		return "", nil, fmt.Errorf("voice: %s backend requires a URL", cfg.Backend)
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", nil, fmt.Errorf("voice: parse url: %w", err)
	}
	q := u.Query()

	switch cfg.Backend {
	case BackendOpenAI:
		q.Set("model", cfg.Model)
		u.RawQuery = q.Encode()
		protocols := []string{
			"realtime",
			"openai-insecure-api-key." + cfg.APIKey,
			"openai-beta.realtime-v1",
		}
		return u.String(), protocols, nil

	case BackendAzure:
		q.Set("deployment", cfg.Model)
		q.Set("api-key", cfg.APIKey)
		u.RawQuery = q.Encode()
		return u.String(), nil, nil

	default:
		return "", nil, fmt.Errorf("voice: unknown backend %q", cfg.Backend)
	}
}

// NewClientFromConfig builds a transport client for the configured backend.
// This is the factory entry point the server wires at startup.
func NewClientFromConfig(cfg Config, sink AudioSink, source AudioSource, opts ...ClientOption) (*Client, error) {
	resolved := cfg.withDefaults()
	if _, _, err := dialTarget(resolved); err != nil {
		return nil, err
	}
	return NewClient(resolved, sink, source, opts...), nil
}
