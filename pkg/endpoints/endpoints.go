package endpoints

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-api-client/internal/registryfile"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// Endpoint is a named API target with per-endpoint client overrides.
type Endpoint struct {
	ID                      string   `json:"id" yaml:"id"`
	Host                    string   `json:"host" yaml:"host"`
	Channel                 string   `json:"channel" yaml:"channel"`
	Encoding                string   `json:"encoding" yaml:"encoding"`
	Headers                 []string `json:"headers" yaml:"headers"`
	ConnectTimeoutSeconds   int      `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
	TimeoutSeconds          int      `json:"timeout_seconds" yaml:"timeout_seconds"`
	FollowRedirects         *bool    `json:"follow_redirects" yaml:"follow_redirects"`
	FailOnError             *bool    `json:"fail_on_error" yaml:"fail_on_error"`
	ResponseLoggingDisabled *bool    `json:"response_logging_disabled" yaml:"response_logging_disabled"`
}

type registryFile struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Registry holds the endpoints loaded from one file.
type Registry struct {
	list []Endpoint
	idx  map[string]Endpoint
}

// All returns a copy of the loaded endpoints in file order.
func (r *Registry) All() []Endpoint {
	if r == nil || len(r.list) == 0 {
		return nil
	}
	out := make([]Endpoint, len(r.list))
	copy(out, r.list)
	return out
}

// ByID returns the endpoint entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Endpoint, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Endpoint{}, false
	}
	ep, ok := r.idx[id]
	return ep, ok
}

// Load reads an endpoint registry from a YAML or JSON file.
func Load(path string) (*Registry, error) {
	file, err := registryfile.Load[registryFile](path, "endpoints")
	if err != nil {
		return nil, err
	}
	return build(file)
}

// Parse decodes registry data. An empty ext tries every known format.
func Parse(data []byte, ext string) (*Registry, error) {
	file, err := registryfile.Decode[registryFile](data, ext, "endpoints")
	if err != nil {
		return nil, err
	}
	return build(file)
}

func build(file registryFile) (*Registry, error) {
	if len(file.Endpoints) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	reg := &Registry{idx: make(map[string]Endpoint, len(file.Endpoints))}
	for i, raw := range file.Endpoints {
		ep := sanitizeEndpoint(raw)
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoint[%d]: %w", i, err)
		}
		if _, exists := reg.idx[ep.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		reg.list = append(reg.list, ep)
		reg.idx[ep.ID] = ep
	}
	return reg, nil
}

func sanitizeEndpoint(ep Endpoint) Endpoint {
	ep.ID = strings.TrimSpace(ep.ID)
	ep.Host = strings.TrimSpace(ep.Host)
	ep.Channel = strings.TrimSpace(ep.Channel)
	ep.Encoding = strings.TrimSpace(ep.Encoding)

	headers := make([]string, 0, len(ep.Headers))
	for _, h := range ep.Headers {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}
	ep.Headers = headers

	if ep.ConnectTimeoutSeconds < 0 {
		ep.ConnectTimeoutSeconds = 0
	}
	if ep.TimeoutSeconds < 0 {
		ep.TimeoutSeconds = 0
	}
	return ep
}

func validateEndpoint(ep Endpoint) error {
	if ep.ID == "" {
		return errors.New("id is required")
	}
	if ep.Host == "" {
		return fmt.Errorf("host is required for endpoint %q", ep.ID)
	}
	u, err := url.Parse(ep.Host)
	if err != nil {
		return fmt.Errorf("host for endpoint %q: %w", ep.ID, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("host for endpoint %q must be an http or https URL", ep.ID)
	}
	if u.Host == "" {
		return fmt.Errorf("host for endpoint %q has no authority", ep.ID)
	}
	return nil
}

// ClientConfig overlays the endpoint settings onto base. Zero values in the
// endpoint leave the base untouched.
func (ep Endpoint) ClientConfig(base httpclient.Config) httpclient.Config {
	cfg := base
	cfg.Host = ep.Host
	if ep.Channel != "" {
		cfg.Channel = ep.Channel
	}
	if ep.Encoding != "" {
		cfg.Encoding = ep.Encoding
	}
	if ep.ConnectTimeoutSeconds > 0 {
		cfg.ConnectTimeout = time.Duration(ep.ConnectTimeoutSeconds) * time.Second
	}
	if ep.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(ep.TimeoutSeconds) * time.Second
	}
	if ep.FollowRedirects != nil {
		cfg.FollowRedirects = *ep.FollowRedirects
	}
	if ep.FailOnError != nil {
		cfg.FailOnError = *ep.FailOnError
	}
	if ep.ResponseLoggingDisabled != nil {
		cfg.ResponseLoggingDisabled = *ep.ResponseLoggingDisabled
	}
	return cfg
}
