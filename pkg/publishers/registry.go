package publishers

import (
	"context"
	"fmt"
	"strings"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps a publisher type to its builder. Keys are lower case.
type Registry map[string]Builder

// NewRegistry copies builders into a Registry, dropping blank types and nil builders.
func NewRegistry(builders map[string]Builder) Registry {
	reg := make(Registry, len(builders))
	for typ, b := range builders {
		if typ = strings.ToLower(strings.TrimSpace(typ)); typ != "" && b != nil {
			reg[typ] = b
		}
	}
	return reg
}

// DefaultRegistry knows every sink this package ships.
func DefaultRegistry() Registry {
	return Registry{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	}
}

// Build constructs the publisher for one config entry.
func (r Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	build, ok := r[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, cfg.Type)
	}
	return build(ctx, cfg, log)
}

// BuildAll builds every config in order. On failure the publishers built so
// far are closed and only the error is returned.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			_ = NewFanout(pubs).Close()
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
