package storage

import (
	"fmt"
	"strings"
	"time"
)

// Outcome labels stored with each capture.
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeError          = "error"
)

// Record is one persisted request/response exchange.
type Record struct {
	ID              string    `json:"id"`
	Endpoint        string    `json:"endpoint,omitempty"`
	Method          string    `json:"method"`
	URL             string    `json:"url"`
	EffectiveURL    string    `json:"effective_url,omitempty"`
	StatusCode      int       `json:"status_code"`
	Outcome         string    `json:"outcome"`
	FaultCode       int       `json:"fault_code,omitempty"`
	Fault           string    `json:"fault,omitempty"`
	RequestHeaders  string    `json:"request_headers"`
	Request         string    `json:"request"`
	ResponseHeaders string    `json:"response_headers"`
	Response        string    `json:"response"`
	ElapsedMs       int64     `json:"elapsed_ms"`
	CapturedAt      time.Time `json:"captured_at"`
}

// Store keeps a short history of captured exchanges.
type Store interface {
	Close() error
	// SaveCapture persists rec and returns its id. An empty rec.ID gets a
	// time ordered id assigned.
	SaveCapture(rec Record) (string, error)
	Capture(id string) (Record, bool, error)
	// Recent returns up to n unexpired records, newest first.
	Recent(n int) ([]Record, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRecordTTL       = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                         { return nil }
func (noopStore) SaveCapture(Record) (string, error)   { return "", nil }
func (noopStore) Capture(string) (Record, bool, error) { return Record{}, false, nil }
func (noopStore) Recent(int) ([]Record, error)         { return nil, nil }
