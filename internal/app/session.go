package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/samvad-hq/samvad-api-client/internal/storage"
	"github.com/samvad-hq/samvad-api-client/pkg/endpoints"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-api-client/pkg/publishers"
)

// SessionOptions selects the target of a Session. Host and Headers are
// applied on top of the named endpoint, if any.
type SessionOptions struct {
	EndpointID string
	Host       string
	Headers    []string
	// Transport replaces the default resty engine.
	Transport httpclient.Transport
	// Store and Publishers replace the configured backends when set.
	Store      storage.Store
	Publishers []publishers.Publisher
}

// Session binds one API client to the capture history and export sinks.
// Every call made through Do is persisted and exported whatever its outcome.
type Session struct {
	endpointID string
	client     *httpclient.Client
	store      storage.Store
	fanout     *publishers.Fanout
	log        logger.Logger
}

type sugarProvider interface {
	Sugar() *zap.SugaredLogger
}

// NewSession wires config, endpoint profile, client, store and publishers.
func NewSession(ctx context.Context, cfg *config.Config, log logger.Logger, opts SessionOptions) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	clientCfg := httpclient.Config{
		Host:                    cfg.APIHost,
		ConnectTimeout:          cfg.ConnectTimeout,
		Timeout:                 cfg.Timeout,
		FollowRedirects:         cfg.FollowRedirects,
		Verbose:                 cfg.Verbose,
		FailOnError:             cfg.FailOnError,
		Encoding:                cfg.APIEncoding,
		Channel:                 cfg.APIChannel,
		ResponseLoggingDisabled: cfg.ResponseLoggingDisabled,
	}

	var headers []string
	endpointID := strings.TrimSpace(opts.EndpointID)
	if endpointID != "" {
		reg, err := endpoints.Load(cfg.EndpointsFile)
		if err != nil {
			return nil, fmt.Errorf("load endpoints registry: %w", err)
		}
		ep, ok := reg.ByID(endpointID)
		if !ok {
			return nil, fmt.Errorf("unknown endpoint %q", endpointID)
		}
		clientCfg = ep.ClientConfig(clientCfg)
		headers = append(headers, ep.Headers...)
	}
	if host := strings.TrimSpace(opts.Host); host != "" {
		clientCfg.Host = host
	}
	if clientCfg.Host == "" {
		return nil, fmt.Errorf("no api host configured (set api_host, --host or --endpoint)")
	}
	headers = append(headers, opts.Headers...)

	transport := opts.Transport
	if transport == nil {
		var restyOpts []httpclient.RestyOption
		if sp, ok := log.(sugarProvider); ok && clientCfg.Verbose {
			restyOpts = append(restyOpts, httpclient.WithDebugLogger(sp.Sugar()))
		}
		transport = httpclient.NewRestyTransport(restyOpts...)
	}

	// Client diagnostics are emitted from a helper inside Exec.
	var diagLog httpclient.Logger = log
	if zl, ok := log.(*logger.ZapLogger); ok {
		diagLog = zl.WithCallerSkip(1)
	}

	client, err := httpclient.New(clientCfg, httpclient.WithTransport(transport), httpclient.WithLogger(diagLog))
	if err != nil {
		return nil, fmt.Errorf("build client: %w", err)
	}
	for _, h := range headers {
		client.AddHeader(h)
	}

	store := opts.Store
	if store == nil {
		store, err = storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			RecordTTL:       cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}

	pubs := opts.Publishers
	if pubs == nil && strings.TrimSpace(cfg.PublishersFile) != "" {
		pubs, err = buildPublishers(ctx, cfg.PublishersFile, log)
		if err != nil {
			client.Close()
			store.Close()
			return nil, err
		}
	}

	s := &Session{
		endpointID: endpointID,
		client:     client,
		store:      store,
		fanout:     publishers.NewFanout(pubs),
		log:        log,
	}
	log.DebugObj("session ready", "session_meta", map[string]any{
		"endpoint":   endpointID,
		"host":       client.Host(),
		"storage":    cfg.StorageType,
		"publishers": s.fanout.Size(),
	})
	return s, nil
}

func buildPublishers(ctx context.Context, path string, log logger.Logger) ([]publishers.Publisher, error) {
	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	return pubs, nil
}

// Client exposes the underlying client for accessors and header management.
func (s *Session) Client() *httpclient.Client { return s.client }

// Do runs one exchange, records it, exports it and returns the client
// together with the call's error unchanged. Persistence and export failures
// are logged, never returned.
func (s *Session) Do(ctx context.Context, method, path string, data httpclient.Payload, build bool, mode httpclient.BuildMode) (*httpclient.Client, error) {
	client, callErr := s.client.Exec(ctx, path, method, data, build, mode)

	rec := newRecord(s.endpointID, client.Result(), callErr)
	id, err := s.store.SaveCapture(rec)
	if err != nil {
		s.log.ErrorObj("capture persist failed", "error", err)
	}
	rec.ID = id

	if s.fanout.Size() > 0 {
		if _, err := s.fanout.Publish(ctx, newEvent(rec)); err != nil {
			s.log.WarnObj("capture export failed", "error", err)
		}
	}
	return client, callErr
}

// History returns up to n recent captures, newest first.
func (s *Session) History(n int) ([]storage.Record, error) {
	return s.store.Recent(n)
}

// Close releases the client, the store and publisher connections.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.client.Close(), s.store.Close(), s.fanout.Close())
}

func newRecord(endpointID string, c httpclient.Capture, callErr error) storage.Record {
	rec := storage.Record{
		Endpoint:        endpointID,
		Method:          c.Method,
		URL:             c.URL,
		EffectiveURL:    c.EffectiveURL,
		StatusCode:      c.StatusCode,
		Outcome:         storage.OutcomeOK,
		RequestHeaders:  c.RequestHeaders,
		Request:         c.Request,
		ResponseHeaders: c.ResponseHeaders,
		Response:        c.Response,
		ElapsedMs:       c.Elapsed.Milliseconds(),
		CapturedAt:      time.Now().UTC(),
	}

	var (
		transportFault *httpclient.TransportFault
		httpFault      *httpclient.HTTPFault
	)
	switch {
	case callErr == nil:
	case errors.As(callErr, &transportFault):
		rec.Outcome = storage.OutcomeTransportError
		rec.FaultCode = int(transportFault.Code)
		rec.Fault = transportFault.Message
	case errors.As(callErr, &httpFault):
		rec.Outcome = storage.OutcomeHTTPError
		rec.Fault = httpFault.Error()
	default:
		rec.Outcome = storage.OutcomeError
		rec.Fault = callErr.Error()
	}
	return rec
}

func newEvent(rec storage.Record) publishers.Event {
	return publishers.Event{
		CaptureID:       rec.ID,
		Endpoint:        rec.Endpoint,
		Method:          rec.Method,
		URL:             rec.URL,
		StatusCode:      rec.StatusCode,
		ElapsedMs:       rec.ElapsedMs,
		Outcome:         rec.Outcome,
		FaultCode:       rec.FaultCode,
		Fault:           rec.Fault,
		RequestHeaders:  rec.RequestHeaders,
		Request:         rec.Request,
		ResponseHeaders: rec.ResponseHeaders,
		Response:        rec.Response,
		CapturedAt:      rec.CapturedAt,
	}
}
