package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// maxErrorBody bounds how much of a rejected webhook response ends up in the error.
const maxErrorBody = 512

// httpPublisher posts capture events as JSON to a webhook.
type httpPublisher struct {
	id     string
	target HTTPPublisherConfig
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeaders(cfg.HTTP.Headers).
		SetHeader("Content-Type", "application/json")

	return &httpPublisher{id: cfg.ID, target: *cfg.HTTP, client: client, log: ensureLogger(log)}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().SetContext(ctx).SetBody(evt).Execute(h.target.Method, h.target.URL)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", h.target.URL, err)
	}
	if !resp.IsError() {
		return nil
	}

	h.log.WarnObj("webhook rejected capture event", "publisher_http_error", map[string]any{
		"publisher_id": h.id,
		"capture_id":   evt.CaptureID,
		"status":       resp.StatusCode(),
	})
	body := resp.Body()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("webhook %s answered %d: %s", h.target.URL, resp.StatusCode(), strings.TrimSpace(string(body)))
}

// Close drops idle keep-alive connections.
func (h *httpPublisher) Close() error {
	h.client.GetClient().CloseIdleConnections()
	return nil
}
