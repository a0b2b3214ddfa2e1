package httpclient

import (
	"fmt"
	"time"
)

const channelKey = "channel"

// diagnostics formats request, response and error summaries for the sink.
type diagnostics struct {
	log     Logger
	channel string
}

func (d diagnostics) transportError(headers string, res Result) {
	text := res.Error
	if text == "" {
		text = res.Code.String()
	}
	d.log.ErrorObj(fmt.Sprintf("HTTP-Error:\n\n%s\n\n%s:%d", headers, text, int(res.Code)), channelKey, d.channel)
}

func (d diagnostics) request(headers, body string) {
	d.log.InfoObj(fmt.Sprintf("HTTP-Request:\n\n%s\n\n%s\n", headers, body), channelKey, d.channel)
	if f, ok := d.log.(Flusher); ok {
		if err := f.Flush(); err != nil {
			d.log.WarnObj("diagnostic flush failed", "error", err.Error())
		}
	}
}

// response logs the raw response re-encoded to UTF-8 when label names another
// charset. Re-encoding failures are logged and the raw bytes are used instead.
func (d diagnostics) response(raw []byte, label string, elapsed time.Duration) {
	readable := raw
	if out, err := toUTF8(raw, label); err != nil {
		d.log.WarnObj("response re-encoding failed", "recode_error", map[string]any{
			"channel":  d.channel,
			"encoding": label,
			"error":    err.Error(),
		})
	} else {
		readable = out
	}
	d.log.InfoObj(fmt.Sprintf("HTTP-Response [%s]:\n\n%s", formatElapsed(elapsed), readable), channelKey, d.channel)
}

// formatElapsed renders a duration as seconds with four decimals.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.4f", d.Seconds())
}
