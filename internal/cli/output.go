package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fatih/color"

	"github.com/samvad-hq/samvad-api-client/internal/storage"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

func statusPrinter(status int) *color.Color {
	switch {
	case status >= 500:
		return color.New(color.FgRed, color.Bold)
	case status >= 400:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

// writeStatus prints "<status> <text>  <METHOD> <url>  (<ms>ms)".
func writeStatus(w io.Writer, c httpclient.Capture) {
	status := statusPrinter(c.StatusCode).Sprintf("%d %s", c.StatusCode, http.StatusText(c.StatusCode))
	url := c.EffectiveURL
	if url == "" {
		url = c.URL
	}
	fmt.Fprintf(w, "%s  %s %s  (%dms)\n", status, c.Method, url, c.Elapsed.Milliseconds())
}

func outcomePrinter(outcome string) *color.Color {
	switch outcome {
	case storage.OutcomeOK:
		return color.New(color.FgGreen)
	case storage.OutcomeHTTPError:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func selectText(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}
