package endpoints

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write endpoints file: %v", err)
	}
	return file
}

func TestLoadEndpointsYAML(t *testing.T) {
	file := writeFile(t, "endpoints.yaml", `
endpoints:
  - id: " users "
    host: https://users.example.test/api
    channel: users
    encoding: windows-1251
    headers:
      - "Authorization: Bearer abc"
      - "  "
    timeout_seconds: 5
    follow_redirects: true
  - id: billing
    host: http://billing.example.test
`)

	reg, err := Load(file)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(reg.All()))
	}

	ep, ok := reg.ByID("users")
	if !ok {
		t.Fatalf("expected endpoint id users to be loaded")
	}
	if len(ep.Headers) != 1 || ep.Headers[0] != "Authorization: Bearer abc" {
		t.Fatalf("unexpected headers: %#v", ep.Headers)
	}
	if _, ok := reg.ByID("missing"); ok {
		t.Fatalf("unexpected endpoint for unknown id")
	}
}

func TestLoadEndpointsJSON(t *testing.T) {
	file := writeFile(t, "endpoints.json", `{"endpoints":[{"id":"a","host":"https://a.test"}]}`)
	reg, err := Load(file)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if ep, ok := reg.ByID("a"); !ok || ep.Host != "https://a.test" {
		t.Fatalf("unexpected endpoint: %+v %v", ep, ok)
	}
}

func TestLoadEndpointsValidation(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
endpoints:
  - id: dup
    host: https://one.test
  - id: dup
    host: https://two.test
`,
		"missing host": `
endpoints:
  - id: nohost
`,
		"bad scheme": `
endpoints:
  - id: ftp
    host: ftp://files.test
`,
		"empty": `endpoints: []`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "endpoints.yaml", content)); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestLoadEndpointsEmptyPath(t *testing.T) {
	if _, err := Load("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestClientConfigOverlay(t *testing.T) {
	follow := true
	failOff := false
	ep := Endpoint{
		ID:              "users",
		Host:            "https://users.test",
		Channel:         "users",
		TimeoutSeconds:  5,
		FollowRedirects: &follow,
		FailOnError:     &failOff,
	}
	base := httpclient.Config{
		Host:           "https://default.test",
		Channel:        "api",
		Encoding:       "UTF-8",
		ConnectTimeout: 60 * time.Second,
		Timeout:        30 * time.Second,
		FailOnError:    true,
	}

	cfg := ep.ClientConfig(base)
	if cfg.Host != "https://users.test" || cfg.Channel != "users" {
		t.Fatalf("host/channel not overlaid: %+v", cfg)
	}
	if cfg.Encoding != "UTF-8" || cfg.ConnectTimeout != 60*time.Second {
		t.Fatalf("unset fields should keep base values: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second || !cfg.FollowRedirects || cfg.FailOnError {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
