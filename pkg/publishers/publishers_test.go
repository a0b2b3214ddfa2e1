package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	cfg, ok := reg.ByID("http2")
	if !ok || cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("expected http defaults applied, got %#v", cfg.HTTP)
	}
}

func TestLoadRegistryCloudSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: queue
    type: SQS
    sqs:
      uri: " https://sqs.eu-west-1.amazonaws.com/1/captures "
      region: eu-west-1
      endpoint: http://localhost:4566
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-west-1:1:captures
      region: eu-west-1
  - id: pubsub
    type: gcp_pubsub
    gcp_pubsub:
      project_id: proj
      topic: captures
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	queue, _ := reg.ByID("queue")
	if queue.Type != TypeSQS || queue.SQS.QueueURL != "https://sqs.eu-west-1.amazonaws.com/1/captures" {
		t.Fatalf("unexpected sqs config: %#v", queue)
	}
	if queue.SQS.Region != "eu-west-1" || queue.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("inline aws settings not decoded: %#v", queue.SQS.AWSConfig)
	}
	if topic, _ := reg.ByID("topic"); topic.SNS.TopicARN == "" {
		t.Fatalf("sns topic not decoded")
	}
	if ps, _ := reg.ByID("pubsub"); ps.PubSub.ProjectID != "proj" {
		t.Fatalf("pubsub config not decoded")
	}
}

func TestValidatePublisherConfigRejectsMissingBlocks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "h1", Type: TypeHTTP},
		{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "arn"}},
		{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{}},
		{ID: "g1", Type: TypeGCPPubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		{Type: TypeHTTP},
		{ID: "k1", Type: "kafka"},
	}
	for _, cfg := range cases {
		if err := cfg.validate(); err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[
  {"id":"a","type":"http","http":{"url":"https://example.com"}},
  {"id":" a ","type":"http","http":{"url":"https://example.com/2"}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
