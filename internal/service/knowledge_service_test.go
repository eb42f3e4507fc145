package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKnowledgeJSON = `{
  "topics": {
    "photosynthesis": {
      "name": "Photosynthesis",
      "malay_name": "Fotosintesis",
      "concepts": [
        {"term": "Chlorophyll", "definition": "The green pigment that absorbs light."},
        {"term": "Limiting factor", "definition": "A condition that limits the reaction rate."}
      ]
    },
    "electricity": {
      "name": "Electricity",
      "malay_name": "Elektrik",
      "concepts": [
        {"term": "Ohm's law", "definition": "Current is proportional to potential difference."}
      ]
    }
  }
}`

func writeKnowledgeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge_base.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write knowledge file: %v", err)
	}
	return path
}

func TestKnowledgeServiceLoadsTopics(t *testing.T) {
	svc := NewKnowledgeService(writeKnowledgeFile(t, testKnowledgeJSON))

	topics := svc.Topics()
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	names := map[string]string{}
	for _, topic := range topics {
		names[topic.ID] = topic.Name
	}
	if names["photosynthesis"] != "Photosynthesis" {
		t.Fatalf("unexpected topics: %v", names)
	}
}

func TestKnowledgeServiceRelevantContext(t *testing.T) {
	svc := NewKnowledgeService(writeKnowledgeFile(t, testKnowledgeJSON))

	ctx := svc.RelevantContext("How does chlorophyll capture light during photosynthesis?")
	if !strings.Contains(ctx, "Topic: Photosynthesis") {
		t.Fatalf("expected photosynthesis context, got: %q", ctx)
	}
	if !strings.Contains(ctx, "Chlorophyll") {
		t.Fatalf("expected concept definitions, got: %q", ctx)
	}
	if strings.Contains(ctx, "Ohm") {
		t.Fatalf("unrelated topic leaked into context: %q", ctx)
	}

	if ctx := svc.RelevantContext("Tell me a story"); ctx != "" {
		t.Fatalf("expected no context for unrelated question, got: %q", ctx)
	}
}

func TestKnowledgeServiceToleratesMissingFile(t *testing.T) {
	svc := NewKnowledgeService(filepath.Join(t.TempDir(), "missing.json"))
	if len(svc.Topics()) != 0 {
		t.Fatal("expected empty knowledge base for missing file")
	}
	if ctx := svc.RelevantContext("photosynthesis"); ctx != "" {
		t.Fatalf("expected empty context, got %q", ctx)
	}
}

func TestKnowledgeServiceToleratesCorruptFile(t *testing.T) {
	svc := NewKnowledgeService(writeKnowledgeFile(t, "{broken"))
	if len(svc.Topics()) != 0 {
		t.Fatal("expected empty knowledge base for corrupt file")
	}
}
