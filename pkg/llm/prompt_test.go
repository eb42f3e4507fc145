package llm

import (
	"strings"
	"testing"
)

func TestIsMalayQuestion(t *testing.T) {
	if !isMalayQuestion("Apakah fungsi mitokondria?") {
		t.Fatal("expected Malay question to be detected")
	}
	if !isMalayQuestion("Terangkan proses fotosintesis") {
		t.Fatal("expected Malay question to be detected")
	}
	if isMalayQuestion("What is the function of mitochondria?") {
		t.Fatal("did not expect English question to be flagged as Malay")
	}
}

func TestBuildUserPromptLanguageDirective(t *testing.T) {
	prompt := buildUserPrompt("Apakah itu osmosis?", "")
	if !strings.Contains(prompt, "Respond in Bahasa Malaysia") {
		t.Fatalf("expected Malay directive, got: %q", prompt)
	}

	prompt = buildUserPrompt("What is osmosis?", "")
	if !strings.Contains(prompt, "Respond in English") {
		t.Fatalf("expected English directive, got: %q", prompt)
	}
}

func TestBuildUserPromptIncludesContext(t *testing.T) {
	prompt := buildUserPrompt("What is osmosis?", "Topic: Transport\n- Osmosis: movement of water.")
	if !strings.Contains(prompt, "Relevant information:") {
		t.Fatalf("expected knowledge context section, got: %q", prompt)
	}
	if !strings.Contains(prompt, "Student's question: What is osmosis?") {
		t.Fatalf("expected the question at the end, got: %q", prompt)
	}
}

func TestComposeMessagesOrder(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
	}
	messages := composeMessages("q2", "", history)
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" {
		t.Fatalf("expected system message first, got %q", messages[0].Role)
	}
	if messages[1].Content != "q1" || messages[2].Content != "a1" {
		t.Fatalf("history out of order: %+v", messages)
	}
	if messages[3].Role != "user" || !strings.Contains(messages[3].Content, "q2") {
		t.Fatalf("expected current question last, got %+v", messages[3])
	}
}
