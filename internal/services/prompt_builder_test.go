package services

import (
	"strings"
	"testing"

	"inkwell/internal/models"
)

func TestComposeEnvelopeOrder(t *testing.T) {
	env := ComposeEnvelope(&models.RunRequest{
		ProjectContext: "A mystery novel set in Lisbon.",
		Instructions:   "Answer questions about the manuscript.",
		Material:       "Chapter 3 text.",
		UserQuestion:   "Who is the narrator?",
		OutputRules:    "Answer in one paragraph.",
	})

	if !strings.Contains(env.System, "## Project Context") || !strings.Contains(env.System, "## Instructions") {
		t.Error("system prompt must carry labeled context and instructions")
	}
	if strings.Index(env.System, "## Project Context") > strings.Index(env.System, "## Instructions") {
		t.Error("project context must precede instructions")
	}

	material := strings.Index(env.User, "## Material")
	question := strings.Index(env.User, "## Question")
	rules := strings.Index(env.User, "## Output Rules")
	if material < 0 || question < 0 || rules < 0 {
		t.Fatalf("missing sections in user prompt: %q", env.User)
	}
	if !(material < question && question < rules) {
		t.Errorf("expected material < question < rules, got %d %d %d", material, question, rules)
	}
}

func TestComposeEnvelopeQuestionLast(t *testing.T) {
	env := ComposeEnvelope(&models.RunRequest{
		Material:     "Scene draft.",
		UserQuestion: "Tighten the dialogue?",
		OutputRules:  "Return only the revised text.",
		QuestionLast: true,
	})

	question := strings.Index(env.User, "## Question")
	rules := strings.Index(env.User, "## Output Rules")
	if question < rules {
		t.Error("question-last must place the question after the output rules")
	}
}

func TestComposeEnvelopeSkipsEmptySections(t *testing.T) {
	env := ComposeEnvelope(&models.RunRequest{Material: "Just material."})
	if env.System != "" {
		t.Errorf("expected empty system prompt, got %q", env.System)
	}
	if strings.Contains(env.User, "## Question") || strings.Contains(env.User, "## Output Rules") {
		t.Error("empty sections must not be emitted")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestEstimateEnvelopeTokens(t *testing.T) {
	env := Envelope{System: strings.Repeat("s", 40), User: strings.Repeat("u", 40)}
	// 4+10 per message
	if got := EstimateEnvelopeTokens(env); got != 28 {
		t.Errorf("expected 28, got %d", got)
	}
}
