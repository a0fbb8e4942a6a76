package services

import (
	"strings"

	"inkwell/internal/models"
)

// Envelope is the composed prompt pair handed to a provider adapter.
type Envelope struct {
	System string
	User   string
}

// ComposeEnvelope assembles the prompt from the request's sections in a
// fixed, labeled order: project context and feature instructions form the
// system prompt; material, question and output rules form the user prompt.
// Question-last features move the question after the output rules.
func ComposeEnvelope(req *models.RunRequest) Envelope {
	var system []string
	if req.ProjectContext != "" {
		system = append(system, section("Project Context", req.ProjectContext))
	}
	if req.Instructions != "" {
		system = append(system, section("Instructions", req.Instructions))
	}

	var user []string
	if req.Material != "" {
		user = append(user, section("Material", req.Material))
	}
	question := ""
	if req.UserQuestion != "" {
		question = section("Question", req.UserQuestion)
	}
	if question != "" && !req.QuestionLast {
		user = append(user, question)
	}
	if req.OutputRules != "" {
		user = append(user, section("Output Rules", req.OutputRules))
	}
	if question != "" && req.QuestionLast {
		user = append(user, question)
	}

	return Envelope{
		System: strings.Join(system, "\n\n"),
		User:   strings.Join(user, "\n\n"),
	}
}

func section(label, body string) string {
	return "## " + label + "\n" + strings.TrimSpace(body)
}

// CacheText returns the canonical prompt text used for response-cache
// keying. System and user parts are both included so any change to either
// produces a different key.
func (e Envelope) CacheText() string {
	return e.System + "\n\x00\n" + e.User
}
