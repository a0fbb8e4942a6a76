package models

import (
	"encoding/json"
	"time"
)

// ReturnType is the expected shape of a run's output.
type ReturnType string

const (
	ReturnText ReturnType = "text"
	ReturnJSON ReturnType = "json"
)

// RunStatus is the classified outcome of a run. Every failure maps to
// exactly one of these so callers never branch on provider-specific errors.
type RunStatus string

const (
	RunSuccess     RunStatus = "success"
	RunRejected    RunStatus = "rejected"
	RunUnavailable RunStatus = "unavailable"
	RunTimeout     RunStatus = "timeout"
	RunAuth        RunStatus = "auth"
	RunRateLimit   RunStatus = "rate_limit"
)

// RejectReason narrows a rejected run.
type RejectReason string

const (
	ReasonTruncated        RejectReason = "truncated"
	ReasonUnsupportedParam RejectReason = "unsupported_param"
	ReasonInvalidResponse  RejectReason = "invalid_response"
)

// JSONSpec describes the expected JSON output of a run. RequiredKeys is the
// validation contract; Schema is passed through to providers that accept one.
type JSONSpec struct {
	RequiredKeys []string               `json:"required_keys,omitempty"`
	Schema       map[string]interface{} `json:"schema,omitempty"`
}

// RunRequest is one orchestrated generation request from the editor.
type RunRequest struct {
	Feature      string       `json:"feature"`
	Task         string       `json:"task"`
	Capabilities []Capability `json:"capabilities,omitempty"`
	ReturnType   ReturnType   `json:"return_type"`
	JSON         *JSONSpec    `json:"json,omitempty"`

	// Envelope sections, concatenated in order at composition time.
	ProjectContext string `json:"project_context,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
	Material       string `json:"material,omitempty"`
	UserQuestion   string `json:"user_question,omitempty"`
	OutputRules    string `json:"output_rules,omitempty"`
	QuestionLast   bool   `json:"question_last,omitempty"`

	// Optional routing overrides on top of the persisted settings.
	Provider Provider     `json:"provider,omitempty"`
	Policy   *ModelPolicy `json:"policy,omitempty"`
}

// RunDebugContext is the advanced debug trail captured for every run.
type RunDebugContext struct {
	RunID           string       `json:"run_id"`
	Provider        Provider     `json:"provider"`
	ModelAlias      string       `json:"model_alias"`
	ModelID         string       `json:"model_id"`
	SelectionReason string       `json:"selection_reason"`
	Caps            ComputedCaps `json:"caps"`
	SystemPrompt    string       `json:"system_prompt"`
	UserPrompt      string       `json:"user_prompt"`
	EstimatedInput  int          `json:"estimated_input_tokens"`
	StartedAt       time.Time    `json:"started_at"`
	DurationMs      int64        `json:"duration_ms"`
}

// RunResult is the uniform outcome of Orchestrator.Run. Content is nil on
// any failure; Status and Reason carry the classified cause.
type RunResult struct {
	Content    *string          `json:"content"`
	Status     RunStatus        `json:"status"`
	Reason     RejectReason     `json:"reason,omitempty"`
	Message    string           `json:"message,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
	FromCache  bool             `json:"from_cache"`
	RetryCount int              `json:"retry_count"`
	Debug      *RunDebugContext `json:"debug,omitempty"`
}

// ExecutionResult is the uniform shape every provider adapter returns.
// Transport and provider errors are classified here, never surfaced raw.
type ExecutionResult struct {
	Success    bool            `json:"success"`
	Content    string          `json:"content,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	Status     RunStatus       `json:"status"`
	Reason     RejectReason    `json:"reason,omitempty"`
	Message    string          `json:"message,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	LatencyMs  int64           `json:"latency_ms"`
}
