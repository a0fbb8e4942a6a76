package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"inkwell/internal/models"
)

const anthropicVersion = "2023-06-01"

// AnthropicAdapter speaks the Anthropic messages protocol.
type AnthropicAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewAnthropicAdapter creates an adapter for the Anthropic API.
func NewAnthropicAdapter(baseURL, apiKey string, timeout time.Duration) *AnthropicAdapter {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &AnthropicAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  newAdapterLogger(),
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	TopP        float64            `json:"top_p,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateText performs a plain-text completion.
func (a *AnthropicAdapter) GenerateText(ctx context.Context, p GenerateParams) *models.ExecutionResult {
	return a.complete(ctx, p)
}

// GenerateJSON performs a completion expected to yield a single JSON object.
// The messages API has no native JSON mode, so the contract is stated in the
// system prompt and the caller validates the output.
func (a *AnthropicAdapter) GenerateJSON(ctx context.Context, p JSONParams) *models.ExecutionResult {
	instruction := "Respond with a single valid JSON object and nothing else."
	if len(p.Spec.RequiredKeys) > 0 {
		instruction = fmt.Sprintf("Respond with a single valid JSON object containing the keys %s and nothing else.",
			strings.Join(p.Spec.RequiredKeys, ", "))
	}
	q := p.GenerateParams
	if q.SystemPrompt != "" {
		q.SystemPrompt += "\n\n" + instruction
	} else {
		q.SystemPrompt = instruction
	}
	return a.complete(ctx, q)
}

func (a *AnthropicAdapter) complete(ctx context.Context, p GenerateParams) *models.ExecutionResult {
	start := time.Now()

	payload := anthropicRequest{
		Model:       p.ModelID,
		MaxTokens:   p.MaxOutputTokens,
		System:      p.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: p.UserPrompt}},
		Temperature: p.Temperature,
		TopP:        p.TopP,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failedResult(models.RunUnavailable, "", fmt.Sprintf("failed to encode request: %v", err), 0, start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return failedResult(models.RunUnavailable, "", fmt.Sprintf("failed to build request: %v", err), 0, start)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		status, reason := ClassifyError(err.Error())
		a.logRequest(p.ModelID, status, 0, start)
		return failedResult(status, reason, HumanMessage(status, reason), 0, start)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedResult(models.RunUnavailable, "", "failed to read provider response", resp.StatusCode, start)
	}

	if resp.StatusCode != http.StatusOK {
		status, reason := ClassifyHTTPStatus(resp.StatusCode)
		var parsed anthropicResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			if parsed.Error.Type == "overloaded_error" {
				status, reason = models.RunUnavailable, ""
			} else if s, r := ClassifyError(parsed.Error.Message); s != models.RunUnavailable {
				status, reason = s, r
			}
		}
		a.logRequest(p.ModelID, status, resp.StatusCode, start)
		return failedResult(status, reason, HumanMessage(status, reason), resp.StatusCode, start)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Content) == 0 {
		a.logRequest(p.ModelID, models.RunRejected, resp.StatusCode, start)
		return failedResult(models.RunRejected, models.ReasonInvalidResponse,
			HumanMessage(models.RunRejected, models.ReasonInvalidResponse), resp.StatusCode, start)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if parsed.StopReason == "max_tokens" {
		a.logRequest(p.ModelID, models.RunRejected, resp.StatusCode, start)
		return failedResult(models.RunRejected, models.ReasonTruncated,
			HumanMessage(models.RunRejected, models.ReasonTruncated), resp.StatusCode, start)
	}

	a.logRequest(p.ModelID, models.RunSuccess, resp.StatusCode, start)
	return &models.ExecutionResult{
		Success:    true,
		Content:    text.String(),
		Raw:        respBody,
		Status:     models.RunSuccess,
		StatusCode: resp.StatusCode,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
}

func (a *AnthropicAdapter) logRequest(model string, status models.RunStatus, code int, start time.Time) {
	a.logger.WithFields(logrus.Fields{
		"provider":    models.ProviderAnthropic,
		"model":       model,
		"status":      status,
		"http_status": code,
		"latency_ms":  time.Since(start).Milliseconds(),
	}).Info("provider request completed")
}
