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

// OpenAIAdapter speaks the OpenAI chat-completions protocol. It also serves
// any OpenAI-compatible endpoint (local Ollama/LM Studio, Gemini's
// compatibility surface) via a custom base URL.
type OpenAIAdapter struct {
	provider models.Provider
	baseURL  string
	apiKey   string
	client   *http.Client
	logger   *logrus.Logger
}

// NewOpenAIAdapter creates an adapter for an OpenAI-compatible endpoint.
// baseURL is the API root without a trailing slash, e.g.
// "https://api.openai.com/v1". An empty apiKey sends no Authorization header,
// which local endpoints accept.
func NewOpenAIAdapter(provider models.Provider, baseURL, apiKey string, timeout time.Duration) *OpenAIAdapter {
	return &OpenAIAdapter{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   newAdapterLogger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string                 `json:"model"`
	Messages       []chatMessage          `json:"messages"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	Temperature    float64                `json:"temperature"`
	TopP           float64                `json:"top_p,omitempty"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateText performs a plain-text completion.
func (a *OpenAIAdapter) GenerateText(ctx context.Context, p GenerateParams) *models.ExecutionResult {
	return a.complete(ctx, p, nil)
}

// GenerateJSON performs a completion constrained to a JSON object. When a
// schema is supplied it is forwarded as a strict json_schema response format;
// otherwise json_object mode is used.
func (a *OpenAIAdapter) GenerateJSON(ctx context.Context, p JSONParams) *models.ExecutionResult {
	format := map[string]interface{}{"type": "json_object"}
	if len(p.Spec.Schema) > 0 {
		format = map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "response",
				"strict": true,
				"schema": p.Spec.Schema,
			},
		}
	}
	return a.complete(ctx, p.GenerateParams, format)
}

func (a *OpenAIAdapter) complete(ctx context.Context, p GenerateParams, responseFormat map[string]interface{}) *models.ExecutionResult {
	start := time.Now()

	messages := make([]chatMessage, 0, 2)
	if p.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: p.UserPrompt})

	payload := chatRequest{
		Model:          p.ModelID,
		Messages:       messages,
		MaxTokens:      p.MaxOutputTokens,
		Temperature:    p.Temperature,
		TopP:           p.TopP,
		ResponseFormat: responseFormat,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failedResult(models.RunUnavailable, "", fmt.Sprintf("failed to encode request: %v", err), 0, start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return failedResult(models.RunUnavailable, "", fmt.Sprintf("failed to build request: %v", err), 0, start)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

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
		if status == models.RunUnavailable || status == models.RunRejected {
			// Provider error bodies sometimes carry a sharper signal than the code.
			var parsed chatResponse
			if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
				if s, r := ClassifyError(parsed.Error.Message); s != models.RunUnavailable {
					status, reason = s, r
				}
			}
		}
		a.logRequest(p.ModelID, status, resp.StatusCode, start)
		return failedResult(status, reason, HumanMessage(status, reason), resp.StatusCode, start)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Choices) == 0 {
		a.logRequest(p.ModelID, models.RunRejected, resp.StatusCode, start)
		return failedResult(models.RunRejected, models.ReasonInvalidResponse,
			HumanMessage(models.RunRejected, models.ReasonInvalidResponse), resp.StatusCode, start)
	}

	choice := parsed.Choices[0]
	if choice.FinishReason == "length" {
		a.logRequest(p.ModelID, models.RunRejected, resp.StatusCode, start)
		return failedResult(models.RunRejected, models.ReasonTruncated,
			HumanMessage(models.RunRejected, models.ReasonTruncated), resp.StatusCode, start)
	}

	a.logRequest(p.ModelID, models.RunSuccess, resp.StatusCode, start)
	return &models.ExecutionResult{
		Success:    true,
		Content:    choice.Message.Content,
		Raw:        respBody,
		Status:     models.RunSuccess,
		StatusCode: resp.StatusCode,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
}

func (a *OpenAIAdapter) logRequest(model string, status models.RunStatus, code int, start time.Time) {
	a.logger.WithFields(logrus.Fields{
		"provider":    a.provider,
		"model":       model,
		"status":      status,
		"http_status": code,
		"latency_ms":  time.Since(start).Milliseconds(),
	}).Info("provider request completed")
}

func failedResult(status models.RunStatus, reason models.RejectReason, message string, code int, start time.Time) *models.ExecutionResult {
	return &models.ExecutionResult{
		Success:    false,
		Status:     status,
		Reason:     reason,
		Message:    message,
		StatusCode: code,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
}
