package providers

import (
	"strings"

	"inkwell/internal/models"
)

// ClassifyHTTPStatus maps a provider HTTP status code onto the run status
// taxonomy. Codes outside the known set default to unavailable so the caller
// always gets a classified outcome.
func ClassifyHTTPStatus(code int) (models.RunStatus, models.RejectReason) {
	switch code {
	case 401, 403:
		return models.RunAuth, ""
	case 408:
		return models.RunTimeout, ""
	case 429:
		return models.RunRateLimit, ""
	case 400, 422:
		return models.RunRejected, models.ReasonUnsupportedParam
	case 404:
		return models.RunUnavailable, ""
	default:
		return models.RunUnavailable, ""
	}
}

// ClassifyError maps a transport-level error message onto the taxonomy using
// keyword heuristics. Used when no HTTP status code is available.
func ClassifyError(msg string) (models.RunStatus, models.RejectReason) {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"):
		return models.RunTimeout, ""
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "quota"):
		return models.RunRateLimit, ""
	case strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "api key"),
		strings.Contains(lower, "invalid key"),
		strings.Contains(lower, "forbidden"),
		strings.Contains(lower, "authentication"):
		return models.RunAuth, ""
	case strings.Contains(lower, "truncated"),
		strings.Contains(lower, "max tokens"),
		strings.Contains(lower, "length"):
		return models.RunRejected, models.ReasonTruncated
	case strings.Contains(lower, "unsupported"),
		strings.Contains(lower, "invalid parameter"),
		strings.Contains(lower, "not supported"):
		return models.RunRejected, models.ReasonUnsupportedParam
	default:
		return models.RunUnavailable, ""
	}
}

// HumanMessage renders a provider-agnostic, user-facing message for a
// classified failure. Raw provider errors never reach the editor.
func HumanMessage(status models.RunStatus, reason models.RejectReason) string {
	switch status {
	case models.RunAuth:
		return "The provider rejected the credentials. Verify the API key for the selected provider."
	case models.RunRateLimit:
		return "The provider is rate limiting requests. Try again in a moment."
	case models.RunTimeout:
		return "The provider did not respond in time."
	case models.RunUnavailable:
		return "The provider is currently unavailable."
	case models.RunRejected:
		switch reason {
		case models.ReasonTruncated:
			return "The response was cut off before completion."
		case models.ReasonUnsupportedParam:
			return "The provider rejected a request parameter."
		case models.ReasonInvalidResponse:
			return "The provider returned a response that could not be parsed."
		}
		return "The provider rejected the request."
	default:
		return ""
	}
}
