package models

import "time"

// AccessTier is the user's subscription level with a provider, ordered
// free < standard < pro < max.
type AccessTier string

const (
	AccessFree     AccessTier = "free"
	AccessStandard AccessTier = "standard"
	AccessPro      AccessTier = "pro"
	AccessMax      AccessTier = "max"
)

var accessTierRank = map[AccessTier]int{
	AccessFree:     0,
	AccessStandard: 1,
	AccessPro:      2,
	AccessMax:      3,
}

// Rank returns the ordering position of the tier, or -1 if unknown.
func (t AccessTier) Rank() int {
	if r, ok := accessTierRank[t]; ok {
		return r
	}
	return -1
}

// IsValid reports whether t is one of the known access tiers.
func (t AccessTier) IsValid() bool {
	return t.Rank() >= 0
}

// OutputMode scales the output budget relative to the tier cap.
type OutputMode string

const (
	ModeAuto OutputMode = "auto" // 0.75
	ModeHigh OutputMode = "high" // 0.90
	ModeMax  OutputMode = "max"  // 1.00
)

// RetryPolicy governs the orchestrator's retry behavior for a run.
type RetryPolicy struct {
	MaxAttempts        int           `json:"max_attempts"`
	BaseDelay          time.Duration `json:"base_delay"`
	RetryMalformedJSON bool          `json:"retry_malformed_json"`
}

// ComputedCaps is the concrete request budget the compiler produces for one
// run. All token values are final; the orchestrator applies them as-is.
type ComputedCaps struct {
	MaxInputTokens    int     `json:"max_input_tokens"`
	MaxOutputTokens   int     `json:"max_output_tokens"`
	SafeUtilization   float64 `json:"safe_utilization"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RequestsPerMinute float64 `json:"requests_per_minute"`
	Retry             RetryPolicy
}

// CapsOverrides carries explicit per-request knobs. Zero values mean
// "no override"; pointer fields distinguish unset from zero.
type CapsOverrides struct {
	Temperature     *float64
	OutputMode      OutputMode
	MaxOutputTokens int
}
