package models

import "fmt"

// PolicyKind selects between pinned and latest-stable model resolution.
type PolicyKind string

const (
	PolicyPinned       PolicyKind = "pinned"
	PolicyLatestStable PolicyKind = "latest_stable"
)

// ModelPolicy is the user's model preference for a provider or feature.
type ModelPolicy struct {
	Kind        PolicyKind `json:"kind"`
	PinnedAlias string     `json:"pinned_alias,omitempty"`
}

// PinnedPolicy pins selection to a specific catalog alias.
func PinnedPolicy(alias string) ModelPolicy {
	return ModelPolicy{Kind: PolicyPinned, PinnedAlias: alias}
}

// LatestStablePolicy tracks the newest stable model automatically.
func LatestStablePolicy() ModelPolicy {
	return ModelPolicy{Kind: PolicyLatestStable}
}

// SelectionRequest carries everything the selector needs. Token needs of zero
// mean "unspecified" and are not used for eligibility filtering.
type SelectionRequest struct {
	Provider     Provider
	Policy       ModelPolicy
	Required     CapabilitySet
	InputTokens  int
	OutputTokens int
}

// SelectionResult is the outcome of a successful selection. Warnings is
// non-empty whenever the stated preference could not be honored exactly.
type SelectionResult struct {
	Model    ModelInfo
	Reason   string
	Warnings []string
}

// CapabilityFloorError reports that no cataloged model of a provider can
// satisfy the request's capability or token requirements.
type CapabilityFloorError struct {
	Provider Provider
	Required []Capability
}

func (e *CapabilityFloorError) Error() string {
	if len(e.Required) > 0 {
		return fmt.Sprintf("no %s model satisfies required capabilities %v", e.Provider, e.Required)
	}
	return fmt.Sprintf("no %s model satisfies the request requirements", e.Provider)
}

// BudgetExceededError reports that a composed prompt exceeds the pre-flight
// input budget and was rejected before any network call.
type BudgetExceededError struct {
	EstimatedTokens int
	BudgetTokens    int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("prompt of ~%d tokens exceeds the input budget of %d tokens", e.EstimatedTokens, e.BudgetTokens)
}
