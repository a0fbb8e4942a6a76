package services

import (
	"fmt"

	"inkwell/internal/models"
)

// Select picks a model from the catalog for the request. It is pure and
// deterministic: the same catalog and request always yield the same model.
func Select(catalog []models.ModelInfo, req models.SelectionRequest) (*models.SelectionResult, error) {
	eligible := filterEligible(catalog, req)
	if len(eligible) == 0 {
		return nil, &models.CapabilityFloorError{
			Provider: req.Provider,
			Required: req.Required.List(),
		}
	}

	var warnings []string

	if req.Policy.Kind == models.PolicyPinned {
		for _, m := range eligible {
			if m.Alias == req.Policy.PinnedAlias {
				return &models.SelectionResult{
					Model:  m,
					Reason: fmt.Sprintf("Pinned alias selected: %s", m.Alias),
				}, nil
			}
		}
		warnings = append(warnings,
			fmt.Sprintf("pinned model %q is not eligible, falling back to latest stable", req.Policy.PinnedAlias))
	}

	pool := stableOnly(eligible)
	if len(pool) == 0 {
		warnings = append(warnings, "no stable model is eligible, considering legacy models")
		pool = eligible
	}

	best := newestAcrossLines(pool)
	return &models.SelectionResult{
		Model:    best,
		Reason:   fmt.Sprintf("latest stable in line %s", best.ProductLine()),
		Warnings: warnings,
	}, nil
}

func filterEligible(catalog []models.ModelInfo, req models.SelectionRequest) []models.ModelInfo {
	var out []models.ModelInfo
	for _, m := range catalog {
		if m.Provider != req.Provider {
			continue
		}
		if m.Status == models.StatusDeprecated {
			continue
		}
		if !m.Capabilities.HasAll(req.Required) {
			continue
		}
		if req.InputTokens > 0 && m.ContextWindow < req.InputTokens {
			continue
		}
		if req.OutputTokens > 0 && m.MaxOutput < req.OutputTokens {
			continue
		}
		out = append(out, m)
	}
	return out
}

func stableOnly(list []models.ModelInfo) []models.ModelInfo {
	var out []models.ModelInfo
	for _, m := range list {
		if m.Status == models.StatusStable {
			out = append(out, m)
		}
	}
	return out
}

// newestAcrossLines runs the two-phase pick: best model per product line,
// then the newest among the line winners. Ties on release time break
// reverse-alphabetically on alias so the ordering is total.
func newestAcrossLines(pool []models.ModelInfo) models.ModelInfo {
	byLine := make(map[string]models.ModelInfo)
	for _, m := range pool {
		line := m.ProductLine()
		current, ok := byLine[line]
		if !ok || newer(m, current) {
			byLine[line] = m
		}
	}

	var best models.ModelInfo
	first := true
	for _, m := range byLine {
		if first || newer(m, best) {
			best = m
			first = false
		}
	}
	return best
}

func newer(a, b models.ModelInfo) bool {
	if !a.ReleasedAt.Equal(b.ReleasedAt) {
		return a.ReleasedAt.After(b.ReleasedAt)
	}
	return a.Alias > b.Alias
}
