// Package risk implements the Risk Engine: additive, integer-weighted
// scoring per approval.ActiveApproval, plus the wallet-level hygiene
// aggregate over a scan's assessments.
package risk

import "github.com/approvalguard/approvalguard/pkg/approval"

const (
	maxScore = 100

	weightUnlimitedAllowance = 40
	weightApprovalForAll     = 25
	weightEOASpender         = 35
	weightUnknownSpender     = 20
	weightOldApproval6m      = 15
	weightVeryOldApproval    = 25
)

const (
	ageOldThresholdDays     = 180
	ageVeryOldThresholdDays = 365
)

// Assess computes the RiskAssessment for a single ActiveApproval per the
// factor table in spec.md §4.6. Factor evaluation order is fixed so
// RiskAssessment.Factors is deterministic across calls.
func Assess(a approval.ActiveApproval) approval.RiskAssessment {
	var factors []approval.RiskFactor
	score := 0

	switch a.Kind {
	case approval.ERC20:
		if a.IsUnlimited {
			factors = append(factors, approval.RiskFactor{
				Name:    "unlimited_allowance",
				Weight:  weightUnlimitedAllowance,
				Reason:  "Unlimited ERC-20 allowance granted to this spender",
				Applies: true,
			})
			score += weightUnlimitedAllowance
		}
	case approval.ERC721All, approval.ERC1155All:
		if a.IsUnlimited {
			factors = append(factors, approval.RiskFactor{
				Name:    "approval_for_all",
				Weight:  weightApprovalForAll,
				Reason:  "Blanket approval-for-all grants control over the entire collection",
				Applies: true,
			})
			score += weightApprovalForAll
		}
	}

	switch {
	case !a.Spender.IsContract:
		factors = append(factors, approval.RiskFactor{
			Name:    "eoa_spender",
			Weight:  weightEOASpender,
			Reason:  "Spender is an externally owned account, not a contract",
			Applies: true,
		})
		score += weightEOASpender
	case !a.Spender.Verified:
		factors = append(factors, approval.RiskFactor{
			Name:    "unknown_spender",
			Weight:  weightUnknownSpender,
			Reason:  "Spender contract is unverified or unrecognized",
			Applies: true,
		})
		score += weightUnknownSpender
	}

	switch {
	case a.AgeDays > ageVeryOldThresholdDays:
		factors = append(factors, approval.RiskFactor{
			Name:    "very_old_approval",
			Weight:  weightVeryOldApproval,
			Reason:  "Approval is more than a year old",
			Applies: true,
		})
		score += weightVeryOldApproval
	case a.AgeDays > ageOldThresholdDays:
		factors = append(factors, approval.RiskFactor{
			Name:    "old_approval_6m",
			Weight:  weightOldApproval6m,
			Reason:  "Approval is more than 6 months old",
			Applies: true,
		})
		score += weightOldApproval6m
	}

	if score > maxScore {
		score = maxScore
	}

	return approval.RiskAssessment{
		Score:    score,
		Category: categoryFor(score),
		Factors:  factors,
	}
}

// categoryFor buckets a score per spec.md §4.6: SAFE <= 30, RISKY <= 60,
// else DANGEROUS.
func categoryFor(score int) approval.Category {
	switch {
	case score <= 30:
		return approval.Safe
	case score <= 60:
		return approval.Risky
	default:
		return approval.Dangerous
	}
}

// HygieneScore aggregates a wallet's risk assessments into a single 0-100
// score: 100 - (25*dangerous + 10*risky + 2*safe), clamped. An empty list
// scores 100 (no approvals, no exposure).
func HygieneScore(assessments []approval.RiskAssessment) int {
	if len(assessments) == 0 {
		return 100
	}

	var dangerous, risky, safe int
	for _, a := range assessments {
		switch a.Category {
		case approval.Dangerous:
			dangerous++
		case approval.Risky:
			risky++
		case approval.Safe:
			safe++
		}
	}

	score := 100 - (25*dangerous + 10*risky + 2*safe)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// HygieneLabel maps a hygiene score to its display tier.
func HygieneLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 30:
		return "Poor"
	default:
		return "Critical"
	}
}
