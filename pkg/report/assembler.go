// Package report implements the Report Assembler: it buckets scored
// approvals into categories, sorts each bucket by descending score, attaches
// revoke/explorer action URLs, and produces the final ScanResult plus the
// share-card payload and text.
package report

import (
	"fmt"
	"sort"

	"github.com/approvalguard/approvalguard/internal/metrics"
	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/approvalguard/approvalguard/pkg/config"
	"github.com/approvalguard/approvalguard/pkg/risk"
	"github.com/ethereum/go-ethereum/common"
)

// Assemble buckets active approvals by risk category, sorts each bucket by
// descending score, attaches action URLs, and computes the wallet hygiene
// aggregate.
func Assemble(wallet common.Address, chainID int64, chain config.ChainConfig, actives []approval.ActiveApproval) approval.ScanResult {
	var dangerous, risky, safe []approval.CategorizedApproval
	assessments := make([]approval.RiskAssessment, 0, len(actives))

	for _, a := range actives {
		assessment := risk.Assess(a)
		assessments = append(assessments, assessment)
		metrics.ApprovalFoundInc(assessment.Category.String())

		categorized := approval.CategorizedApproval{
			Approval:    a,
			Risk:        assessment,
			RevokeURL:   revokeURL(wallet, chainID),
			ExplorerURL: explorerURL(chain, a.Spender.Address),
		}

		switch assessment.Category {
		case approval.Dangerous:
			dangerous = append(dangerous, categorized)
		case approval.Risky:
			risky = append(risky, categorized)
		default:
			safe = append(safe, categorized)
		}
	}

	sortByScoreDesc(dangerous)
	sortByScoreDesc(risky)
	sortByScoreDesc(safe)

	hygieneScore := risk.HygieneScore(assessments)

	summary := approval.Summary{
		TotalApprovals: len(actives),
		Dangerous:      len(dangerous),
		Risky:          len(risky),
		Safe:           len(safe),
		HygieneScore:   hygieneScore,
		HygieneLabel:   risk.HygieneLabel(hygieneScore),
	}

	return approval.ScanResult{
		Wallet:    wallet,
		ChainID:   chainID,
		Summary:   summary,
		Dangerous: dangerous,
		Risky:     risky,
		Safe:      safe,
	}
}

func sortByScoreDesc(bucket []approval.CategorizedApproval) {
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].Risk.Score > bucket[j].Risk.Score
	})
}

// revokeURL builds the revoke.cash deep link for a wallet on a given chain.
func revokeURL(wallet common.Address, chainID int64) string {
	return fmt.Sprintf("https://revoke.cash/address/%s?chainId=%d", wallet.Hex(), chainID)
}

// explorerURL builds the configured chain's block-explorer link for an
// address.
func explorerURL(chain config.ChainConfig, address common.Address) string {
	return fmt.Sprintf("%s/address/%s", chain.ExplorerBase, address.Hex())
}

// ShareCard is the payload behind POST /api/share-card.
type ShareCard struct {
	HygieneScore   int    `json:"hygiene_score"`
	HygieneLabel   string `json:"hygiene_label"`
	TotalApprovals int    `json:"total_approvals"`
	DangerousCount int    `json:"dangerous_count"`
	RiskyCount     int    `json:"risky_count"`
	SafeCount      int    `json:"safe_count"`
	ShareText      string `json:"share_text"`
	WalletShort    string `json:"wallet_short"`
}

// BuildShareCard derives the share-card payload from a completed scan
// result, following the original service's three-tier share-text rule and
// wallet-shortening convention (spec.md's Non-goals exclude share-card *text
// generation* as an external-collaborator concern at the UI layer, but
// something must produce this string server-side; see DESIGN.md).
func BuildShareCard(result approval.ScanResult) ShareCard {
	return ShareCard{
		HygieneScore:   result.Summary.HygieneScore,
		HygieneLabel:   result.Summary.HygieneLabel,
		TotalApprovals: result.Summary.TotalApprovals,
		DangerousCount: result.Summary.Dangerous,
		RiskyCount:     result.Summary.Risky,
		SafeCount:      result.Summary.Safe,
		ShareText:      shareText(result),
		WalletShort:    walletShort(result.Wallet),
	}
}

func shareText(result approval.ScanResult) string {
	score := result.Summary.HygieneScore
	switch {
	case result.Summary.Dangerous > 0:
		return fmt.Sprintf("My wallet has %d dangerous approval(s)! Hygiene score: %d/100. Check yours at ApprovalGuard", result.Summary.Dangerous, score)
	case result.Summary.Risky > 0:
		return fmt.Sprintf("Found %d risky approval(s) in my wallet. Score: %d/100. Scan yours at ApprovalGuard", result.Summary.Risky, score)
	default:
		return fmt.Sprintf("My wallet is clean! Hygiene score: %d/100. Check yours at ApprovalGuard", score)
	}
}

// walletShort formats a wallet address as "0xABCD...1234", following the
// original service's f"{wallet[:6]}...{wallet[-4:]}" convention.
func walletShort(wallet common.Address) string {
	hex := wallet.Hex()
	if len(hex) < 10 {
		return hex
	}
	return hex[:6] + "..." + hex[len(hex)-4:]
}
