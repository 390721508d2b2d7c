// Package approval defines the data model shared by every stage of the
// approval-scanning pipeline: raw event logs, parsed approval records,
// reconstructed state, and the fully enriched, risk-scored result.
package approval

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Kind tags the token standard (and sub-case) a ParsedApproval came from.
// ERC-20 and ERC-721 share the same Approval(address,address,uint256) event
// signature; Kind is how the rest of the pipeline tells them apart once the
// log parser has disambiguated by topic arity.
type Kind int

const (
	// ERC20 is a value-based Approval(owner, spender, value) event.
	ERC20 Kind = iota
	// ERC721Single is a single-tokenId Approval(owner, spender, tokenId) event.
	ERC721Single
	// ERC721All is an ApprovalForAll event on an ERC-721 collection.
	ERC721All
	// ERC1155All is an ApprovalForAll event on an ERC-1155 collection.
	// Logs alone cannot distinguish ERC-721 ApprovalForAll from ERC-1155
	// ApprovalForAll (identical signature); the reconstructor treats them
	// identically and the orchestrator disambiguates via live contract reads.
	ERC1155All
)

func (k Kind) String() string {
	switch k {
	case ERC20:
		return "ERC20"
	case ERC721Single:
		return "ERC721_SINGLE"
	case ERC721All:
		return "ERC721_ALL"
	case ERC1155All:
		return "ERC1155_ALL"
	default:
		return "UNKNOWN"
	}
}

// RawLog is the dynamically-typed boundary value produced by the RPC
// Gateway's eth_getLogs call. Fields mirror the raw JSON-RPC log object
// exactly (hex-string integers included) rather than a pre-decoded
// go-ethereum types.Log, so the log parser owns all interpretation of the
// overloaded event encodings.
type RawLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	LogIndex    string   `json:"logIndex"`
	TxHash      string   `json:"transactionHash"`
}

// ParsedApproval is a single decoded approval/approval-for-all event.
//
// Invariants (enforced by the log parser, not re-validated downstream):
//   - Kind == ERC20       => Value != nil, TokenID == nil
//   - Kind == ERC721Single => TokenID != nil, Value == nil
//   - Kind in {ERC721All, ERC1155All} => ApprovedFlag meaningful, Value and TokenID nil
type ParsedApproval struct {
	Token   common.Address
	Owner   common.Address
	Spender common.Address
	Kind    Kind

	Value   *uint256.Int
	TokenID *uint256.Int

	ApprovedFlag bool

	BlockNumber uint64
	LogIndex    uint32
	TxHash      common.Hash
}

// Key identifies the slot a ParsedApproval occupies in reconstructed state.
// ERC-20 and the *_ALL kinds are keyed by (token, spender). ERC721Single is
// keyed by (token, tokenId) instead, with Spender left zero: a revocation is
// itself an Approval event to the zero address, so the revoking record and
// the approval it revokes must land on the same key regardless of spender.
type Key struct {
	Token   common.Address
	Spender common.Address
	TokenID string // decimal string of the tokenId; empty for non-per-token kinds
}

// NewKey builds the composite key for a parsed approval.
func NewKey(p ParsedApproval) Key {
	if p.Kind == ERC721Single {
		k := Key{Token: p.Token}
		if p.TokenID != nil {
			k.TokenID = p.TokenID.String()
		}
		return k
	}
	return Key{Token: p.Token, Spender: p.Spender}
}

// TokenInfo is per-token metadata resolved once per scan and cached.
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals uint8
	Standard Kind
}

// SpenderInfo is per-spender metadata resolved once per scan and cached.
type SpenderInfo struct {
	Address          common.Address
	IsContract       bool
	DisplayName      string
	Verified         bool
	SourceAvailable  bool
}

// ActiveApproval is a ParsedApproval that survived live on-chain
// re-verification, enriched with token/spender metadata and ready for risk
// scoring.
type ActiveApproval struct {
	Token   TokenInfo
	Spender SpenderInfo
	Kind    Kind

	LiveAllowance *uint256.Int // nil for *_ALL kinds, where only ApprovedFlag matters
	IsUnlimited   bool

	OriginBlock     uint64
	OriginTimestamp uint64 // 0 if unavailable; age falls back to block-time estimate
	OriginTxHash    common.Hash
	AgeDays         float64

	AllowanceDisplay string // "Unlimited", "All Tokens", or a formatted decimal
}

// RiskFactor is one additive contributor to an approval's risk score.
type RiskFactor struct {
	Name    string
	Weight  int
	Reason  string
	Applies bool
}

// Category buckets a risk score. Ordered so SAFE < RISKY < DANGEROUS holds
// under plain integer comparison, matching the category-monotonicity
// property.
type Category int

const (
	Safe Category = iota
	Risky
	Dangerous
)

func (c Category) String() string {
	switch c {
	case Safe:
		return "SAFE"
	case Risky:
		return "RISKY"
	case Dangerous:
		return "DANGEROUS"
	default:
		return "UNKNOWN"
	}
}

// RiskAssessment is the scored outcome for a single ActiveApproval.
type RiskAssessment struct {
	Score    int
	Category Category
	Factors  []RiskFactor // only the factors that applied, in evaluation order
}

// CategorizedApproval pairs an ActiveApproval with its risk assessment and
// the action URLs a frontend renders next to it.
type CategorizedApproval struct {
	Approval    ActiveApproval
	Risk        RiskAssessment
	RevokeURL   string
	ExplorerURL string
}

// Summary aggregates counts and wallet hygiene over a scan.
type Summary struct {
	TotalApprovals int
	Dangerous      int
	Risky          int
	Safe           int
	HygieneScore   int
	HygieneLabel   string
}

// ScanResult is the final, categorized report for one wallet on one chain.
type ScanResult struct {
	Wallet    common.Address
	ChainID   int64
	Summary   Summary
	Dangerous []CategorizedApproval
	Risky     []CategorizedApproval
	Safe      []CategorizedApproval
}
