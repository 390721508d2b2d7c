package api

import "github.com/approvalguard/approvalguard/pkg/approval"

// ScanRequest is the payload for POST /api/scan.
type ScanRequest struct {
	Address string `json:"address"`
	ChainID int64  `json:"chain_id"`
}

// ScanResponse is the payload returned by POST /api/scan.
type ScanResponse struct {
	Wallet       string            `json:"wallet"`
	ChainID      int64             `json:"chain_id"`
	HygieneScore int               `json:"hygiene_score"`
	HygieneLabel string            `json:"hygiene_label"`
	Summary      SummaryResponse   `json:"summary"`
	Approvals    ApprovalsResponse `json:"approvals"`
}

// SummaryResponse mirrors approval.Summary's counts at the wire boundary.
type SummaryResponse struct {
	TotalApprovals int `json:"total_approvals"`
	Dangerous      int `json:"dangerous"`
	Risky          int `json:"risky"`
	Safe           int `json:"safe"`
}

// ApprovalsResponse buckets the three risk categories by name, matching the
// shape a frontend renders as three lists.
type ApprovalsResponse struct {
	Dangerous []ApprovalEntry `json:"dangerous"`
	Risky     []ApprovalEntry `json:"risky"`
	Safe      []ApprovalEntry `json:"safe"`
}

// TokenEntry describes the token side of an approval entry.
type TokenEntry struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Type     string `json:"type"`
}

// SpenderEntry describes the spender side of an approval entry.
type SpenderEntry struct {
	Address    string `json:"address"`
	IsContract bool   `json:"is_contract"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
}

// ApprovalEntry is one scored, enriched approval as rendered to a client.
type ApprovalEntry struct {
	Token          TokenEntry   `json:"token"`
	Spender        SpenderEntry `json:"spender"`
	ApprovalType   string       `json:"approval_type"`
	Allowance      string       `json:"allowance"`
	AllowanceRaw   string       `json:"allowance_raw"`
	IsUnlimited    bool         `json:"is_unlimited"`
	BlockNumber    uint64       `json:"block_number"`
	AgeDays        float64      `json:"age_days"`
	TxHash         string       `json:"tx_hash"`
	RiskScore      int          `json:"risk_score"`
	Category       string       `json:"category"`
	RiskReasons    []string     `json:"risk_reasons"`
	RevokeURL      string       `json:"revoke_url"`
	EtherscanURL   string       `json:"etherscan_url"`
}

// toApprovalEntry converts an internal categorized approval into its wire
// representation.
func toApprovalEntry(c approval.CategorizedApproval) ApprovalEntry {
	reasons := make([]string, 0, len(c.Risk.Factors))
	for _, f := range c.Risk.Factors {
		reasons = append(reasons, f.Name)
	}

	allowanceRaw := "0"
	if c.Approval.LiveAllowance != nil {
		allowanceRaw = c.Approval.LiveAllowance.String()
	}

	return ApprovalEntry{
		Token: TokenEntry{
			Address:  c.Approval.Token.Address.Hex(),
			Symbol:   c.Approval.Token.Symbol,
			Name:     c.Approval.Token.Name,
			Decimals: c.Approval.Token.Decimals,
			Type:     c.Approval.Token.Standard.String(),
		},
		Spender: SpenderEntry{
			Address:    c.Approval.Spender.Address.Hex(),
			IsContract: c.Approval.Spender.IsContract,
			Name:       c.Approval.Spender.DisplayName,
			Verified:   c.Approval.Spender.Verified,
		},
		ApprovalType: c.Approval.Kind.String(),
		Allowance:    c.Approval.AllowanceDisplay,
		AllowanceRaw: allowanceRaw,
		IsUnlimited:  c.Approval.IsUnlimited,
		BlockNumber:  c.Approval.OriginBlock,
		AgeDays:      c.Approval.AgeDays,
		TxHash:       c.Approval.OriginTxHash.Hex(),
		RiskScore:    c.Risk.Score,
		Category:     c.Risk.Category.String(),
		RiskReasons:  reasons,
		RevokeURL:    c.RevokeURL,
		EtherscanURL: c.ExplorerURL,
	}
}

func toApprovalEntries(cs []approval.CategorizedApproval) []ApprovalEntry {
	out := make([]ApprovalEntry, 0, len(cs))
	for _, c := range cs {
		out = append(out, toApprovalEntry(c))
	}
	return out
}

// ShareCardResponse is the payload returned by POST /api/share-card.
type ShareCardResponse struct {
	HygieneScore   int    `json:"hygiene_score"`
	HygieneLabel   string `json:"hygiene_label"`
	TotalApprovals int    `json:"total_approvals"`
	DangerousCount int    `json:"dangerous_count"`
	RiskyCount     int    `json:"risky_count"`
	SafeCount      int    `json:"safe_count"`
	ShareText      string `json:"share_text"`
	WalletShort    string `json:"wallet_short"`
}

// ValidateRequest is the payload for POST /api/validate.
type ValidateRequest struct {
	Address string `json:"address"`
}

// ValidateResponse is the payload returned by POST /api/validate.
type ValidateResponse struct {
	Valid    bool   `json:"valid"`
	Checksum string `json:"checksum,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ChainValidateRequest is the payload for POST /api/validate-chain.
type ChainValidateRequest struct {
	ChainID int64 `json:"chain_id"`
}

// ChainValidateResponse is the payload returned by POST /api/validate-chain.
type ChainValidateResponse struct {
	Supported bool   `json:"supported"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse is the uniform error shape for every 4xx/5xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
