package api

import (
	"encoding/json"
	"net/http"

	"github.com/approvalguard/approvalguard/internal/logger"
	"github.com/approvalguard/approvalguard/internal/scanner"
	"github.com/approvalguard/approvalguard/pkg/checksum"
	"github.com/approvalguard/approvalguard/pkg/config"
	"github.com/approvalguard/approvalguard/pkg/report"
	"github.com/ethereum/go-ethereum/common"
)

// Handler serves the four ApprovalGuard HTTP endpoints. A single
// Orchestrator backs /api/scan: the service scans one live-configured
// chain, but the Report Assembler can render revoke/explorer links for any
// chain in the configured list.
type Handler struct {
	cfg          *config.Config
	orchestrator *scanner.Orchestrator
	log          *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(cfg *config.Config, orchestrator *scanner.Orchestrator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Handler{cfg: cfg, orchestrator: orchestrator, log: log.WithComponent("api-handler")}
}

// Health reports basic liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Scan handles POST /api/scan: validates the request, runs a live scan, and
// returns the categorized, risk-scored report.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChainID == 0 {
		req.ChainID = 1
	}

	normalized, err := checksum.Normalize(req.Address)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	chain, ok := h.cfg.ChainByID(req.ChainID)
	if !ok {
		respondError(w, http.StatusBadRequest, "unsupported chain_id")
		return
	}

	wallet := common.HexToAddress(normalized)

	actives, err := h.orchestrator.Scan(r.Context(), wallet)
	if err != nil {
		h.log.Errorw("scan failed", "wallet", normalized, "error", err)
		respondError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	result := report.Assemble(wallet, req.ChainID, chain, actives)

	resp := ScanResponse{
		Wallet:       result.Wallet.Hex(),
		ChainID:      result.ChainID,
		HygieneScore: result.Summary.HygieneScore,
		HygieneLabel: result.Summary.HygieneLabel,
		Summary: SummaryResponse{
			TotalApprovals: result.Summary.TotalApprovals,
			Dangerous:      result.Summary.Dangerous,
			Risky:          result.Summary.Risky,
			Safe:           result.Summary.Safe,
		},
		Approvals: ApprovalsResponse{
			Dangerous: toApprovalEntries(result.Dangerous),
			Risky:     toApprovalEntries(result.Risky),
			Safe:      toApprovalEntries(result.Safe),
		},
	}

	respondJSON(w, http.StatusOK, resp)
}

// ShareCard handles POST /api/share-card. It takes the same request shape as
// /api/scan, re-running a scan to build the share-card payload; the
// frontend is expected to call this only after a user opts into sharing.
func (h *Handler) ShareCard(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChainID == 0 {
		req.ChainID = 1
	}

	normalized, err := checksum.Normalize(req.Address)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	chain, ok := h.cfg.ChainByID(req.ChainID)
	if !ok {
		respondError(w, http.StatusBadRequest, "unsupported chain_id")
		return
	}

	wallet := common.HexToAddress(normalized)

	actives, err := h.orchestrator.Scan(r.Context(), wallet)
	if err != nil {
		h.log.Errorw("scan failed", "wallet", normalized, "error", err)
		respondError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	result := report.Assemble(wallet, req.ChainID, chain, actives)
	card := report.BuildShareCard(result)

	respondJSON(w, http.StatusOK, ShareCardResponse{
		HygieneScore:   card.HygieneScore,
		HygieneLabel:   card.HygieneLabel,
		TotalApprovals: card.TotalApprovals,
		DangerousCount: card.DangerousCount,
		RiskyCount:     card.RiskyCount,
		SafeCount:      card.SafeCount,
		ShareText:      card.ShareText,
		WalletShort:    card.WalletShort,
	})
}

// Validate handles POST /api/validate: format and EIP-55 checksum
// validation only, no chain interaction.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !checksum.ValidFormat(req.Address) {
		respondJSON(w, http.StatusOK, ValidateResponse{
			Valid: false,
			Error: "Invalid address format. Must be 0x followed by 40 hex characters.",
		})
		return
	}

	if !checksum.ValidateChecksum(req.Address) {
		respondJSON(w, http.StatusOK, ValidateResponse{
			Valid: false,
			Error: "Invalid checksum. Address may be mistyped.",
		})
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:    true,
		Checksum: checksum.ToChecksum(req.Address),
	})
}

// ValidateChain handles POST /api/validate-chain: reports whether chain_id
// is one the service knows an explorer/revoke URL mapping for.
func (h *Handler) ValidateChain(w http.ResponseWriter, r *http.Request) {
	var req ChainValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chain, ok := h.cfg.ChainByID(req.ChainID)
	if !ok {
		respondJSON(w, http.StatusOK, ChainValidateResponse{
			Supported: false,
			Error:     "Chain ID not supported.",
		})
		return
	}

	respondJSON(w, http.StatusOK, ChainValidateResponse{
		Supported: true,
		Name:      chain.Name,
	})
}

// respondJSON sends a JSON response, encoding before committing the status
// code so a marshal failure doesn't leave a half-written body.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	w.Write(encoded)
}

// respondError sends the uniform error shape.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
