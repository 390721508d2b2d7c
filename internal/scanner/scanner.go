// Package scanner implements the Scanner Orchestrator: it drives the RPC
// Gateway, Log Parser, and State Reconstructor through one wallet scan,
// live-verifies every surviving approval against current chain state, and
// enriches the result with token and spender metadata before risk scoring.
//
// Failure isolation is central to its design: a failing log family, a
// failing live-verification call, or a failing metadata lookup drops only
// the affected record rather than aborting the scan.
package scanner

import (
	"context"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/approvalguard/approvalguard/internal/logger"
	"github.com/approvalguard/approvalguard/internal/metrics"
	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/approvalguard/approvalguard/pkg/classifier"
	"github.com/approvalguard/approvalguard/pkg/config"
	"github.com/approvalguard/approvalguard/pkg/logparser"
	pkgrpc "github.com/approvalguard/approvalguard/pkg/rpc"
	"github.com/approvalguard/approvalguard/pkg/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ERC-165 interface ids used to disambiguate ApprovalForAll between ERC-721
// and ERC-1155 collections once a live isApprovedForAll call has confirmed
// the approval is still active; the two standards share an identical event
// and method signature so nothing earlier in the pipeline can tell them
// apart.
var (
	erc721InterfaceID  = [4]byte{0x80, 0xac, 0x58, 0xcd}
	erc1155InterfaceID = [4]byte{0xd9, 0xb6, 0x7a, 0x26}
)

// Orchestrator runs wallet scans against a single configured chain's
// Gateway. One Orchestrator is built at startup for the configured RPC
// endpoint and reused across requests; nothing on it is scan-scoped.
type Orchestrator struct {
	gateway    pkgrpc.Gateway
	parser     *logparser.Parser
	classifier *classifier.Classifier
	cfg        *config.ScannerConfig
	log        *logger.Logger
}

// New builds an Orchestrator. log may be nil, in which case a no-op logger
// is used.
func New(gateway pkgrpc.Gateway, parser *logparser.Parser, cls *classifier.Classifier, cfg *config.ScannerConfig, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Orchestrator{
		gateway:    gateway,
		parser:     parser,
		classifier: cls,
		cfg:        cfg,
		log:        log.WithComponent("scanner-orchestrator"),
	}
}

// scanCache holds the per-scan token/spender metadata caches. It is built
// fresh for every Scan call and discarded on return; singleflight.Group
// collapses concurrent lookups of the same key into one underlying RPC
// round trip, and the plain map behind it short-circuits repeat lookups
// once a key has resolved.
type scanCache struct {
	mu           sync.Mutex
	tokenCache   map[common.Address]approval.TokenInfo
	spenderCache map[common.Address]approval.SpenderInfo

	tokenGroup   singleflight.Group
	spenderGroup singleflight.Group
}

func newScanCache() *scanCache {
	return &scanCache{
		tokenCache:   make(map[common.Address]approval.TokenInfo),
		spenderCache: make(map[common.Address]approval.SpenderInfo),
	}
}

// Scan runs the full pipeline for one wallet: fetch candidate logs, parse
// and reconstruct state, live-verify every surviving entry, and enrich the
// survivors with token/spender metadata. It never returns a partial-data
// error: a failing log family or a failing per-entry lookup is dropped and
// recorded in metrics rather than aborting the scan.
func (o *Orchestrator) Scan(ctx context.Context, owner common.Address) ([]approval.ActiveApproval, error) {
	scanStart := time.Now()
	outcome := "ok"
	defer func() {
		metrics.ScanDurationObserve(time.Since(scanStart))
		metrics.ScanOutcomeInc(outcome)
	}()

	if o.cfg.ScanTimeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.ScanTimeout.Duration)
		defer cancel()
	}

	head, headErr := o.gateway.HeadBlock(ctx)
	if headErr != nil {
		o.log.Warnw("head block fetch failed, continuing with head=0", "error", headErr)
	}

	var fromBlock uint64
	if head > o.cfg.HistoricalBlockWindow {
		fromBlock = head - o.cfg.HistoricalBlockWindow
	}

	ownerTopic := common.BytesToHash(common.LeftPadBytes(owner.Bytes(), 32))

	raw := o.fetchCandidateLogs(ctx, ownerTopic, fromBlock)

	parsed := o.parser.ParseAll(raw)
	reconstructed := state.Reconstruct(parsed)

	entries := make([]approval.ParsedApproval, 0, len(reconstructed))
	for _, entry := range reconstructed {
		entries = append(entries, entry)
	}

	actives := o.verifyAndEnrich(ctx, owner, head, entries)

	// The only scan-aborting error is the caller's own deadline elapsing;
	// every RPC-layer failure up to this point has already been absorbed
	// and recorded as a dropped record rather than propagated.
	if ctxErr := ctx.Err(); ctxErr != nil {
		outcome = "aborted"
		return nil, ctxErr
	}

	return actives, nil
}

// fetchCandidateLogs runs both log family queries concurrently. Either
// query failing independently yields an empty slice for that family rather
// than aborting the scan.
func (o *Orchestrator) fetchCandidateLogs(ctx context.Context, ownerTopic common.Hash, fromBlock uint64) []approval.RawLog {
	var approvalLogs, approvalForAllLogs []approval.RawLog

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logs, err := o.gateway.GetLogs(gctx, pkgrpc.LogQuery{
			Topics:    [2]common.Hash{logparser.ApprovalTopic, ownerTopic},
			FromBlock: fromBlock,
		})
		if err != nil {
			o.log.Warnw("approval log family fetch failed", "error", err)
			metrics.ApprovalDroppedInc("log_fetch_failed")
			return nil
		}
		approvalLogs = logs
		return nil
	})

	g.Go(func() error {
		logs, err := o.gateway.GetLogs(gctx, pkgrpc.LogQuery{
			Topics:    [2]common.Hash{logparser.ApprovalForAllTopic, ownerTopic},
			FromBlock: fromBlock,
		})
		if err != nil {
			o.log.Warnw("approval-for-all log family fetch failed", "error", err)
			metrics.ApprovalDroppedInc("log_fetch_failed")
			return nil
		}
		approvalForAllLogs = logs
		return nil
	})

	_ = g.Wait() // both branches swallow their own errors; Wait cannot fail here

	raw := make([]approval.RawLog, 0, len(approvalLogs)+len(approvalForAllLogs))
	raw = append(raw, approvalLogs...)
	raw = append(raw, approvalForAllLogs...)
	return raw
}

// verifyAndEnrich live-verifies every reconstructed entry and, for
// survivors, resolves token/spender metadata. Concurrency is bounded by
// cfg.ConcurrencyLimit so a wallet with thousands of historical approvals
// cannot fan out unbounded RPC load against the configured endpoint.
func (o *Orchestrator) verifyAndEnrich(ctx context.Context, owner common.Address, head uint64, entries []approval.ParsedApproval) []approval.ActiveApproval {
	cache := newScanCache()
	sem := make(chan struct{}, o.cfg.ConcurrencyLimit)

	var mu sync.Mutex
	var actives []approval.ActiveApproval

	var wg sync.WaitGroup
	for _, entry := range entries {
		entry := entry
		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			active, ok := o.verifyOne(ctx, cache, owner, head, entry)
			if !ok {
				return
			}
			mu.Lock()
			actives = append(actives, active)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return actives
}

// verifyOne live-verifies a single reconstructed entry and, if it survives,
// enriches it into an ActiveApproval.
func (o *Orchestrator) verifyOne(ctx context.Context, cache *scanCache, owner common.Address, head uint64, entry approval.ParsedApproval) (approval.ActiveApproval, bool) {
	switch entry.Kind {
	case approval.ERC721Single:
		// Per-token approvals are out of scope for the aggregate report; see
		// DESIGN.md's Open Question decision.
		metrics.ApprovalDroppedInc("single_token_scope")
		return approval.ActiveApproval{}, false

	case approval.ERC20:
		allowance, err := o.gateway.GetAllowance(ctx, entry.Token, owner, entry.Spender)
		if err != nil {
			o.log.Debugw("get_allowance failed", "token", entry.Token.Hex(), "spender", entry.Spender.Hex(), "error", err)
			metrics.ApprovalDroppedInc("live_verify_failed")
			return approval.ActiveApproval{}, false
		}
		if allowance == nil || allowance.IsZero() {
			metrics.ApprovalDroppedInc("revoked_on_chain")
			return approval.ActiveApproval{}, false
		}
		return o.buildActive(ctx, cache, head, entry, entry.Kind, allowance, approval.IsUnlimited(allowance)), true

	case approval.ERC721All, approval.ERC1155All:
		approved, err := o.gateway.IsApprovedForAll(ctx, entry.Token, owner, entry.Spender)
		if err != nil {
			o.log.Debugw("is_approved_for_all failed", "token", entry.Token.Hex(), "spender", entry.Spender.Hex(), "error", err)
			metrics.ApprovalDroppedInc("live_verify_failed")
			return approval.ActiveApproval{}, false
		}
		if !approved {
			metrics.ApprovalDroppedInc("revoked_on_chain")
			return approval.ActiveApproval{}, false
		}
		standard := o.detectStandard(ctx, entry.Token, entry.Kind)
		return o.buildActive(ctx, cache, head, entry, standard, nil, true), true

	default:
		return approval.ActiveApproval{}, false
	}
}

// detectStandard probes ERC-165 to resolve whether a collection granting
// ApprovalForAll is ERC-721 or ERC-1155. A contract answering neither (or
// erroring) keeps the parser's default tag.
func (o *Orchestrator) detectStandard(ctx context.Context, token common.Address, fallback approval.Kind) approval.Kind {
	if is721, err := o.gateway.SupportsInterface(ctx, token, erc721InterfaceID); err == nil && is721 {
		return approval.ERC721All
	}
	if is1155, err := o.gateway.SupportsInterface(ctx, token, erc1155InterfaceID); err == nil && is1155 {
		return approval.ERC1155All
	}
	return fallback
}

// buildActive resolves token/spender metadata for a surviving entry and
// assembles the enriched ActiveApproval.
func (o *Orchestrator) buildActive(ctx context.Context, cache *scanCache, head uint64, entry approval.ParsedApproval, kind approval.Kind, allowance *uint256.Int, unlimited bool) approval.ActiveApproval {
	token := cache.tokenInfo(ctx, o.gateway, entry.Token)
	token.Standard = kind
	spender := cache.spenderInfo(ctx, o.gateway, o.classifier, entry.Spender)

	originTimestamp, ageDays := o.resolveAge(ctx, head, entry.BlockNumber)

	return approval.ActiveApproval{
		Token:            token,
		Spender:          spender,
		Kind:             kind,
		LiveAllowance:    allowance,
		IsUnlimited:      unlimited,
		OriginBlock:      entry.BlockNumber,
		OriginTimestamp:  originTimestamp,
		OriginTxHash:     entry.TxHash,
		AgeDays:          ageDays,
		AllowanceDisplay: formatAllowance(unlimited, isAllKind(kind), allowance, token.Decimals),
	}
}

// resolveAge prefers the approval's own block timestamp; if that RPC call
// fails it falls back to a block-time approximation rather than dropping
// the entry.
func (o *Orchestrator) resolveAge(ctx context.Context, head, blockNumber uint64) (uint64, float64) {
	ts, err := o.gateway.BlockTimestamp(ctx, blockNumber)
	if err == nil && ts > 0 {
		ageSeconds := time.Now().Unix() - int64(ts)
		if ageSeconds < 0 {
			ageSeconds = 0
		}
		return ts, float64(ageSeconds) / 86400.0
	}

	if head <= blockNumber {
		return 0, 0
	}
	blocksBehind := head - blockNumber
	ageSeconds := blocksBehind * o.cfg.BlockTimeSeconds
	return 0, float64(ageSeconds) / 86400.0
}

func isAllKind(kind approval.Kind) bool {
	return kind == approval.ERC721All || kind == approval.ERC1155All
}

// tokenInfo resolves and caches a token's metadata for the life of one scan.
func (c *scanCache) tokenInfo(ctx context.Context, gateway pkgrpc.Gateway, token common.Address) approval.TokenInfo {
	c.mu.Lock()
	if info, ok := c.tokenCache[token]; ok {
		c.mu.Unlock()
		return info
	}
	c.mu.Unlock()

	v, _, _ := c.tokenGroup.Do(token.Hex(), func() (any, error) {
		meta, err := gateway.GetTokenInfo(ctx, token)
		if err != nil {
			meta = pkgrpc.TokenMetadata{Decimals: 18}
		}
		info := approval.TokenInfo{
			Address:  token,
			Symbol:   meta.Symbol,
			Name:     meta.Name,
			Decimals: meta.Decimals,
		}
		c.mu.Lock()
		c.tokenCache[token] = info
		c.mu.Unlock()
		return info, nil
	})
	return v.(approval.TokenInfo)
}

// spenderInfo resolves and caches a spender's is_contract flag and
// classification for the life of one scan.
func (c *scanCache) spenderInfo(ctx context.Context, gateway pkgrpc.Gateway, cls *classifier.Classifier, spender common.Address) approval.SpenderInfo {
	c.mu.Lock()
	if info, ok := c.spenderCache[spender]; ok {
		c.mu.Unlock()
		return info
	}
	c.mu.Unlock()

	v, _, _ := c.spenderGroup.Do(spender.Hex(), func() (any, error) {
		code, err := gateway.GetCode(ctx, spender)
		isContract := err == nil && len(code) > 0

		info := cls.Classify(ctx, spender, isContract)

		c.mu.Lock()
		c.spenderCache[spender] = info
		c.mu.Unlock()
		return info, nil
	})
	return v.(approval.SpenderInfo)
}

// formatAllowance mirrors the original service's format_allowance display
// rule: "Unlimited" for ERC-20 unlimited allowances, "All Tokens" for an
// active *_ALL approval, otherwise the decimal value scaled by decimals with
// K/M/B suffixes above the corresponding thresholds.
func formatAllowance(unlimited, allKind bool, raw *uint256.Int, decimals uint8) string {
	if allKind {
		return "All Tokens"
	}
	if unlimited {
		return "Unlimited"
	}
	if raw == nil || raw.IsZero() {
		return "0.0000"
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Quo(new(big.Float).SetInt(raw.ToBig()), divisor)
	f, _ := scaled.Float64()

	switch {
	case f >= 1_000_000_000:
		return formatSuffixed(f/1_000_000_000, "B")
	case f >= 1_000_000:
		return formatSuffixed(f/1_000_000, "M")
	case f >= 1_000:
		return formatSuffixed(f/1_000, "K")
	default:
		return formatSuffixed(f, "")
	}
}

func formatSuffixed(f float64, suffix string) string {
	if suffix == "" {
		return strconv.FormatFloat(f, 'f', 4, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64) + suffix
}
