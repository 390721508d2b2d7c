// Package classifier implements the Spender Classifier: it tells an EOA
// apart from a contract, and a known, verified protocol from an unverified
// one. The known-protocol table is immutable and read-only, matching the
// concurrency model's requirement that it needs no locking.
package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/approvalguard/approvalguard/internal/logger"
	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/ethereum/go-ethereum/common"
)

// knownSpenders is the static allowlist of well-known protocol addresses,
// carried over verbatim from the RevokeMe original's SpenderAnalyzer since
// spec.md's §4.5 references this list only by category. Keys are lowercase
// "0x"-prefixed addresses.
var knownSpenders = map[string]string{
	"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45": "Uniswap: Universal Router",
	"0xef1c6e67703c7bd7107eed8303fbe6ec2554bf6b": "Uniswap: Universal Router 2",
	"0x3fc91a3afd70395cd496c647d5a6cc9d4b2b7fad": "Uniswap: Universal Router 3",
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2: Router 2",
	"0xe592427a0aece92de3edee1f18e0157c05861564": "Uniswap V3: Router",

	"0x1e0049783f008a0085193e00003d00cd54003c71": "OpenSea: Seaport 1.4",
	"0x00000000000001ad428e4906ae43d8f9852d0dd6": "OpenSea: Seaport 1.5",
	"0x00000000000000adc04c56bf30ac9d3c0aaf14dc": "OpenSea: Seaport 1.6",

	"0x000000000000ad05ccc4f10045630fb830b95127": "Blur: Marketplace",
	"0x29469395eaf6f95920e59f858042f0e28d98a20b": "Blur: Blend",

	"0x1111111254eeb25477b68fb85ed929f73a960582": "1inch: Aggregation Router V5",
	"0x111111125421ca6dc452d289314280a0f8842a65": "1inch: Aggregation Router V6",

	"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9": "Aave: AAVE Token",
	"0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2": "Aave: Pool V3",

	"0xc00e94cb662c3520282e6f5717214004a7f26888": "Compound: COMP Token",

	"0x000000000022d473030f116ddee9f6b43ac78ba3": "Uniswap: Permit2",
}

// IsKnownProtocol reports whether address belongs to the static allowlist.
func IsKnownProtocol(address common.Address) bool {
	_, ok := knownSpenders[strings.ToLower(address.Hex())]
	return ok
}

// ProtocolName returns the display name for a known protocol address, or ""
// if it is not in the allowlist.
func ProtocolName(address common.Address) string {
	return knownSpenders[strings.ToLower(address.Hex())]
}

// explorerSourceEndpoint is Etherscan's contract-source lookup; other chains
// route through the same API shape under their own base URL, but the static
// client here targets the etherscan.io V1 API used by the original service.
const explorerSourceEndpoint = "https://api.etherscan.io/api"

// explorerResponse is the subset of Etherscan's getsourcecode payload this
// classifier cares about.
type explorerResponse struct {
	Status string `json:"status"`
	Result []struct {
		ContractName string `json:"ContractName"`
	} `json:"result"`
}

// Classifier classifies spender addresses per spec.md §4.5: known allowlist
// first, then an optional block-explorer lookup, falling back to
// is_contract-only when neither resolves verification.
type Classifier struct {
	httpClient *http.Client
	apiKey     string
	log        *logger.Logger

	mu    sync.Mutex
	cache map[common.Address]approval.SpenderInfo
}

// New creates a Classifier. apiKey enables step 2 (explorer lookups); an
// empty key skips straight to the get_code-only fallback. log may be nil.
func New(apiKey string, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Classifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		log:        log.WithComponent("spender-classifier"),
		cache:      make(map[common.Address]approval.SpenderInfo),
	}
}

// Classify resolves a spender's display name and verification status.
// isContract is supplied by the caller (from the orchestrator's get_code
// probe) since this package has no RPC access of its own.
func (c *Classifier) Classify(ctx context.Context, address common.Address, isContract bool) approval.SpenderInfo {
	c.mu.Lock()
	if cached, ok := c.cache[address]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	info := approval.SpenderInfo{Address: address, IsContract: isContract}

	if name := ProtocolName(address); name != "" {
		info.DisplayName = name
		info.Verified = true
		info.SourceAvailable = true
	} else if c.apiKey != "" {
		if name, ok := c.lookupExplorer(ctx, address); ok {
			info.DisplayName = name
			info.Verified = true
			info.SourceAvailable = true
		}
	}

	c.mu.Lock()
	c.cache[address] = info
	c.mu.Unlock()

	return info
}

// lookupExplorer queries the block explorer's contract-source endpoint. A
// network failure or unverified result falls through to (false) rather than
// propagating an error, matching spec.md's "network failure falls through to
// step 3" policy.
func (c *Classifier) lookupExplorer(ctx context.Context, address common.Address) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, explorerSourceEndpoint, nil)
	if err != nil {
		return "", false
	}

	q := req.URL.Query()
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address.Hex())
	q.Set("apikey", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debugw("explorer lookup failed", "address", address.Hex(), "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var parsed explorerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false
	}

	if parsed.Status != "1" || len(parsed.Result) == 0 {
		return "", false
	}

	name := parsed.Result[0].ContractName
	return name, name != ""
}
