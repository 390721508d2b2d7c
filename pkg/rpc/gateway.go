// Package rpc defines the Gateway contract: a thin, typed front to a single
// JSON-RPC endpoint. Everything above this layer (log parsing, state
// reconstruction, scoring) is pure and synchronous; every suspension point
// in the scan pipeline passes through one of these methods.
package rpc

import (
	"context"

	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LogQuery describes one eth_getLogs call. Topics are positional:
// Topics[0] is always the event signature; Topics[1], when non-zero, is the
// 32-byte-padded owner address. FromBlock is a block number; ToBlock is
// either a hex block number or the literal "latest".
type LogQuery struct {
	Topics    [2]common.Hash
	FromBlock uint64
	ToBlock   string
}

// TokenMetadata is the result of get_token_info: each field is independently
// fault-tolerant and defaults when its underlying call fails.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// Gateway is the RPC Gateway contract described by the scanner design: it
// issues JSON-RPC calls, retries per its configured policy, and decodes
// primitive results. It does not interpret approval semantics — that is the
// Log Parser and Scanner Orchestrator's job.
type Gateway interface {
	// HeadBlock returns the current chain head block number.
	HeadBlock(ctx context.Context) (uint64, error)

	// BlockTimestamp returns the unix timestamp of block. Returns 0 if the
	// block cannot be resolved rather than erroring, per spec.
	BlockTimestamp(ctx context.Context, block uint64) (uint64, error)

	// GetLogs executes one log query and returns raw, undecoded log
	// records; interpretation of topics/data is deliberately left to the
	// Log Parser.
	GetLogs(ctx context.Context, query LogQuery) ([]approval.RawLog, error)

	// GetAllowance reads ERC-20 allowance(owner, spender) via selector
	// 0xdd62ed3e. Returns 0 on an empty result.
	GetAllowance(ctx context.Context, token, owner, spender common.Address) (*uint256.Int, error)

	// IsApprovedForAll reads ERC-721/1155 isApprovedForAll(owner, operator)
	// via selector 0xe985e9c5.
	IsApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error)

	// GetCode returns the deployed bytecode at address. An empty result
	// means the address is an EOA.
	GetCode(ctx context.Context, address common.Address) ([]byte, error)

	// SupportsInterface probes ERC-165 (selector 0x01ffc9a7) for a given
	// 4-byte interface id. Used to disambiguate ERC-721 from ERC-1155 once
	// an ApprovalForAll has been confirmed live, since the two standards
	// share an identical event and isApprovedForAll signature. A call
	// failure (non-165 contract) is treated as "false", not an error.
	SupportsInterface(ctx context.Context, token common.Address, interfaceID [4]byte) (bool, error)

	// GetTokenInfo resolves symbol/name/decimals, each independently
	// fault-tolerant: a failing call yields the field's zero value (empty
	// string, or 18 for decimals) rather than failing the whole call.
	GetTokenInfo(ctx context.Context, token common.Address) (TokenMetadata, error)

	// Close releases the underlying transport.
	Close()
}
