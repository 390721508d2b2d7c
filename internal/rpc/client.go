package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/approvalguard/approvalguard/pkg/config"
	pkgrpc "github.com/approvalguard/approvalguard/pkg/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// Compile-time check that Client implements pkgrpc.Gateway.
var _ pkgrpc.Gateway = (*Client)(nil)

// Client is the RPC Gateway: a raw JSON-RPC client kept deliberately
// low-level rather than wrapping ethclient.Client, because the Log Parser
// needs the log boundary's dynamically-typed shape (RawLog, hex-string
// integers) rather than go-ethereum's pre-decoded types.Log.
type Client struct {
	rpc         *rpc.Client
	retryConfig *config.RetryConfig
	callTimeout time.Duration
}

// NewClient dials endpoint and returns a ready-to-use Client.
func NewClient(ctx context.Context, endpoint string, cfg *config.RPCConfig) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial rpc endpoint: %w", err)
	}

	timeout := cfg.CallTimeout.Duration
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		rpc:         rpcClient,
		retryConfig: &cfg.Retry,
		callTimeout: timeout,
	}, nil
}

// Close releases the underlying transport.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

// HeadBlock implements pkgrpc.Gateway.
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	start := time.Now()
	RPCMethodInc("eth_blockNumber")
	defer func() { RPCMethodDuration("eth_blockNumber", time.Since(start)) }()

	var result hexutil.Uint64
	err := retryWithBackoff(ctx, c.retryConfig, "eth_blockNumber", func() error {
		cctx, cancel := c.withTimeout(ctx)
		defer cancel()
		return c.rpc.CallContext(cctx, &result, "eth_blockNumber")
	})
	if err != nil {
		RPCMethodError("eth_blockNumber", "error")
		return 0, newRPCError("eth_blockNumber", err)
	}
	return uint64(result), nil
}

// blockByNumberResult is the subset of eth_getBlockByNumber's response this
// gateway cares about.
type blockByNumberResult struct {
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

// BlockTimestamp implements pkgrpc.Gateway. Returns 0, nil if the block
// cannot be resolved rather than treating that as an error — callers fall
// back to the block-time approximation.
func (c *Client) BlockTimestamp(ctx context.Context, block uint64) (uint64, error) {
	start := time.Now()
	RPCMethodInc("eth_getBlockByNumber")
	defer func() { RPCMethodDuration("eth_getBlockByNumber", time.Since(start)) }()

	var result *blockByNumberResult
	err := retryWithBackoff(ctx, c.retryConfig, "eth_getBlockByNumber", func() error {
		cctx, cancel := c.withTimeout(ctx)
		defer cancel()
		return c.rpc.CallContext(cctx, &result, "eth_getBlockByNumber", toBlockNumArg(block), false)
	})
	if err != nil {
		RPCMethodError("eth_getBlockByNumber", "error")
		return 0, newRPCError("eth_getBlockByNumber", err)
	}
	if result == nil {
		return 0, nil
	}
	return uint64(result.Timestamp), nil
}

// GetLogs implements pkgrpc.Gateway. RawLog's JSON tags mirror the raw
// JSON-RPC log object exactly, so the result unmarshals directly with no
// intermediate type.
func (c *Client) GetLogs(ctx context.Context, query pkgrpc.LogQuery) ([]approval.RawLog, error) {
	start := time.Now()
	RPCMethodInc("eth_getLogs")
	defer func() { RPCMethodDuration("eth_getLogs", time.Since(start)) }()

	var logs []approval.RawLog
	err := retryWithBackoff(ctx, c.retryConfig, "eth_getLogs", func() error {
		cctx, cancel := c.withTimeout(ctx)
		defer cancel()
		logs = nil
		return c.rpc.CallContext(cctx, &logs, "eth_getLogs", toFilterArg(query))
	})
	if err != nil {
		RPCMethodError("eth_getLogs", "error")
		return nil, newRPCError("eth_getLogs", err)
	}
	return logs, nil
}

// GetAllowance implements pkgrpc.Gateway via selector 0xdd62ed3e.
func (c *Client) GetAllowance(ctx context.Context, token, owner, spender common.Address) (*uint256.Int, error) {
	data := buildCalldata("allowance(address,address)", encodeAddress(owner), encodeAddress(spender))
	result, err := c.ethCall(ctx, "eth_call_allowance", token, data)
	if err != nil {
		return nil, err
	}
	return decodeUint256(result), nil
}

// IsApprovedForAll implements pkgrpc.Gateway via selector 0xe985e9c5.
func (c *Client) IsApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error) {
	data := buildCalldata("isApprovedForAll(address,address)", encodeAddress(owner), encodeAddress(operator))
	result, err := c.ethCall(ctx, "eth_call_isApprovedForAll", token, data)
	if err != nil {
		return false, err
	}
	return decodeBool(result), nil
}

// SupportsInterface implements pkgrpc.Gateway via ERC-165 selector
// 0x01ffc9a7. A reverting or non-165 contract decodes to false rather than
// erroring, since absence of ERC-165 is not itself a failure.
func (c *Client) SupportsInterface(ctx context.Context, token common.Address, interfaceID [4]byte) (bool, error) {
	data := buildCalldata("supportsInterface(bytes4)", encodeBytes4(interfaceID))
	result, err := c.ethCall(ctx, "eth_call_supportsInterface", token, data)
	if err != nil {
		return false, nil
	}
	return decodeBool(result), nil
}

// GetCode implements pkgrpc.Gateway. An empty result means address is an
// EOA.
func (c *Client) GetCode(ctx context.Context, address common.Address) ([]byte, error) {
	start := time.Now()
	RPCMethodInc("eth_getCode")
	defer func() { RPCMethodDuration("eth_getCode", time.Since(start)) }()

	var result hexutil.Bytes
	err := retryWithBackoff(ctx, c.retryConfig, "eth_getCode", func() error {
		cctx, cancel := c.withTimeout(ctx)
		defer cancel()
		return c.rpc.CallContext(cctx, &result, "eth_getCode", address, "latest")
	})
	if err != nil {
		RPCMethodError("eth_getCode", "error")
		return nil, newRPCError("eth_getCode", err)
	}
	return result, nil
}

// GetTokenInfo implements pkgrpc.Gateway. Each field is resolved by an
// independent eth_call; a failing call yields that field's zero value
// (empty string, or decimals=18) rather than failing the whole lookup.
func (c *Client) GetTokenInfo(ctx context.Context, token common.Address) (pkgrpc.TokenMetadata, error) {
	info := pkgrpc.TokenMetadata{Decimals: 18}

	if result, err := c.ethCall(ctx, "eth_call_symbol", token, buildCalldata("symbol()")); err == nil {
		info.Symbol = decodeDynamicString(result)
	}
	if result, err := c.ethCall(ctx, "eth_call_name", token, buildCalldata("name()")); err == nil {
		info.Name = decodeDynamicString(result)
	}
	if result, err := c.ethCall(ctx, "eth_call_decimals", token, buildCalldata("decimals()")); err == nil {
		if v := decodeUint256(result); v != nil && !v.IsZero() {
			info.Decimals = uint8(v.Uint64())
		}
	}

	return info, nil
}

// ethCall issues a single eth_call against to with the given calldata and
// returns the raw hex result string.
func (c *Client) ethCall(ctx context.Context, metric string, to common.Address, data string) (string, error) {
	start := time.Now()
	RPCMethodInc(metric)
	defer func() { RPCMethodDuration(metric, time.Since(start)) }()

	arg := map[string]any{
		"to":   to,
		"data": data,
	}

	var result hexutil.Bytes
	err := retryWithBackoff(ctx, c.retryConfig, metric, func() error {
		cctx, cancel := c.withTimeout(ctx)
		defer cancel()
		return c.rpc.CallContext(cctx, &result, "eth_call", arg, "latest")
	})
	if err != nil {
		RPCMethodError(metric, "error")
		return "", newRPCError(metric, err)
	}
	return "0x" + common.Bytes2Hex(result), nil
}

// toFilterArg converts a LogQuery into the object eth_getLogs expects.
func toFilterArg(q pkgrpc.LogQuery) any {
	topics := []any{q.Topics[0]}
	if q.Topics[1] != (common.Hash{}) {
		topics = append(topics, q.Topics[1])
	}

	arg := map[string]any{
		"topics":    topics,
		"fromBlock": toBlockNumArg(q.FromBlock),
	}

	if q.ToBlock == "" {
		arg["toBlock"] = "latest"
	} else {
		arg["toBlock"] = q.ToBlock
	}

	return arg
}

// toBlockNumArg converts a block number to hex format.
func toBlockNumArg(blockNum uint64) string {
	return fmt.Sprintf("0x%x", blockNum)
}
