package logparser

import (
	"strings"
	"testing"

	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func padAddress(addr string) string {
	hex := strings.TrimPrefix(strings.ToLower(addr), "0x")
	return "0x" + strings.Repeat("0", 64-len(hex)) + hex
}

func padUint(v uint64) string {
	word := uint256.NewInt(v).Bytes32()
	return "0x" + common.Bytes2Hex(word[:])
}

const (
	owner   = "0x1111111111111111111111111111111111111111"
	spender = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	token   = "0x2222222222222222222222222222222222222222"
)

func TestParseOne_ERC20Approval(t *testing.T) {
	p := New(nil)

	raw := approval.RawLog{
		Address: token,
		Topics: []string{
			ApprovalTopic.Hex(),
			padAddress(owner),
			padAddress(spender),
		},
		Data:        padUint(256),
		BlockNumber: "0x112a880",
		LogIndex:    "0x1",
		TxHash:      "0x" + strings.Repeat("ab", 32),
	}

	parsed, ok := p.ParseOne(raw)
	require.True(t, ok)
	require.Equal(t, approval.ERC20, parsed.Kind)
	require.Equal(t, common.HexToAddress(owner), parsed.Owner)
	require.Equal(t, common.HexToAddress(spender), parsed.Spender)
	require.Equal(t, common.HexToAddress(token), parsed.Token)
	require.NotNil(t, parsed.Value)
	require.Equal(t, uint64(256), parsed.Value.Uint64())
	require.Nil(t, parsed.TokenID)
	require.Equal(t, uint64(18000000), parsed.BlockNumber)
}

func TestParseOne_ERC721Single(t *testing.T) {
	p := New(nil)

	raw := approval.RawLog{
		Address: token,
		Topics: []string{
			ApprovalTopic.Hex(),
			padAddress(owner),
			padAddress(spender),
			padUint(42),
		},
		Data:        "0x",
		BlockNumber: "0x64",
		LogIndex:    "0x0",
		TxHash:      "0x" + strings.Repeat("cd", 32),
	}

	parsed, ok := p.ParseOne(raw)
	require.True(t, ok)
	require.Equal(t, approval.ERC721Single, parsed.Kind)
	require.NotNil(t, parsed.TokenID)
	require.Equal(t, uint64(42), parsed.TokenID.Uint64())
	require.Nil(t, parsed.Value)
}

func TestParseOne_ApprovalForAll(t *testing.T) {
	p := New(nil)

	raw := approval.RawLog{
		Address: token,
		Topics: []string{
			ApprovalForAllTopic.Hex(),
			padAddress(owner),
			padAddress(spender),
		},
		Data:        "0x" + strings.Repeat("0", 63) + "1",
		BlockNumber: "0x64",
		LogIndex:    "0x2",
		TxHash:      "0x" + strings.Repeat("ef", 32),
	}

	parsed, ok := p.ParseOne(raw)
	require.True(t, ok)
	require.Equal(t, approval.ERC721All, parsed.Kind)
	require.True(t, parsed.ApprovedFlag)
}

func TestParseOne_ApprovalForAllFalse(t *testing.T) {
	p := New(nil)

	raw := approval.RawLog{
		Address:     token,
		Topics:      []string{ApprovalForAllTopic.Hex(), padAddress(owner), padAddress(spender)},
		Data:        "0x" + strings.Repeat("0", 64),
		BlockNumber: "0x64",
		LogIndex:    "0x2",
		TxHash:      "0x" + strings.Repeat("ef", 32),
	}

	parsed, ok := p.ParseOne(raw)
	require.True(t, ok)
	require.False(t, parsed.ApprovedFlag)
}

// S6: Standard disambiguation between two logs sharing the Approval topic.
func TestParseAll_S6Disambiguation(t *testing.T) {
	p := New(nil)

	erc721 := approval.RawLog{
		Address:     token,
		Topics:      []string{ApprovalTopic.Hex(), padAddress(owner), padAddress(spender), padUint(42)},
		Data:        "0x",
		BlockNumber: "0x1",
		LogIndex:    "0x0",
		TxHash:      "0x" + strings.Repeat("11", 32),
	}
	erc20 := approval.RawLog{
		Address:     token,
		Topics:      []string{ApprovalTopic.Hex(), padAddress(owner), padAddress(spender)},
		Data:        padUint(256),
		BlockNumber: "0x2",
		LogIndex:    "0x0",
		TxHash:      "0x" + strings.Repeat("22", 32),
	}

	results := p.ParseAll([]approval.RawLog{erc721, erc20})
	require.Len(t, results, 2)
	require.Equal(t, approval.ERC721Single, results[0].Kind)
	require.Equal(t, uint64(42), results[0].TokenID.Uint64())
	require.Equal(t, approval.ERC20, results[1].Kind)
	require.Equal(t, uint64(256), results[1].Value.Uint64())
}

func TestParseOne_DropsMalformed(t *testing.T) {
	p := New(nil)

	cases := []approval.RawLog{
		{Topics: nil},
		{Address: token, Topics: []string{ApprovalTopic.Hex()}}, // no owner/spender
		{Address: token, Topics: []string{ApprovalTopic.Hex(), padAddress(owner), padAddress(spender)}, Data: "0x00"},
		{Address: "", Topics: []string{ApprovalTopic.Hex(), padAddress(owner), padAddress(spender)}, Data: padUint(1)},
		{Address: token, Topics: []string{common.HexToHash("0xdeadbeef").Hex(), padAddress(owner), padAddress(spender)}},
	}

	for i, c := range cases {
		_, ok := p.ParseOne(c)
		require.False(t, ok, "case %d should be dropped", i)
	}
}

// Property 7: unpad(pad(a)) = lower(a).
func TestUnpadAddress_RoundTrip(t *testing.T) {
	addrs := []string{owner, spender, token, "0x0000000000000000000000000000000000000000"}
	for _, a := range addrs {
		padded := padAddress(a)
		unpadded, ok := unpadAddress(padded)
		require.True(t, ok)
		require.Equal(t, strings.ToLower(a), unpadded)
	}

	_, ok := unpadAddress("")
	require.False(t, ok)
}
