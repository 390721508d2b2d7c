// Package logparser decodes raw ERC-20/721/1155 approval event logs into
// typed approval.ParsedApproval records.
//
// ERC-20's Approval(address,address,uint256) and ERC-721's single-token
// Approval(address,address,uint256) share an identical event signature;
// this package disambiguates them by topic arity, as prescribed by the
// spec's Log Parser design (topic[0]=signature, 3 topics + 32-byte data for
// ERC-20, 4 topics for ERC-721). ApprovalForAll is unambiguous and covers
// both ERC-721 and ERC-1155; Kind stays ERC721All/ERC1155All only
// resolved later by the orchestrator's live contract read.
package logparser

import (
	"strconv"
	"strings"

	"github.com/approvalguard/approvalguard/internal/logger"
	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ApprovalTopic is keccak256("Approval(address,address,uint256)").
var ApprovalTopic = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))

// ApprovalForAllTopic is keccak256("ApprovalForAll(address,address,bool)").
var ApprovalForAllTopic = crypto.Keccak256Hash([]byte("ApprovalForAll(address,address,bool)"))

const dataWordLen = 32 // bytes in one ABI-encoded 256-bit word

// Parser decodes RawLog values into ParsedApproval records. A single
// instance is stateless and safe for concurrent use.
type Parser struct {
	log *logger.Logger
}

// New creates a Parser. log may be nil, in which case a no-op logger is used.
func New(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Parser{log: log.WithComponent("log-parser")}
}

// ParseAll decodes every log in raws, skipping (not failing on) malformed
// entries. Order of the returned slice matches the order of raws.
func (p *Parser) ParseAll(raws []approval.RawLog) []approval.ParsedApproval {
	out := make([]approval.ParsedApproval, 0, len(raws))
	for _, raw := range raws {
		parsed, ok := p.ParseOne(raw)
		if !ok {
			continue
		}
		out = append(out, parsed)
	}
	return out
}

// ParseOne decodes a single raw log. The second return value is false if the
// log is malformed or not one of the two recognized event signatures, in
// which case it should be dropped rather than treated as fatal.
func (p *Parser) ParseOne(raw approval.RawLog) (approval.ParsedApproval, bool) {
	if len(raw.Topics) == 0 {
		return approval.ParsedApproval{}, false
	}

	tokenAddr, ok := unpadAddress(raw.Address)
	if !ok {
		p.log.Debugw("dropping log with empty token address", "txHash", raw.TxHash)
		return approval.ParsedApproval{}, false
	}

	signature := common.HexToHash(raw.Topics[0])

	switch signature {
	case ApprovalTopic:
		return p.parseApproval(raw, tokenAddr)
	case ApprovalForAllTopic:
		return p.parseApprovalForAll(raw, tokenAddr)
	default:
		return approval.ParsedApproval{}, false
	}
}

func (p *Parser) parseApproval(raw approval.RawLog, token common.Address) (approval.ParsedApproval, bool) {
	owner, ok := topicAddress(raw.Topics, 1)
	if !ok {
		return approval.ParsedApproval{}, false
	}
	spender, ok := topicAddress(raw.Topics, 2)
	if !ok {
		return approval.ParsedApproval{}, false
	}

	base := approval.ParsedApproval{
		Token:       token,
		Owner:       owner,
		Spender:     spender,
		BlockNumber: parseHexUint64(raw.BlockNumber),
		LogIndex:    uint32(parseHexUint64(raw.LogIndex)),
		TxHash:      common.HexToHash(raw.TxHash),
	}

	switch len(raw.Topics) {
	case 4:
		// ERC-721 single-token approval: tokenId is topic[3].
		tokenID, ok := hexToUint256(raw.Topics[3])
		if !ok {
			return approval.ParsedApproval{}, false
		}
		base.Kind = approval.ERC721Single
		base.TokenID = tokenID
		return base, true
	case 3:
		data := strings.TrimPrefix(raw.Data, "0x")
		if len(data) != dataWordLen*2 {
			return approval.ParsedApproval{}, false
		}
		value, ok := hexToUint256(raw.Data)
		if !ok {
			return approval.ParsedApproval{}, false
		}
		base.Kind = approval.ERC20
		base.Value = value
		return base, true
	default:
		return approval.ParsedApproval{}, false
	}
}

func (p *Parser) parseApprovalForAll(raw approval.RawLog, token common.Address) (approval.ParsedApproval, bool) {
	if len(raw.Topics) != 3 {
		return approval.ParsedApproval{}, false
	}

	owner, ok := topicAddress(raw.Topics, 1)
	if !ok {
		return approval.ParsedApproval{}, false
	}
	operator, ok := topicAddress(raw.Topics, 2)
	if !ok {
		return approval.ParsedApproval{}, false
	}

	data := strings.TrimPrefix(raw.Data, "0x")
	approved := false
	if len(data) > 0 {
		// The boolean lives in the LSB of the 32-byte word.
		approved = data[len(data)-1] != '0'
	}

	return approval.ParsedApproval{
		Token:        token,
		Owner:        owner,
		Spender:      operator,
		Kind:         approval.ERC721All, // disambiguated from ERC1155All downstream
		ApprovedFlag: approved,
		BlockNumber:  parseHexUint64(raw.BlockNumber),
		LogIndex:     uint32(parseHexUint64(raw.LogIndex)),
		TxHash:       common.HexToHash(raw.TxHash),
	}, true
}

// topicAddress extracts and unpads the address stored in topics[idx].
func topicAddress(topics []string, idx int) (common.Address, bool) {
	if idx >= len(topics) {
		return common.Address{}, false
	}
	addr, ok := unpadAddress(topics[idx])
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// unpadAddress takes the last 20 bytes of a 32-byte padded topic (or a plain
// address string) and returns it as a lowercase "0x"-prefixed string. Empty
// or too-short input yields ("", false) so callers can drop the record.
func unpadAddress(s string) (string, bool) {
	hex := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(hex) < 40 {
		return "", false
	}
	return "0x" + hex[len(hex)-40:], true
}

func parseHexUint64(s string) uint64 {
	hex := strings.TrimPrefix(s, "0x")
	if hex == "" {
		return 0
	}
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

func hexToUint256(s string) (*uint256.Int, bool) {
	hex := strings.TrimPrefix(s, "0x")
	if hex == "" {
		return uint256.NewInt(0), true
	}
	v, err := uint256.FromHex("0x" + hex)
	if err != nil {
		return nil, false
	}
	return v, true
}
