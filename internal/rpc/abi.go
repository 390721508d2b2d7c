package rpc

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const word = 32

// selector returns the first 4 bytes of keccak256(signature), the standard
// ABI function selector.
func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// encodeAddress left-pads addr to a 32-byte ABI word.
func encodeAddress(addr common.Address) []byte {
	buf := make([]byte, word)
	copy(buf[word-common.AddressLength:], addr.Bytes())
	return buf
}

// encodeBytes4 right-pads a static bytes4 value to a 32-byte ABI word, per
// the ABI spec's treatment of fixed-size byte arrays.
func encodeBytes4(id [4]byte) []byte {
	buf := make([]byte, word)
	copy(buf[:4], id[:])
	return buf
}

// buildCalldata concatenates a selector with any number of pre-encoded
// 32-byte argument words.
func buildCalldata(signature string, args ...[]byte) string {
	var b strings.Builder
	b.WriteString("0x")
	b.WriteString(common.Bytes2Hex(selector(signature)))
	for _, a := range args {
		b.WriteString(common.Bytes2Hex(a))
	}
	return b.String()
}

// decodeUint256 reads the first 32-byte word of an eth_call result as an
// unsigned 256-bit integer, returning 0 for an empty result.
func decodeUint256(hexData string) *uint256.Int {
	data := common.FromHex(hexData)
	if len(data) < word {
		return uint256.NewInt(0)
	}
	v := new(uint256.Int)
	v.SetBytes(data[:word])
	return v
}

// decodeBool reads the LSB of the first 32-byte word.
func decodeBool(hexData string) bool {
	data := common.FromHex(hexData)
	if len(data) < word {
		return false
	}
	return data[word-1] != 0
}

// decodeDynamicString decodes an ABI-encoded `string` return value: a
// 32-byte offset (conventionally 0x20), a 32-byte length, then the UTF-8
// bytes padded to the next word boundary. Some non-compliant tokens (MKR is
// the canonical example) return a raw bytes32 instead; when the standard
// layout doesn't parse cleanly this falls back to treating the first word as
// a short, NUL-padded UTF-8 string.
func decodeDynamicString(hexData string) string {
	data := common.FromHex(hexData)
	if len(data) < word {
		return ""
	}

	if len(data) >= 2*word {
		length := new(uint256.Int).SetBytes(data[word : 2*word]).Uint64()
		start := 2 * word
		end := start + int(length)
		if length > 0 && end <= len(data) {
			return strings.TrimRight(string(data[start:end]), "\x00")
		}
	}

	return strings.TrimRight(string(data[:word]), "\x00")
}
