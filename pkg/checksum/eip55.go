// Package checksum validates and formats Ethereum addresses per EIP-55.
//
// The original scanner this service descends from computed its checksum
// digest with SHA3-256 instead of Keccak-256 — the two differ in padding and
// were finalized at different times, so the original's checksums do not
// match what wallets and block explorers produce. This package uses
// Keccak-256 (via go-ethereum's common.Address.Hex), which is what EIP-55
// actually specifies.
package checksum

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var addressFormat = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidFormat reports whether s is a syntactically valid address: "0x"
// followed by exactly 40 hex characters. It does not check checksum casing.
func ValidFormat(s string) bool {
	return addressFormat.MatchString(s)
}

// ToChecksum returns the EIP-55 mixed-case checksum form of a valid address.
func ToChecksum(address string) string {
	return common.HexToAddress(address).Hex()
}

// ValidateChecksum reports whether address has a correct EIP-55 checksum.
// All-lowercase and all-uppercase addresses are considered unchecksummed and
// always pass, matching the EIP-55 rule that checksum casing is opt-in.
func ValidateChecksum(address string) bool {
	hex := strings.TrimPrefix(address, "0x")
	if hex == strings.ToLower(hex) || hex == strings.ToUpper(hex) {
		return true
	}
	return address == ToChecksum(address)
}

// Normalize validates format and checksum casing, then returns the canonical
// lowercase form used as the storage representation throughout this service.
// Per the data model, equality is case-insensitive and storage is
// lowercase; checksum validation is only a rejection gate for mistyped
// mixed-case input.
func Normalize(address string) (string, error) {
	if !ValidFormat(address) {
		return "", fmt.Errorf("invalid address format: %q", address)
	}
	if !ValidateChecksum(address) {
		return "", fmt.Errorf("invalid checksum for address: %q", address)
	}
	return strings.ToLower(address), nil
}
