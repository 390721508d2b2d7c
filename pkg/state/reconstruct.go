// Package state reconstructs the current approval state from a heterogeneous
// stream of parsed log events. It is pure and deterministic: the same input
// slice always yields the same output map, regardless of concurrency or
// retry behavior upstream.
package state

import (
	"sort"

	"github.com/approvalguard/approvalguard/pkg/approval"
)

// Reconstruct applies latest-write-wins semantics over parsed, sorting by
// (block_number, log_index) ascending (stable, so same-key ties from a
// single log resolve by input order) and then replaying each record's
// upsert/delete rule in order:
//
//   - ERC20 with value == 0 deletes the key; value > 0 upserts.
//   - ERC721All/ERC1155All with approved_flag == false deletes; true upserts.
//   - ERC721Single always upserts under its per-tokenId key; a later
//     approval of the same tokenId to the zero address is the revocation,
//     deleting the same (token, tokenId) key regardless of which spender
//     held the prior approval.
//
// The returned map holds the last observed write per approval.Key.
func Reconstruct(parsed []approval.ParsedApproval) map[approval.Key]approval.ParsedApproval {
	ordered := make([]approval.ParsedApproval, len(parsed))
	copy(ordered, parsed)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BlockNumber != ordered[j].BlockNumber {
			return ordered[i].BlockNumber < ordered[j].BlockNumber
		}
		return ordered[i].LogIndex < ordered[j].LogIndex
	})

	result := make(map[approval.Key]approval.ParsedApproval)

	for _, p := range ordered {
		key := approval.NewKey(p)

		switch p.Kind {
		case approval.ERC20:
			if p.Value == nil || p.Value.IsZero() {
				delete(result, key)
				continue
			}
			result[key] = p

		case approval.ERC721All, approval.ERC1155All:
			if !p.ApprovedFlag {
				delete(result, key)
				continue
			}
			result[key] = p

		case approval.ERC721Single:
			if isZeroAddress(p.Spender) {
				delete(result, key)
				continue
			}
			result[key] = p
		}
	}

	return result
}

func isZeroAddress(addr [20]byte) bool {
	for _, b := range addr {
		if b != 0 {
			return false
		}
	}
	return true
}
