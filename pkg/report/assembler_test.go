package report

import (
	"testing"

	"github.com/approvalguard/approvalguard/pkg/approval"
	"github.com/approvalguard/approvalguard/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestAssembleBucketsAndSortsByScoreDescending(t *testing.T) {
	t.Parallel()

	wallet := common.HexToAddress("0x000000000000000000000000000000000000aa")
	chain := config.ChainConfig{ChainID: 1, Name: "Ethereum", ExplorerBase: "https://etherscan.io"}

	actives := []approval.ActiveApproval{
		{ // dangerous: unlimited + eoa
			Kind:        approval.ERC20,
			IsUnlimited: true,
			Spender:     approval.SpenderInfo{Address: common.HexToAddress("0x1"), IsContract: false},
		},
		{ // safe: no factors
			Kind:    approval.ERC20,
			Spender: approval.SpenderInfo{Address: common.HexToAddress("0x2"), IsContract: true, Verified: true},
		},
		{ // risky: unlimited known contract
			Kind:        approval.ERC20,
			IsUnlimited: true,
			Spender:     approval.SpenderInfo{Address: common.HexToAddress("0x3"), IsContract: true, Verified: true},
		},
	}

	result := Assemble(wallet, 1, chain, actives)

	require.Len(t, result.Dangerous, 1)
	require.Len(t, result.Risky, 1)
	require.Len(t, result.Safe, 1)
	require.Equal(t, 3, result.Summary.TotalApprovals)

	require.Contains(t, result.Dangerous[0].RevokeURL, wallet.Hex())
	require.Contains(t, result.Dangerous[0].RevokeURL, "chainId=1")
	require.Contains(t, result.Dangerous[0].ExplorerURL, "etherscan.io")
}

func TestAssembleEmptyApprovalsYieldsPerfectHygiene(t *testing.T) {
	t.Parallel()

	wallet := common.HexToAddress("0x000000000000000000000000000000000000aa")
	chain := config.ChainConfig{ChainID: 1, ExplorerBase: "https://etherscan.io"}

	result := Assemble(wallet, 1, chain, nil)

	require.Equal(t, 100, result.Summary.HygieneScore)
	require.Equal(t, "Excellent", result.Summary.HygieneLabel)
	require.Empty(t, result.Dangerous)
	require.Empty(t, result.Risky)
	require.Empty(t, result.Safe)
}

func TestBuildShareCardTiers(t *testing.T) {
	t.Parallel()

	wallet := common.HexToAddress("0x1234567890123456789012345678901234567890")

	dangerous := approval.ScanResult{
		Wallet:  wallet,
		Summary: approval.Summary{HygieneScore: 20, Dangerous: 2},
	}
	card := BuildShareCard(dangerous)
	require.Contains(t, card.ShareText, "dangerous")
	require.Equal(t, "0x1234...7890", card.WalletShort)

	risky := approval.ScanResult{Wallet: wallet, Summary: approval.Summary{HygieneScore: 60, Risky: 1}}
	require.Contains(t, BuildShareCard(risky).ShareText, "risky")

	clean := approval.ScanResult{Wallet: wallet, Summary: approval.Summary{HygieneScore: 100}}
	require.Contains(t, BuildShareCard(clean).ShareText, "clean")
}
