package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{"valid lowercase", "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", true},
		{"valid mixed case", "0x7a250D5630B4Cf539739dF2C5dAcb4c659F2488D", true},
		{"missing prefix", "7a250d5630b4cf539739df2c5dacb4c659f2488d", false},
		{"too short", "0x1234", false},
		{"too long", "0x7a250d5630b4cf539739df2c5dacb4c659f2488d00", false},
		{"non-hex characters", "0x7a250d5630b4cf539739df2c5dacb4c659f248zz", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidFormat(tt.addr))
		})
	}
}

func TestValidateChecksum_AllLowerOrUpperBypass(t *testing.T) {
	require.True(t, ValidateChecksum("0x7a250d5630b4cf539739df2c5dacb4c659f2488d"))
	require.True(t, ValidateChecksum("0x7A250D5630B4CF539739DF2C5DACB4C659F2488D"))
}

func TestChecksumRoundTrip(t *testing.T) {
	// Property 8: for any valid lowercase address, validate(to_checksum(a)) = true.
	addrs := []string{
		"0x7a250d5630b4cf539739df2c5dacb4c659f2488d",
		"0x0000000000000000000000000000000000000000",
		"0xffffffffffffffffffffffffffffffffffffffff",
		"0x1111111254eeb25477b68fb85ed929f73a960582",
	}

	for _, a := range addrs {
		checksummed := ToChecksum(a)
		require.True(t, ValidateChecksum(checksummed), "checksum of %s should validate", a)

		// Flipping a single letter's case should break validation. An
		// address with no a-f letter (the zero address here) has nothing to
		// flip and is skipped.
		flipped := flipFirstLetterCase(t, checksummed)
		if flipped != checksummed {
			require.False(t, ValidateChecksum(flipped), "case-flipped checksum of %s should fail", a)
		}
	}
}

// flipFirstLetterCase flips the case of the first a-f letter found, to
// produce a single-character-case-flip negative test case.
func flipFirstLetterCase(t *testing.T, s string) string {
	t.Helper()
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'f':
			b[i] = c - 'a' + 'A'
			return string(b)
		case c >= 'A' && c <= 'F':
			b[i] = c - 'A' + 'a'
			return string(b)
		}
	}
	return s
}

func TestNormalize(t *testing.T) {
	lower, err := Normalize("0x7a250d5630b4cf539739df2c5dacb4c659f2488d")
	require.NoError(t, err)
	require.Equal(t, "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", lower)

	checksummed := ToChecksum("0x7a250d5630b4cf539739df2c5dacb4c659f2488d")
	lower2, err := Normalize(checksummed)
	require.NoError(t, err)
	require.Equal(t, "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", lower2)

	_, err = Normalize("not-an-address")
	require.Error(t, err)

	bad := flipFirstLetterCase(t, checksummed)
	if bad != checksummed {
		_, err = Normalize(bad)
		require.Error(t, err)
	}
}
