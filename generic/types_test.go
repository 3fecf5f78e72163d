package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// AMOUNT
// =============================================================================

func TestAmount_Parse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{"1000", "1000", false},
		{"-42", "-42", false},
		{"170141183460469231731687303715884105727", "170141183460469231731687303715884105727", false},
		{"-170141183460469231731687303715884105728", "-170141183460469231731687303715884105728", false},
		{"170141183460469231731687303715884105728", "", true},
		{"1.5", "", true},
		{"ten", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := generic.ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAmount_AddOverflow(t *testing.T) {
	_, err := generic.MaxAmount.Add(generic.NewAmount(1))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = generic.MinAmount.Sub(generic.NewAmount(1))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	sum, err := generic.NewAmount(40).Add(generic.NewAmount(2))
	require.NoError(t, err)
	assert.True(t, sum.Equal(generic.NewAmount(42)))
}

func TestAmount_JSON(t *testing.T) {
	raw, err := json.Marshal(generic.MustParseAmount("123456789012345678901234567890"))
	require.NoError(t, err)
	assert.Equal(t, `"123456789012345678901234567890"`, string(raw))

	var a generic.Amount
	require.NoError(t, json.Unmarshal([]byte(`"77"`), &a))
	assert.Equal(t, "77", a.String())

	assert.Error(t, json.Unmarshal([]byte(`"0.5"`), &a), "fractions are rejected on decode")
}

func TestAmount_Max(t *testing.T) {
	assert.Equal(t, "0", generic.NewAmount(-3).Max(generic.NewAmount(0)).String())
	assert.Equal(t, "3", generic.NewAmount(3).Max(generic.NewAmount(0)).String())
}

// =============================================================================
// TIMESTAMP & HASH
// =============================================================================

func TestTimestamp_RoundTrip(t *testing.T) {
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ts := generic.TimestampOf(at)

	assert.Equal(t, at, ts.Time())
	assert.Equal(t, ts+3600, ts.Add(time.Hour))
	assert.Equal(t, "2025-03-10T12:00:00Z", ts.String())
}

func TestHash_Parse(t *testing.T) {
	const hex = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	h, err := generic.ParseHash(hex)
	require.NoError(t, err)
	assert.Equal(t, hex, h.String())
	assert.False(t, h.IsZero())

	_, err = generic.ParseHash("abcd")
	assert.Error(t, err)
	_, err = generic.ParseHash("zz")
	assert.Error(t, err)

	raw, err := json.Marshal(struct {
		ID generic.Hash `json:"id"`
	}{h})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+hex+`"}`, string(raw))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestVaultError_MatchesSentinelByCode(t *testing.T) {
	err := generic.NewError(generic.CodeAssetLocked, "withdraw", "500 would remain")

	assert.ErrorIs(t, err, generic.ErrAssetLocked)
	assert.NotErrorIs(t, err, generic.ErrInsufficientFunds)
	assert.Equal(t, generic.CodeAssetLocked, generic.CodeOf(err))
	assert.True(t, generic.IsClientError(err))
	assert.Equal(t, "withdraw: asset locked: 500 would remain (code 4)", err.Error())
}
