package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProcessType(t *testing.T) {
	cases := []struct {
		in   string
		want ProcessType
	}{
		{"Aggregation", Aggregation},
		{"D03", Aggregation},
		{"BalanceFixing", BalanceFixing},
		{"balancefixing", BalanceFixing},
		{"d04", BalanceFixing},
		{"WholesaleFixing", WholesaleFixing},
		{"D05", WholesaleFixing},
		{"CorrectionSettlement", CorrectionSettlement},
		{"D32", CorrectionSettlement},
	}
	for _, tc := range cases {
		got, err := ParseProcessType(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseProcessTypeUnknown(t *testing.T) {
	for _, in := range []string{"", "D99", "Settlement"} {
		_, err := ParseProcessType(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestProcessTypeCodes(t *testing.T) {
	assert.Equal(t, "D03", Aggregation.Code())
	assert.Equal(t, "D04", BalanceFixing.Code())
	assert.Equal(t, "D05", WholesaleFixing.Code())
	assert.Equal(t, "D32", CorrectionSettlement.Code())
	assert.Equal(t, "", ProcessUnknown.Code())
	assert.Equal(t, "Unknown", ProcessUnknown.String())
}
