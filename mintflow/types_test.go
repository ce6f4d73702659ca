package mintflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuanceRequestNormalize(t *testing.T) {
	cases := []struct {
		name       string
		in         IssuanceRequest
		wantSymbol string
		wantSupply uint64
	}{
		{"coerces low supply", IssuanceRequest{Name: "A", Symbol: "a", Supply: 1}, "A", 1000},
		{"coerces zero supply", IssuanceRequest{Name: "A", Symbol: "a", Supply: 0}, "A", 1000},
		{"keeps supply at minimum", IssuanceRequest{Name: "A", Symbol: "a", Supply: 1000}, "A", 1000},
		{"keeps large supply", IssuanceRequest{Name: "A", Symbol: "abc", Supply: 5_000_000}, "ABC", 5_000_000},
		{"trims and uppercases", IssuanceRequest{Name: " My Token ", Symbol: " tkn ", Supply: 999}, "TKN", 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			assert.Equal(t, tc.wantSymbol, tc.in.Symbol)
			assert.Equal(t, tc.wantSupply, tc.in.Supply)
		})
	}
}

func TestIssuanceRequestValidate(t *testing.T) {
	valid := IssuanceRequest{Name: "Token", Symbol: "TKN", Supply: 1000}
	require.NoError(t, valid.Validate())

	bad := []IssuanceRequest{
		{Name: "", Symbol: "TKN", Supply: 1000},
		{Name: "this name is way too long to be a token name", Symbol: "TKN", Supply: 1000},
		{Name: "Token", Symbol: "", Supply: 1000},
		{Name: "Token", Symbol: "SEVENCH", Supply: 1000},
		{Name: "Token", Symbol: "TKN", Supply: MaxSupply + 1},
	}
	for _, r := range bad {
		err := r.Validate()
		require.Error(t, err)
		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, KindPrecondition, stepErr.Kind)
	}
}

func TestBaseUnitsScaling(t *testing.T) {
	r := IssuanceRequest{Supply: 1000}
	assert.Equal(t, uint64(1_000_000_000_000), r.BaseUnits())

	r.Supply = 1
	r.Normalize()
	assert.Equal(t, uint64(1_000_000_000_000), r.BaseUnits(), "coerced supply scales exactly")
}

func TestServiceFeeConfig(t *testing.T) {
	assert.Error(t, ServiceFeeConfig{ServiceWallet: "", FeeSOL: 0.1}.Validate())
	assert.Error(t, ServiceFeeConfig{ServiceWallet: "S", FeeSOL: 0}.Validate())
	assert.Error(t, ServiceFeeConfig{ServiceWallet: "S", FeeSOL: -1}.Validate())
	assert.NoError(t, ServiceFeeConfig{ServiceWallet: "S", FeeSOL: 0.001}.Validate())

	assert.Equal(t, uint64(1_000_000), ServiceFeeConfig{FeeSOL: 0.001}.FeeLamports())
	assert.Equal(t, uint64(1_000_000_000), ServiceFeeConfig{FeeSOL: 1}.FeeLamports())
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "awaiting_fee", StepAwaitingFee.String())
	assert.Equal(t, "complete", StepComplete.String())
	assert.True(t, StepComplete.Terminal())
	assert.True(t, StepFailed.Terminal())
	assert.False(t, StepMinting.Terminal())
}
