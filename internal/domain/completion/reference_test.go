package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 9 filler digits, partner 0012345, contract 00042, payment type 6, fund 0017
const sampleRef = "000000000" + "0012345" + "00042" + "6" + "0017" + "0"

func TestReference(t *testing.T) {
	ref := Reference(sampleRef)

	code, err := ref.PartnerCode()
	require.NoError(t, err)
	assert.Equal(t, "12345", code)

	number, err := ref.ContractNumber()
	require.NoError(t, err)
	assert.Equal(t, 42, number)

	pt, err := ref.PaymentType()
	require.NoError(t, err)
	assert.Equal(t, 6, pt)

	fund, err := ref.FundCode()
	require.NoError(t, err)
	assert.Equal(t, 17, fund)
}

func TestReference_Malformed(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := Reference("0000000001234").PartnerCode()
		assert.ErrorIs(t, err, ErrMalformedReference)
	})

	t.Run("non numeric window", func(t *testing.T) {
		_, err := Reference("000000000ABCDEFG").PartnerCode()
		assert.ErrorIs(t, err, ErrMalformedReference)
	})

	t.Run("fund window missing", func(t *testing.T) {
		_, err := Reference(sampleRef[:23]).FundCode()
		assert.ErrorIs(t, err, ErrMalformedReference)
	})
}
