package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesChain(t *testing.T) {
	err := Wrap(ErrUnorderedSeries, "analyzing NIFTY 22000 CALL")
	require.Error(t, err)
	assert.True(t, Is(err, ErrUnorderedSeries))
	assert.Contains(t, err.Error(), "analyzing NIFTY 22000 CALL")

	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "context %d", 1))
}

func TestValidationErrorAs(t *testing.T) {
	err := Wrap(NewValidationError("reference_price", -5.0, "must be positive"), "selecting strikes")

	var verr *ValidationError
	require.True(t, As(err, &verr))
	assert.Equal(t, "reference_price", verr.Field)
	assert.Contains(t, verr.Error(), "must be positive")
}

func TestDataErrorUnwrap(t *testing.T) {
	err := NewDataError("price_series", "NIFTY", "no rows", ErrDataNotFound)
	assert.True(t, Is(err, ErrDataNotFound))
	assert.Contains(t, err.Error(), "NIFTY")
}

func TestIngestErrorFormatting(t *testing.T) {
	err := NewIngestError("fo21AUG2026bhav.csv", 0, "parsing CSV", ErrConfigInvalid)
	assert.True(t, Is(err, ErrConfigInvalid))
	assert.Contains(t, err.Error(), "fo21AUG2026bhav.csv")

	bare := NewIngestError("x.csv", 3, "bad row", nil)
	assert.Contains(t, bare.Error(), "x.csv:3")
}
