package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, "19.90", FromMinorUnits(1990).StringFixed(2))
	assert.Equal(t, int64(1990), ToMinorUnits(decimal.RequireFromString("19.90")))
	assert.Equal(t, int64(1000), ToMinorUnits(decimal.RequireFromString("9.995")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
}
