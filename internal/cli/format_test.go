package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "22514.50", FormatPrice(22514.5))
	assert.Equal(t, "10.00", FormatPrice(10))
	assert.Equal(t, "9.2500", FormatPrice(9.25))
	assert.Equal(t, "0.0500", FormatPrice(0.05))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+12.50%", FormatPercent(12.5))
	assert.Equal(t, "-55.00%", FormatPercent(-55))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "500", FormatVolume(500))
	assert.Equal(t, "12.50 K", FormatVolume(12500))
	assert.Equal(t, "1.80 L", FormatVolume(180000))
	assert.Equal(t, "2.35 Cr", FormatVolume(23500000))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.Equal(t, "21-Aug-2026", FormatDate(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)))
}

func TestFormatOptionalDate(t *testing.T) {
	assert.Equal(t, "-", FormatOptionalDate(nil))
	d := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "14-Aug-2026", FormatOptionalDate(&d))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "toolong...", TruncateString("toolongstring", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}
