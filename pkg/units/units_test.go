package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMicros(t *testing.T) {
	assert.Equal(t, "0us", Micros(0))
	assert.Equal(t, "1us", Micros(1))
	assert.Equal(t, "999us", Micros(999))
	assert.Equal(t, "1.000ms", Micros(1000))
	assert.Equal(t, "1.500ms", Micros(1500))
	assert.Equal(t, "1.000s", Micros(1_000_000))
	assert.Equal(t, "1.000m", Micros(60_000_000))
	assert.Equal(t, "1.017h", Micros(3_661_000_000))
}

func TestCount(t *testing.T) {
	assert.Equal(t, "0", Count(0))
	assert.Equal(t, "0", Count(0.5))
	assert.Equal(t, "1", Count(1))
	assert.Equal(t, "1023", Count(1023))
	assert.Equal(t, "1.000K", Count(1024))
	assert.Equal(t, "1.500K", Count(1536))
	assert.Equal(t, "1.000M", Count(1<<20))
	assert.Equal(t, "1.000G", Count(1<<30))
}
