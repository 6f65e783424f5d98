package voice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCM16RoundTrip(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 0.999, -1.0}
	decoded := DecodePCM16(EncodePCM16(samples))

	assert.Len(t, decoded, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], decoded[i], 1.0/32768, "sample %d", i)
	}
}

func TestEncodePCM16Clamps(t *testing.T) {
	out := EncodePCM16([]float64{2.0, -2.0})
	decoded := DecodePCM16(out)
	assert.InDelta(t, 1.0, decoded[0], 0.001)
	assert.InDelta(t, -1.0, decoded[1], 0.001)
}

func TestDecodePCM16DropsOddByte(t *testing.T) {
	assert.Len(t, DecodePCM16([]byte{0x00, 0x01, 0xFF}), 1)
	assert.Empty(t, DecodePCM16([]byte{0x7F}))
}

func TestDecodePCM16LittleEndian(t *testing.T) {
	// 0x0100 little-endian = 256
	got := DecodePCM16([]byte{0x00, 0x01})
	assert.InDelta(t, 256.0/32768.0, got[0], 1e-9)
}

func TestDuration(t *testing.T) {
	oneSecond := make([]float64, SampleRate)
	assert.InDelta(t, 1.0, Duration(oneSecond), 1e-9)
	assert.True(t, math.Abs(Duration(nil)) < 1e-12)
}
