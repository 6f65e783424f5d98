package voice

// Audio format contract for the realtime wire: mono PCM16, 24kHz,
// little-endian, base64-encoded inside JSON messages.
const (
	SampleRate     = 24000
	BytesPerSample = 2
)

// AudioSource yields captured microphone audio as PCM16LE frames. Platform
// implementations (ALSA, CoreAudio, browser bridge) satisfy this without
// the transport depending on any one of them.
type AudioSource interface {
	// Start begins capture. Frames become available on Frames afterwards.
	Start() error
	// Frames is the stream of captured PCM16LE chunks. The source closes
	// the channel when capture stops.
	Frames() <-chan []byte
	// Stop halts capture and releases the device.
	Stop() error
}

// AudioSink plays scheduled sample buffers on its own clock. PlayAt pins a
// buffer to an absolute start position in seconds so consecutive buffers
// can be laid out back to back.
type AudioSink interface {
	PlayAt(startSeconds float64, samples []float64) error
	// Now is the sink clock position in seconds.
	Now() float64
	// Stop cancels everything scheduled or playing.
	Stop() error
}

// DecodePCM16 converts little-endian PCM16 bytes to normalized float
// samples in [-1, 1). A trailing odd byte is dropped.
func DecodePCM16(data []byte) []float64 {
	n := len(data) / BytesPerSample
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		samples[i] = float64(v) / 32768.0
	}
	return samples
}

// EncodePCM16 converts normalized float samples to little-endian PCM16
// bytes, clamping out-of-range values.
func EncodePCM16(samples []float64) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767.0)
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// Duration returns the playback length in seconds of a sample buffer.
func Duration(samples []float64) float64 {
	return float64(len(samples)) / float64(SampleRate)
}
