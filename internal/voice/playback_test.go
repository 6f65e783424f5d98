package voice

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduledPlay struct {
	start    float64
	duration float64
}

// fakeSink records what the scheduler asked it to play.
type fakeSink struct {
	mu    sync.Mutex
	now   float64
	plays []scheduledPlay
	stops int
}

func (f *fakeSink) PlayAt(start float64, samples []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, scheduledPlay{start: start, duration: Duration(samples)})
	return nil
}

func (f *fakeSink) Now() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeSink) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSink) scheduled() []scheduledPlay {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scheduledPlay, len(f.plays))
	copy(out, f.plays)
	return out
}

func pcmChunk(samples int) []byte {
	return make([]byte, samples*BytesPerSample)
}

func TestSchedulerGaplessPlayback(t *testing.T) {
	sink := &fakeSink{}
	bus := NewBus()
	sched := NewScheduler(sink, bus)

	starts := make(chan struct{}, 4)
	ends := make(chan struct{}, 4)
	bus.Subscribe(EventAudioStart, func(Event) { starts <- struct{}{} })
	bus.Subscribe(EventAudioEnd, func(Event) { ends <- struct{}{} })

	// three chunks of differing lengths, enqueued back to back
	require.NoError(t, sched.Enqueue(pcmChunk(48)))
	require.NoError(t, sched.Enqueue(pcmChunk(96)))
	require.NoError(t, sched.Enqueue(pcmChunk(24)))

	plays := sink.scheduled()
	require.Len(t, plays, 3)
	for i := 1; i < len(plays); i++ {
		assert.InDelta(t, plays[i-1].start+plays[i-1].duration, plays[i].start, 1e-9,
			"buffer %d must start where buffer %d ends", i, i-1)
	}

	select {
	case <-starts:
	case <-time.After(time.Second):
		t.Fatal("no audio_start")
	}
	select {
	case <-ends:
	case <-time.After(time.Second):
		t.Fatal("no audio_end after queue drained")
	}
	assert.Empty(t, starts, "audio_start must fire once per turn")
	assert.False(t, sched.Playing())
}

func TestSchedulerRestartsAfterDrain(t *testing.T) {
	sink := &fakeSink{}
	bus := NewBus()
	sched := NewScheduler(sink, bus)

	require.NoError(t, sched.Enqueue(pcmChunk(24)))
	waitNotPlaying(t, sched)

	// clock has advanced past the end of the first turn
	sink.mu.Lock()
	sink.now = 10
	sink.mu.Unlock()

	require.NoError(t, sched.Enqueue(pcmChunk(24)))

	plays := sink.scheduled()
	require.Len(t, plays, 2)
	assert.InDelta(t, 10.0, plays[1].start, 1e-9, "new turn starts at the clock, not in the past")
}

func TestSchedulerFlush(t *testing.T) {
	sink := &fakeSink{}
	bus := NewBus()
	sched := NewScheduler(sink, bus)

	var ends int
	bus.Subscribe(EventAudioEnd, func(Event) { ends++ })

	// a buffer long enough that it cannot finish before Flush
	require.NoError(t, sched.Enqueue(pcmChunk(SampleRate)))
	assert.True(t, sched.Playing())

	sched.Flush()

	assert.False(t, sched.Playing())
	assert.Equal(t, 1, sink.stops)
	assert.Equal(t, 1, ends)

	// the orphaned completion timer must not emit a second audio_end
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, ends)
}

func TestSchedulerIgnoresEmptyChunk(t *testing.T) {
	sink := &fakeSink{}
	sched := NewScheduler(sink, NewBus())

	require.NoError(t, sched.Enqueue(nil))
	require.NoError(t, sched.Enqueue([]byte{0x01}))
	assert.Empty(t, sink.scheduled())
}

func waitNotPlaying(t *testing.T, sched *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !sched.Playing() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("scheduler still playing")
}
