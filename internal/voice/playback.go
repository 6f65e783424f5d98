package voice

import (
	"sync"
	"time"
)

// Scheduler lays incoming audio buffers out back to back on the sink's
// clock: each buffer starts exactly where the previous one ends, so a turn
// plays with no gaps and no overlap. It emits audio_start on the first
// buffer of a turn and audio_end once every scheduled buffer has finished.
type Scheduler struct {
	sink AudioSink
	bus  *Bus

	mu        sync.Mutex
	nextStart float64
	active    int
	playing   bool
	gen       int // bumped by Flush to orphan in-flight completion timers
}

// NewScheduler builds a playback scheduler over the given sink.
func NewScheduler(sink AudioSink, bus *Bus) *Scheduler {
	if sink == nil {
		panic("voice: audio sink cannot be nil")
	}
	if bus == nil {
		bus = NewBus()
	}
	return &Scheduler{sink: sink, bus: bus}
}

// Enqueue decodes a PCM16LE chunk and schedules it after everything already
// queued. The first chunk of an idle scheduler starts immediately.
func (s *Scheduler) Enqueue(pcm []byte) error {
	samples := DecodePCM16(pcm)
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	now := s.sink.Now()
	start := s.nextStart
	if !s.playing || start < now {
		start = now
	}
	if err := s.sink.PlayAt(start, samples); err != nil {
		s.mu.Unlock()
		return err
	}
	dur := Duration(samples)
	s.nextStart = start + dur
	s.active++
	first := !s.playing
	s.playing = true
	gen := s.gen

	delay := time.Duration((s.nextStart - now) * float64(time.Second))
	time.AfterFunc(delay, func() { s.bufferDone(gen) })
	s.mu.Unlock()

	if first {
		s.bus.Publish(Event{Type: EventAudioStart})
	}
	return nil
}

func (s *Scheduler) bufferDone(gen int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.active--
	drained := s.active == 0 && s.playing
	if drained {
		s.playing = false
	}
	s.mu.Unlock()

	if drained {
		s.bus.Publish(Event{Type: EventAudioEnd})
	}
}

// Flush cancels the playing buffer and discards everything scheduled after
// it. Used on interruption and teardown.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	s.gen++
	s.active = 0
	s.nextStart = 0
	wasPlaying := s.playing
	s.playing = false
	s.mu.Unlock()

	_ = s.sink.Stop()
	if wasPlaying {
		s.bus.Publish(Event{Type: EventAudioEnd})
	}
}

// Playing reports whether a turn's audio is currently scheduled or audible.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
