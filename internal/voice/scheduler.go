package voice

import "sync"

// PlaybackHandle is one scheduled, not-yet-finished playback unit
type PlaybackHandle interface {
	Stop()
}

// PlaybackSink plays scheduled PCM chunks. OutputTime is the playback
// clock the scheduler aligns against, in seconds since the sink opened.
type PlaybackSink interface {
	OutputTime() float64
	// Play schedules pcm at start seconds on the playback clock. done must
	// be invoked asynchronously once the unit has finished playing.
	Play(pcm []byte, start float64, done func()) (PlaybackHandle, error)
	Close() error
}

// Scheduler lines synthesized audio chunks up back-to-back on the playback
// clock. Chunks arrive asynchronously and in variable sizes; each one starts
// at the later of the running cursor and the current output time, and the
// cursor then advances by the chunk's duration. Playback therefore has no
// overlap and no gap beyond network jitter.
type Scheduler struct {
	mu         sync.Mutex
	sink       PlaybackSink
	sampleRate int
	cursor     float64
	nextID     uint64
	live       map[uint64]PlaybackHandle
}

// NewScheduler creates a scheduler over the given sink
func NewScheduler(sink PlaybackSink, sampleRate int) *Scheduler {
	return &Scheduler{
		sink:       sink,
		sampleRate: sampleRate,
		live:       make(map[uint64]PlaybackHandle),
	}
}

// Schedule queues one PCM chunk and returns its start time and duration
func (s *Scheduler) Schedule(pcm []byte) (start, duration float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start = s.cursor
	if now := s.sink.OutputTime(); now > start {
		start = now
	}
	duration = ChunkDuration(len(pcm), s.sampleRate)

	id := s.nextID
	s.nextID++

	handle, err := s.sink.Play(pcm, start, func() {
		s.mu.Lock()
		delete(s.live, id)
		s.mu.Unlock()
	})
	if err != nil {
		return 0, 0, err
	}

	s.live[id] = handle
	s.cursor = start + duration
	return start, duration, nil
}

// Interrupt stops every scheduled unit that has not finished, clears the
// live set, and resets the cursor to zero so the next chunk schedules
// against real time rather than a stale future cursor.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	handles := make([]PlaybackHandle, 0, len(s.live))
	for _, h := range s.live {
		handles = append(handles, h)
	}
	s.live = make(map[uint64]PlaybackHandle)
	s.cursor = 0
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Pending reports how many scheduled units have not finished
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Cursor returns the start time the next chunk would be measured against
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
