package voice

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/metrics"
)

// State is the lifecycle state of a voice session engine
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// ErrMediaAccessDenied is returned when the platform refuses microphone access
var ErrMediaAccessDenied = errors.New("media access denied")

// CaptureSource produces fixed-size microphone frames as floating-point
// mono samples at 16 kHz.
type CaptureSource interface {
	// Open acquires the exclusive microphone stream. A platform denial is
	// reported as ErrMediaAccessDenied.
	Open(ctx context.Context) error
	// Frames yields captured frames until the source is closed
	Frames() <-chan []float32
	// Close releases the microphone stream; safe to call at any time,
	// including before Open succeeded
	Close() error
}

// SessionEvents receives engine notifications for the conversation view
type SessionEvents interface {
	// TranscriptUpdated delivers the coalesced assistant message after
	// each inbound fragment
	TranscriptUpdated(msg entities.Message)
	// Interrupted signals that queued playback was discarded
	Interrupted()
	// Closed fires exactly once per session, with the error that ended it
	// or nil on a clean stop
	Closed(err error)
}

// Engine manages one duplex voice conversation: it encodes and forwards
// microphone frames to the realtime gateway and schedules inbound
// synthesized audio for gapless playback. Frame production, inbound
// messages, and playback-finish notifications are independent events
// multiplexed onto this one object; the playback cursor and the live
// buffer set are only ever mutated from its own handlers.
type Engine struct {
	gateway repositories.RealtimeGateway
	capture CaptureSource
	sink    PlaybackSink
	events  SessionEvents
	cfg     repositories.LiveConfig
	logger  *zap.Logger
	sched   *Scheduler

	mu         sync.Mutex
	state      State
	channel    repositories.LiveChannel
	cancel     context.CancelFunc
	transcript TranscriptAssembler
}

// NewEngine creates an idle engine for one conversation view
func NewEngine(
	gateway repositories.RealtimeGateway,
	capture CaptureSource,
	sink PlaybackSink,
	events SessionEvents,
	cfg repositories.LiveConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		gateway: gateway,
		capture: capture,
		sink:    sink,
		events:  events,
		cfg:     cfg,
		logger:  logger,
		sched:   NewScheduler(sink, OutputSampleRate),
	}
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start opens a new session: acquire the microphone, connect the realtime
// channel, begin the capture and receive loops. Calling Start while a
// session is active is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		state := e.state
		e.mu.Unlock()
		e.logger.Debug("Start ignored, session already active",
			zap.String("state", state.String()))
		return nil
	}
	e.state = StateConnecting
	e.mu.Unlock()

	metrics.VoiceSessionsActive.Inc()

	if err := e.capture.Open(ctx); err != nil {
		e.abortConnecting()
		e.logger.Warn("Microphone acquisition failed", zap.Error(err))
		return err
	}

	channel, err := e.gateway.Connect(ctx, e.cfg)
	if err != nil {
		e.capture.Close()
		e.abortConnecting()
		e.logger.Error("Realtime connect failed", zap.Error(err))
		return err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if e.state != StateConnecting {
		// Stop raced the connect; give everything back
		e.mu.Unlock()
		cancel()
		channel.Close()
		e.capture.Close()
		return nil
	}
	e.channel = channel
	e.cancel = cancel
	e.transcript.Break()
	e.state = StateOpen
	e.mu.Unlock()

	e.logger.Info("Voice session open")

	go e.captureLoop(sessionCtx, channel)
	go e.receiveLoop(channel)
	return nil
}

// abortConnecting returns a failed Start to Idle
func (e *Engine) abortConnecting() {
	e.mu.Lock()
	if e.state == StateConnecting {
		e.state = StateIdle
	}
	e.mu.Unlock()
	metrics.VoiceSessionsActive.Dec()
}

// Stop tears the session down: microphone released, channel closed, queued
// playback discarded, state back to Idle. Idempotent from any state and
// tolerant of partially-initialized sessions.
func (e *Engine) Stop() {
	if e.stop() {
		e.events.Closed(nil)
	}
}

// stop performs the teardown and reports whether this call did the work
func (e *Engine) stop() bool {
	e.mu.Lock()
	if e.state == StateIdle || e.state == StateClosing {
		e.mu.Unlock()
		return false
	}
	e.state = StateClosing
	channel := e.channel
	cancel := e.cancel
	e.channel = nil
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if channel != nil {
		if err := channel.Close(); err != nil {
			e.logger.Debug("Live channel close", zap.Error(err))
		}
	}
	if err := e.capture.Close(); err != nil {
		e.logger.Debug("Capture close", zap.Error(err))
	}
	e.sched.Interrupt()
	if err := e.sink.Close(); err != nil {
		e.logger.Debug("Playback sink close", zap.Error(err))
	}

	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()

	metrics.VoiceSessionsActive.Dec()
	e.logger.Info("Voice session closed")
	return true
}

// teardown is the failure-path stop: full teardown plus a Closed event
// carrying the error, unless a local Stop already won the race
func (e *Engine) teardown(err error) {
	if e.stop() {
		e.events.Closed(err)
	}
}

// captureLoop encodes microphone frames and sends each one as soon as it
// is produced; there is no client-side buffering beyond one frame
func (e *Engine) captureLoop(ctx context.Context, channel repositories.LiveChannel) {
	frames := e.capture.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			out := repositories.AudioFrame{
				Data:     EncodeFrame(frame),
				MIMEType: InputMIMEType,
			}
			if err := channel.Send(ctx, out); err != nil {
				if e.State() == StateOpen {
					e.logger.Warn("Failed to send audio frame", zap.Error(err))
					e.teardown(err)
				}
				return
			}
		}
	}
}

// receiveLoop decodes inbound events until the channel ends. A transport
// error or a remote close both drive a full teardown; a half-open audio
// channel is worse than a closed one.
func (e *Engine) receiveLoop(channel repositories.LiveChannel) {
	for {
		ev, err := channel.Receive()
		if err != nil {
			if errors.Is(err, repositories.ErrChannelClosed) {
				e.teardown(nil)
			} else if e.State() == StateOpen {
				e.logger.Warn("Live channel receive failed", zap.Error(err))
				e.teardown(err)
			}
			return
		}

		if len(ev.Audio) > 0 {
			if _, _, err := e.sched.Schedule(ev.Audio); err != nil {
				e.logger.Warn("Failed to schedule playback chunk", zap.Error(err))
			}
		}

		if ev.Transcript != "" {
			e.mu.Lock()
			msg := e.transcript.Append(ev.Transcript)
			e.mu.Unlock()
			e.events.TranscriptUpdated(msg)
		}

		if ev.Interrupted {
			e.sched.Interrupt()
			e.mu.Lock()
			e.transcript.Break()
			e.mu.Unlock()
			e.events.Interrupted()
		}

		if ev.TurnComplete {
			e.mu.Lock()
			e.transcript.Break()
			e.mu.Unlock()
		}
	}
}
