package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/genricoloni/tunedeck/internal/domain"
	"go.uber.org/zap"
)

const (
	_tickInterval    = 250 * time.Millisecond
	_eventBuffer     = 64
	_resampleQuality = 4
)

var errSuperseded = errors.New("source replaced before playback started")

// BeepEngine plays one source at a time through the system speaker.
// Sources decode on a background goroutine; Play called before decoding
// finishes resolves once the source is ready.
type BeepEngine struct {
	logger     *zap.Logger
	opener     Opener
	sampleRate beep.SampleRate

	mu         sync.Mutex
	running    bool
	generation uint64
	current    *source
	mixer   *beep.Mixer
	volume  *effects.Volume

	events          chan domain.EngineEvent
	lastDropWarning time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// source is one loaded reference and its decoder state
type source struct {
	ref      string
	ready    chan struct{}
	err      error
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl

	playing     bool
	ended       bool
	pendingSeek float64
	waiters     []chan error
}

// NewBeepEngine creates an engine that outputs at the configured sample rate
func NewBeepEngine(logger *zap.Logger, cfg domain.Config, opener Opener) *BeepEngine {
	ctx, cancel := context.WithCancel(context.Background())
	mixer := &beep.Mixer{}

	return &BeepEngine{
		logger:     logger,
		opener:     opener,
		sampleRate: beep.SampleRate(cfg.GetSampleRate()),
		mixer:      mixer,
		volume: &effects.Volume{
			Streamer: mixer,
			Base:     2,
		},
		events: make(chan domain.EngineEvent, _eventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start opens the speaker and begins progress reporting
func (e *BeepEngine) Start(ctx context.Context) error {
	e.logger.Info("Audio engine starting...", zap.Int("sampleRate", int(e.sampleRate)))

	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/4)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(e.volume)

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.tickLoop()
	return nil
}

// Close unloads the current source and stops output
func (e *BeepEngine) Close(ctx context.Context) error {
	e.logger.Info("Audio engine stopping...")
	e.cancel()

	e.mu.Lock()
	e.dropCurrentLocked()
	wasRunning := e.running
	e.running = false
	e.mu.Unlock()

	if wasRunning {
		speaker.Clear()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the engine notification channel. It is never closed.
func (e *BeepEngine) Events() <-chan domain.EngineEvent {
	return e.events
}

// Load replaces the current source. Decoding continues in the background.
func (e *BeepEngine) Load(ctx context.Context, ref string) error {
	if ref == "" {
		return errors.New("load: empty source reference")
	}

	src := &source{
		ref:         ref,
		ready:       make(chan struct{}),
		pendingSeek: -1,
	}

	e.mu.Lock()
	e.dropCurrentLocked()
	e.current = src
	e.generation++
	e.mu.Unlock()

	e.wg.Add(1)
	go e.prepare(ctx, src)
	return nil
}

func (e *BeepEngine) prepare(ctx context.Context, src *source) {
	defer e.wg.Done()

	streamer, format, err := openAndDecode(ctx, e.opener, src.ref)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != src {
		if err == nil {
			streamer.Close()
		}
		return
	}

	close(src.ready)
	if err != nil {
		src.err = err
		e.logger.Warn("Failed to load source", zap.String("ref", src.ref), zap.Error(err))
		e.resolveWaitersLocked(src)
		return
	}

	src.streamer = streamer
	src.format = format
	if src.pendingSeek >= 0 {
		if err := streamer.Seek(e.clampSample(src, src.pendingSeek)); err != nil {
			e.logger.Warn("Deferred seek failed", zap.String("ref", src.ref), zap.Error(err))
		}
	}

	e.installLocked(src)
	e.resolveWaitersLocked(src)

	duration := format.SampleRate.D(streamer.Len()).Seconds()
	e.logger.Debug("Source ready",
		zap.String("ref", src.ref),
		zap.Int("sampleRate", int(format.SampleRate)),
		zap.Float64("duration", duration))

	e.emit(domain.EngineEvent{Kind: domain.EventDurationKnown, Source: src.ref, Seconds: duration})
}

// installLocked routes src through the mixer, replacing whatever played before
func (e *BeepEngine) installLocked(src *source) {
	var out beep.Streamer = src.streamer
	if src.format.SampleRate != e.sampleRate {
		out = beep.Resample(_resampleQuality, src.format.SampleRate, e.sampleRate, src.streamer)
	}

	src.ended = false
	src.ctrl = &beep.Ctrl{
		Streamer: out,
		Paused:   !(src.playing && e.running),
	}

	speaker.Lock()
	e.mixer.Clear()
	e.mixer.Add(beep.Seq(src.ctrl, beep.Callback(func() {
		// runs under the speaker lock
		go e.finished(src)
	})))
	speaker.Unlock()
}

func (e *BeepEngine) finished(src *source) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != src || src.ended {
		return
	}
	src.ended = true
	src.playing = false

	e.emit(domain.EngineEvent{
		Kind:    domain.EventEnded,
		Source:  src.ref,
		Seconds: src.format.SampleRate.D(src.streamer.Len()).Seconds(),
	})
}

// Play resumes the current source
func (e *BeepEngine) Play() <-chan error {
	result := make(chan error, 1)

	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.current
	if !e.running || src == nil {
		result <- domain.ErrEngineNotReady
		return result
	}
	src.playing = true

	select {
	case <-src.ready:
	default:
		src.waiters = append(src.waiters, result)
		return result
	}

	if src.err != nil {
		src.playing = false
		result <- src.err
		return result
	}

	if src.ended {
		if err := e.seekLocked(src, 0); err != nil {
			src.playing = false
			result <- err
			return result
		}
	}

	speaker.Lock()
	src.ctrl.Paused = false
	speaker.Unlock()

	result <- nil
	return result
}

func (e *BeepEngine) resolveWaitersLocked(src *source) {
	for _, w := range src.waiters {
		w <- src.err
	}
	src.waiters = nil
	if src.err != nil {
		src.playing = false
	}
}

// Pause halts output and keeps the position
func (e *BeepEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.current
	if src == nil {
		return
	}
	src.playing = false
	if src.ctrl != nil {
		speaker.Lock()
		src.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Stop unloads the current source
func (e *BeepEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropCurrentLocked()
}

func (e *BeepEngine) dropCurrentLocked() {
	src := e.current
	if src == nil {
		return
	}
	e.current = nil

	for _, w := range src.waiters {
		w <- errSuperseded
	}
	src.waiters = nil

	if src.streamer != nil {
		speaker.Lock()
		e.mixer.Clear()
		speaker.Unlock()

		if err := src.streamer.Close(); err != nil {
			e.logger.Warn("Failed to close source", zap.String("ref", src.ref), zap.Error(err))
		}
	}
}

// SetCurrentTime seeks the current source.
// A seek issued while the source is still decoding is applied once it is ready.
func (e *BeepEngine) SetCurrentTime(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.current
	if src == nil {
		return domain.ErrEngineNotReady
	}
	if seconds < 0 {
		seconds = 0
	}
	e.generation++

	select {
	case <-src.ready:
	default:
		src.pendingSeek = seconds
		return nil
	}

	if src.err != nil {
		return src.err
	}
	return e.seekLocked(src, seconds)
}

func (e *BeepEngine) seekLocked(src *source, seconds float64) error {
	speaker.Lock()
	err := src.streamer.Seek(e.clampSample(src, seconds))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek %s: %w", src.ref, err)
	}

	// a drained source left the mixer and has to be routed again
	if src.ended {
		e.installLocked(src)
	}
	return nil
}

func (e *BeepEngine) clampSample(src *source, seconds float64) int {
	n := src.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if last := src.streamer.Len() - 1; n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Generation returns the epoch stamped on events emitted from now on
func (e *BeepEngine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// SetVolume maps a linear level onto the base-2 gain of the output stage
func (e *BeepEngine) SetVolume(level float64) {
	speaker.Lock()
	defer speaker.Unlock()

	if level <= 0 {
		e.volume.Silent = true
		return
	}
	if level > 1 {
		level = 1
	}
	e.volume.Silent = false
	e.volume.Volume = math.Log2(level)
}

func (e *BeepEngine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(_tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Audio engine progress loop stopped")
			return
		case <-ticker.C:
			e.reportProgress()
		}
	}
}

func (e *BeepEngine) reportProgress() {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.current
	if src == nil || !src.playing || src.ended || src.streamer == nil {
		return
	}

	speaker.Lock()
	pos := src.streamer.Position()
	speaker.Unlock()

	e.emit(domain.EngineEvent{
		Kind:    domain.EventTimeUpdate,
		Source:  src.ref,
		Seconds: src.format.SampleRate.D(pos).Seconds(),
	})
}

// emit is non-blocking; callers hold e.mu
func (e *BeepEngine) emit(ev domain.EngineEvent) {
	ev.Generation = e.generation
	select {
	case e.events <- ev:
	default:
		const warningInterval = 5 * time.Second
		now := time.Now()
		if now.Sub(e.lastDropWarning) >= warningInterval {
			e.logger.Warn("Engine events channel full, dropping event",
				zap.String("kind", ev.Kind.String()),
				zap.String("source", ev.Source))
			e.lastDropWarning = now
		}
	}
}
