package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/genricoloni/tunedeck/internal/playlist"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// restartThreshold is how far into a track "previous" restarts it instead of
// moving to the preceding track
const restartThreshold = 3.0

// Session is the single authority for playback state.
// It translates user intents into AudioEngine commands and AudioEngine events
// into state updates. Every operation applies its full state delta while
// holding mu, so callers never observe a half-applied transition.
type Session struct {
	logger    *zap.Logger
	engine    domain.AudioEngine
	resources domain.ResourceProvider
	prober    domain.DurationProber
	randIntN  func(n int) int

	mu           sync.Mutex
	tracks       *playlist.Playlist
	handles      map[domain.TrackID]domain.Resource // Transient resources of local tracks
	currentIndex int
	isPlaying    bool
	position     float64
	duration     float64
	volume       float64
	muted        bool
	autoplay     bool
	shuffle      bool
	repeat       bool
	loadedRef    string // Source currently loaded into the engine
	engineGen    uint64 // Engine generation of the last load or seek
	playSeq      uint64 // Bumped on every transport intent change

	listenersMu sync.RWMutex
	listeners   []func(domain.Snapshot)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // Tracks play outcome waiters and duration probes
}

// Option customises a Session at construction
type Option func(*Session)

// WithTracks replaces the default playlist
func WithTracks(tracks ...domain.Track) Option {
	return func(s *Session) {
		s.tracks = playlist.New(tracks...)
	}
}

// WithRandom replaces the random source used by shuffle
func WithRandom(intN func(n int) int) Option {
	return func(s *Session) {
		s.randIntN = intN
	}
}

// New creates a player session holding the default playlist
func New(
	logger *zap.Logger,
	cfg domain.Config,
	engine domain.AudioEngine,
	resources domain.ResourceProvider,
	prober domain.DurationProber,
	opts ...Option,
) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		logger:    logger,
		engine:    engine,
		resources: resources,
		prober:    prober,
		randIntN:  rand.IntN,
		tracks:    playlist.New(playlist.Default()...),
		handles:   make(map[domain.TrackID]domain.Resource),
		volume:    clamp01(cfg.GetVolume()),
		autoplay:  cfg.GetAutoplay(),
		shuffle:   cfg.GetShuffle(),
		repeat:    cfg.GetRepeat(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.currentIndex = domain.NoTrack
	if s.tracks.Len() > 0 {
		s.currentIndex = 0
	}
	return s
}

// Start loads the current track into the engine and launches the event loop
// in a goroutine. It returns immediately (non-blocking).
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.logger.Info("Player session starting...", zap.Int("tracks", s.tracks.Len()))
	s.loadCurrentLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	events := s.engine.Events()
	go func() {
		if err := s.runLoop(s.ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Player session loop failed", zap.Error(err))
		}
	}()
	return nil
}

// Run applies engine events until ctx is cancelled or the event channel closes
func (s *Session) Run(ctx context.Context) error {
	return s.runLoop(ctx, s.engine.Events())
}

func (s *Session) runLoop(ctx context.Context, events <-chan domain.EngineEvent) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Player session loop stopped")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				s.logger.Info("Engine events channel closed")
				return nil
			}
			s.handleEvent(ev)
		}
	}
}

// Close stops the session, waits for in-flight probes and play outcomes, and
// releases every transient resource still held by the playlist
func (s *Session) Close(ctx context.Context) error {
	s.logger.Info("Player session stopping...")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for background work", zap.Error(ctx.Err()))
	}

	s.mu.Lock()
	owned := s.tracks.Removable()
	handles := s.handles
	s.handles = make(map[domain.TrackID]domain.Resource)
	s.mu.Unlock()

	var errs error
	for _, t := range owned {
		h, ok := handles[t.ID]
		if !ok {
			continue
		}
		if err := h.Release(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("release %s: %w", t.ID, err))
		}
	}
	if errs != nil {
		s.logger.Warn("Some local resources failed to release", zap.Error(errs))
	}
	return errs
}

// OnChange registers a listener that receives a snapshot after every state change.
// Listeners are called synchronously and must not block.
func (s *Session) OnChange(fn func(domain.Snapshot)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a read-only copy of the session state
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Tracks:          s.tracks.Tracks(),
		CurrentIndex:    s.currentIndex,
		IsPlaying:       s.isPlaying,
		PositionSeconds: s.position,
		DurationSeconds: s.duration,
		Volume:          s.volume,
		IsMuted:         s.muted,
		Autoplay:        s.autoplay,
		Shuffle:         s.shuffle,
		Repeat:          s.repeat,
	}
}

func (s *Session) notify(snap domain.Snapshot) {
	s.listenersMu.RLock()
	listeners := make([]func(domain.Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// commit snapshots the state, releases the lock and notifies listeners
func (s *Session) commit() {
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) effectiveVolumeLocked() float64 {
	if s.muted {
		return 0
	}
	return s.volume
}

// loadCurrentLocked loads the current track's source, applies the effective
// volume and resumes playback if the session intends to play
func (s *Session) loadCurrentLocked() {
	track, ok := s.tracks.At(s.currentIndex)
	if !ok {
		s.engine.Stop()
		s.loadedRef = ""
		s.position = 0
		s.duration = 0
		s.isPlaying = false
		s.playSeq++
		s.logger.Info("Playlist empty, engine stopped")
		return
	}

	s.position = 0
	s.duration = float64(track.DurationSeconds)
	s.loadedRef = track.AudioRef

	err := s.engine.Load(s.ctx, track.AudioRef)
	s.engineGen = s.engine.Generation()
	if err != nil {
		s.logger.Error("Failed to load track",
			zap.String("track", track.Title),
			zap.String("source", track.AudioRef),
			zap.Error(err))
		s.isPlaying = false
		s.playSeq++
		return
	}
	s.engine.SetVolume(s.effectiveVolumeLocked())

	s.logger.Info("Track loaded",
		zap.Int("index", s.currentIndex),
		zap.String("track", track.Title),
		zap.String("artist", track.Artist),
		zap.Bool("playing", s.isPlaying))

	if s.isPlaying {
		s.requestPlayLocked()
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
