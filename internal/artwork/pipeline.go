package artwork

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/tunedeck/internal/domain"
	"go.uber.org/zap"
)

const debounceDuration = 500 * time.Millisecond

// SnapshotSource publishes player state changes
type SnapshotSource interface {
	OnChange(fn func(domain.Snapshot))
	Snapshot() domain.Snapshot
}

// RenderedFunc receives the artwork path generated for a track
type RenderedFunc func(id domain.TrackID, path string)

// Pipeline renders now-playing artwork whenever the current cover changes
type Pipeline struct {
	logger   *zap.Logger
	source   SnapshotSource
	fetcher  domain.Fetcher
	renderer domain.ArtRenderer

	updates chan domain.Snapshot

	mu        sync.Mutex
	lastSeen  domain.TrackID
	lastCover string
	lastPath  string
	listeners []RenderedFunc

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPipeline creates an artwork pipeline subscribed to source
func NewPipeline(
	logger *zap.Logger,
	source SnapshotSource,
	fetcher domain.Fetcher,
	renderer domain.ArtRenderer,
) *Pipeline {
	p := &Pipeline{
		logger:   logger,
		source:   source,
		fetcher:  fetcher,
		renderer: renderer,
		updates:  make(chan domain.Snapshot, 1),
	}
	source.OnChange(p.offer)
	return p
}

// OnRendered registers fn to be called after each successful render
func (p *Pipeline) OnRendered(fn RenderedFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// offer forwards track changes, keeping only the newest pending one so the
// session never blocks on the pipeline
func (p *Pipeline) offer(s domain.Snapshot) {
	var id domain.TrackID
	if track, ok := s.Current(); ok {
		id = track.ID
	}

	p.mu.Lock()
	if id == p.lastSeen {
		p.mu.Unlock()
		return
	}
	p.lastSeen = id
	p.mu.Unlock()

	for {
		select {
		case p.updates <- s:
			return
		default:
		}
		select {
		case <-p.updates:
		default:
		}
	}
}

// Start launches the render loop. It returns immediately.
func (p *Pipeline) Start(ctx context.Context) error {
	p.logger.Info("Artwork pipeline starting...")

	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	p.mu.Lock()
	p.lastSeen = ""
	p.mu.Unlock()
	p.offer(p.source.Snapshot())
	go p.runLoop(loopCtx)
	return nil
}

// Stop ends the render loop
func (p *Pipeline) Stop(ctx context.Context) error {
	p.logger.Info("Artwork pipeline stopping...")
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop waits for a quiet period before rendering so rapid skipping
// produces a single render for the track the user settles on
func (p *Pipeline) runLoop(ctx context.Context) {
	defer close(p.done)

	timer := time.NewTimer(debounceDuration)
	timer.Stop()

	var pending *domain.Snapshot

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("Artwork loop stopped")
			return

		case s := <-p.updates:
			pending = &s
			timer.Reset(debounceDuration)

		case <-timer.C:
			if pending != nil {
				p.process(ctx, *pending)
				pending = nil
			}
		}
	}
}

func (p *Pipeline) process(ctx context.Context, s domain.Snapshot) {
	track, ok := s.Current()
	if !ok || track.CoverRef == "" {
		return
	}

	p.mu.Lock()
	lastCover, lastPath := p.lastCover, p.lastPath
	p.mu.Unlock()
	if track.CoverRef == lastCover {
		p.notify(track.ID, lastPath)
		return
	}

	p.logger.Info("Rendering artwork",
		zap.String("track", track.Title),
		zap.String("artist", track.Artist),
		zap.String("album", track.Album))

	data, err := p.fetcher.Fetch(ctx, track.CoverRef)
	if err != nil {
		p.logger.Error("Failed to fetch cover", zap.String("cover", track.CoverRef), zap.Error(err))
		return
	}

	path, err := p.renderer.Render(ctx, data)
	if err != nil {
		p.logger.Error("Failed to render artwork", zap.Error(err))
		return
	}

	p.mu.Lock()
	p.lastCover = track.CoverRef
	p.lastPath = path
	p.mu.Unlock()

	p.notify(track.ID, path)
}

func (p *Pipeline) notify(id domain.TrackID, path string) {
	p.mu.Lock()
	listeners := append([]RenderedFunc(nil), p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(id, path)
	}
}
