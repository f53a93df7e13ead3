package domain

import "context"

// AudioEngine defines the playback device the player session drives.
// Implementations decode and output audio on their own goroutines and report
// back only through Events and the outcome channel returned by Play.
//
//go:generate mockgen -destination=mocks/interfaces_mock.go -package=mocks github.com/genricoloni/tunedeck/internal/domain AudioEngine,ResourceProvider,Resource,DurationProber,Fetcher,ArtRenderer
type AudioEngine interface {
	// Load replaces the current source with the one behind ref.
	// The new source starts paused at position zero.
	Load(ctx context.Context, ref string) error

	// Play resumes output of the loaded source.
	// It never blocks: the returned channel yields exactly one value, nil on
	// success or the reason playback was rejected.
	Play() <-chan error

	// Pause halts output, keeping the position
	Pause()

	// Stop halts output and unloads the current source
	Stop()

	// SetCurrentTime seeks within the loaded source
	SetCurrentTime(seconds float64) error

	// Generation identifies the current playback epoch. Every Load and
	// SetCurrentTime starts a new one, and each event carries the generation
	// it was produced in.
	Generation() uint64

	// SetVolume applies a linear output level in [0,1]
	SetVolume(level float64)

	// Events returns a read-only channel of progress, duration and end notifications
	Events() <-chan EngineEvent
}

// Resource is a transient playable handle for a locally supplied file
type Resource interface {
	// Ref returns the source reference understood by the AudioEngine
	Ref() string

	// Release frees the handle. It must be called exactly once.
	Release() error
}

// ResourceProvider turns local files into playable resources
type ResourceProvider interface {
	// Acquire registers the file and returns its handle
	Acquire(file LocalFile) (Resource, error)
}

// DurationProber resolves the real duration of a source without playing it
type DurationProber interface {
	// Probe returns the duration in seconds
	Probe(ctx context.Context, ref string) (float64, error)
}

// Fetcher defines the interface for retrieving album artwork
type Fetcher interface {
	// Fetch downloads or reads image data from a URL or local path
	// Returns the raw image bytes or an error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArtRenderer defines the interface for now-playing artwork generation
type ArtRenderer interface {
	// Render creates the now-playing image from album art data
	// Returns the file path to the generated image or an error
	Render(ctx context.Context, imgData []byte) (string, error)
}

// Config defines the interface for application configuration
type Config interface {
	// GetVolume returns the initial linear volume
	GetVolume() float64

	// GetAutoplay reports whether autoplay starts enabled
	GetAutoplay() bool

	// GetShuffle reports whether shuffle starts enabled
	GetShuffle() bool

	// GetRepeat reports whether repeat starts enabled
	GetRepeat() bool

	// GetSampleRate returns the audio output sample rate
	GetSampleRate() int

	// GetArtDir returns the directory for generated artwork
	GetArtDir() string

	// GetMPRISEnabled reports whether the D-Bus surface is exported
	GetMPRISEnabled() bool
}
