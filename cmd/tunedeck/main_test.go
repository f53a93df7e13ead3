package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/genricoloni/tunedeck/internal/config"
	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/genricoloni/tunedeck/internal/session"
	"go.uber.org/fx"
)

// TestAppGraphValidity verifies that the dependency graph is resolvable.
// This test will fail if you forget an fx.Provide for a required interface.
func TestAppGraphValidity(t *testing.T) {
	if err := fx.ValidateApp(AppOptions); err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

// TestNewLogger specifically verifies the logger configuration
func TestNewLogger(t *testing.T) {
	logger, err := newLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	logger.Info("Test logger initialization")
}

func TestBindFlags(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantVolume   float64
		wantAutoplay bool
		wantMPRIS    bool
		wantShuffle  bool
	}{
		{name: "Defaults", wantVolume: 0.7, wantAutoplay: true, wantMPRIS: true},
		{name: "Volume", args: []string{"--volume", "0.2"}, wantVolume: 0.2, wantAutoplay: true, wantMPRIS: true},
		{name: "No Autoplay", args: []string{"--no-autoplay"}, wantVolume: 0.7, wantMPRIS: true},
		{name: "No MPRIS", args: []string{"--no-mpris"}, wantVolume: 0.7, wantAutoplay: true},
		{name: "Shuffle", args: []string{"--shuffle"}, wantVolume: 0.7, wantAutoplay: true, wantMPRIS: true, wantShuffle: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())

			cmd := newRootCommand()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags failed: %v", err)
			}
			v, err := config.NewViper()
			if err != nil {
				t.Fatalf("NewViper failed: %v", err)
			}
			bindFlags(cmd, v)

			if got := v.GetFloat64(config.KeyVolume); got != tt.wantVolume {
				t.Errorf("volume = %v, want %v", got, tt.wantVolume)
			}
			if got := v.GetBool(config.KeyAutoplay); got != tt.wantAutoplay {
				t.Errorf("autoplay = %v, want %v", got, tt.wantAutoplay)
			}
			if got := v.GetBool(config.KeyMPRISEnabled); got != tt.wantMPRIS {
				t.Errorf("mpris = %v, want %v", got, tt.wantMPRIS)
			}
			if got := v.GetBool(config.KeyShuffle); got != tt.wantShuffle {
				t.Errorf("shuffle = %v, want %v", got, tt.wantShuffle)
			}
		})
	}
}

// silentDevice stands in for the speaker so the graph starts without audio hardware
type silentDevice struct {
	events chan domain.EngineEvent
}

func (d *silentDevice) Load(ctx context.Context, ref string) error { return nil }

func (d *silentDevice) Play() <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	return ch
}

func (d *silentDevice) Pause()                               {}
func (d *silentDevice) Stop()                                {}
func (d *silentDevice) SetCurrentTime(seconds float64) error { return nil }
func (d *silentDevice) SetVolume(level float64)              {}
func (d *silentDevice) Generation() uint64                   { return 0 }
func (d *silentDevice) Events() <-chan domain.EngineEvent    { return d.events }
func (d *silentDevice) Start(ctx context.Context) error      { return nil }
func (d *silentDevice) Close(ctx context.Context) error      { return nil }

type offlineFetcher struct{}

func (offlineFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return nil, errors.New("offline")
}

func writeSilentWAV(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Silence(44100), format); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
}

// TestEndToEndStartup starts the full graph on a directory of local files
// We use fx.NopLogger to avoid cluttering test output
func TestEndToEndStartup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TUNEDECK_MPRIS_ENABLED", "false")
	t.Setenv("TUNEDECK_ART_DIR", t.TempDir())

	dir := t.TempDir()
	writeSilentWAV(t, filepath.Join(dir, "Quiet Band - Nothing.wav"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("liner notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	var player *session.Session
	app := fx.New(
		AppOptions,
		fx.NopLogger, // Silence Fx logs during tests
		fx.Replace(launchArgs{Paths: []string{dir}}),
		fx.Decorate(func() playbackDevice {
			return &silentDevice{events: make(chan domain.EngineEvent)}
		}),
		fx.Decorate(func() domain.Fetcher { return offlineFetcher{} }),
		fx.Populate(&player),
	)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("App failed to start: %v", err)
	}

	snap := player.Snapshot()
	if len(snap.Tracks) != 1 {
		t.Fatalf("expected only the WAV file in the playlist, got %d tracks", len(snap.Tracks))
	}
	track, ok := snap.Current()
	if !ok || track.Title != "Nothing" || track.Artist != "Quiet Band" {
		t.Errorf("unexpected current track %+v", track)
	}
	if err := player.TogglePlay(); err != nil {
		t.Errorf("TogglePlay failed: %v", err)
	}

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("App failed to stop: %v", err)
	}
}
