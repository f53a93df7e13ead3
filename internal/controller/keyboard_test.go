package controller

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/genricoloni/tunedeck/internal/domain"
	"go.uber.org/zap"
)

type fakeTransport struct {
	snap  domain.Snapshot
	calls []string
	seeks []float64
	vols  []float64
}

func (f *fakeTransport) TogglePlay() error   { f.calls = append(f.calls, "TogglePlay"); return nil }
func (f *fakeTransport) PlayNext() error     { f.calls = append(f.calls, "PlayNext"); return nil }
func (f *fakeTransport) PlayPrevious() error { f.calls = append(f.calls, "PlayPrevious"); return nil }
func (f *fakeTransport) ToggleMute()         { f.calls = append(f.calls, "ToggleMute") }
func (f *fakeTransport) ToggleShuffle()      { f.calls = append(f.calls, "ToggleShuffle") }
func (f *fakeTransport) ToggleRepeat()       { f.calls = append(f.calls, "ToggleRepeat") }
func (f *fakeTransport) ToggleAutoplay()     { f.calls = append(f.calls, "ToggleAutoplay") }
func (f *fakeTransport) SetVolume(v float64) { f.vols = append(f.vols, v) }
func (f *fakeTransport) Snapshot() domain.Snapshot {
	return f.snap
}
func (f *fakeTransport) OnChange(func(domain.Snapshot)) {}
func (f *fakeTransport) SeekTo(s float64) error {
	f.seeks = append(f.seeks, s)
	return nil
}

func newTestController(snap domain.Snapshot) (*KeyboardController, *fakeTransport, *bytes.Buffer) {
	player := &fakeTransport{snap: snap}
	out := new(bytes.Buffer)
	k := NewKeyboardController(zap.NewNop(), player)
	k.out = out
	return k, player, out
}

func TestHandle_KeyBindings(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{" ", "TogglePlay"},
		{"n", "PlayNext"},
		{"p", "PlayPrevious"},
		{"m", "ToggleMute"},
		{"s", "ToggleShuffle"},
		{"r", "ToggleRepeat"},
		{"a", "ToggleAutoplay"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			k, player, _ := newTestController(domain.Snapshot{})
			if k.handle([]byte(tt.key)) {
				t.Fatal("key must not quit")
			}
			if !reflect.DeepEqual(player.calls, []string{tt.want}) {
				t.Errorf("calls = %v, want [%s]", player.calls, tt.want)
			}
		})
	}
}

func TestHandle_VolumeSteps(t *testing.T) {
	k, player, _ := newTestController(domain.Snapshot{Volume: 0.5})

	k.handle([]byte("+"))
	k.handle([]byte("-"))

	if len(player.vols) != 2 || math.Abs(player.vols[0]-0.55) > 1e-9 || math.Abs(player.vols[1]-0.45) > 1e-9 {
		t.Errorf("volumes = %v", player.vols)
	}
}

func TestHandle_ArrowKeysSeek(t *testing.T) {
	k, player, _ := newTestController(domain.Snapshot{PositionSeconds: 30})

	k.handle([]byte{0x1b, '[', 'C'})
	k.handle([]byte{0x1b, '[', 'D'})
	k.handle([]byte{0x1b, '[', 'A'}) // up arrow is unbound

	if !reflect.DeepEqual(player.seeks, []float64{35, 25}) {
		t.Errorf("seeks = %v", player.seeks)
	}
	if len(player.calls) != 0 {
		t.Errorf("arrow keys must not trigger other commands: %v", player.calls)
	}
}

func TestHandle_Quit(t *testing.T) {
	k, _, _ := newTestController(domain.Snapshot{})

	for _, key := range [][]byte{[]byte("q"), {0x03}} {
		if !k.handle(key) {
			t.Errorf("key %q must quit", key)
		}
	}
	if k.handle([]byte("x")) {
		t.Error("unbound key must not quit")
	}
}

func TestDraw_OnlyRedrawsOnVisibleChange(t *testing.T) {
	snap := domain.Snapshot{
		Tracks:       []domain.Track{{ID: "1", Title: "Ocean Waves", Artist: "Ambient Flow"}},
		CurrentIndex: 0,
		IsPlaying:    true,
		Volume:       0.7,
		Autoplay:     true,
	}
	k, _, out := newTestController(snap)

	k.draw(snap)
	snap.PositionSeconds = 10
	k.draw(snap)

	if c := strings.Count(out.String(), "\r\033[K"); c != 1 {
		t.Errorf("expected one redraw, got %d", c)
	}
	if !strings.Contains(out.String(), "▶ Ambient Flow - Ocean Waves  [1/1]  vol 70%  autoplay") {
		t.Errorf("unexpected status %q", out.String())
	}

	snap.IsMuted = true
	k.draw(snap)
	if !strings.Contains(out.String(), "muted") {
		t.Errorf("expected muted status, got %q", out.String())
	}
}

func TestStatusLine_EmptyPlaylist(t *testing.T) {
	if got := statusLine(domain.Snapshot{CurrentIndex: domain.NoTrack}); got != "■ no tracks" {
		t.Errorf("statusLine = %q", got)
	}
}
