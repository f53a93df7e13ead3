package controller

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/genricoloni/tunedeck/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	volumeStep  = 0.05
	seekStepSec = 5.0
)

// Transport is the session surface bound to keys
type Transport interface {
	TogglePlay() error
	PlayNext() error
	PlayPrevious() error
	SeekTo(seconds float64) error
	SetVolume(level float64)
	ToggleMute()
	ToggleShuffle()
	ToggleRepeat()
	ToggleAutoplay()
	Snapshot() domain.Snapshot
	OnChange(fn func(domain.Snapshot))
}

// KeyboardController maps raw terminal key presses onto session commands
type KeyboardController struct {
	logger *zap.Logger
	player Transport
	in     *os.File
	out    io.Writer

	mu       sync.Mutex
	oldState *term.State
	status   string
}

// NewKeyboardController creates a controller reading stdin and drawing on stdout
func NewKeyboardController(logger *zap.Logger, player Transport) *KeyboardController {
	return &KeyboardController{
		logger: logger,
		player: player,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Interactive reports whether stdin is a terminal the controller can drive
func (k *KeyboardController) Interactive() bool {
	return term.IsTerminal(int(k.in.Fd()))
}

// Run puts the terminal in raw mode and dispatches keys until q is pressed
// or stdin fails. quit is called when the user asks to leave.
func (k *KeyboardController) Run(quit func()) error {
	fd := int(k.in.Fd())

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	k.mu.Lock()
	k.oldState = state
	k.mu.Unlock()
	defer k.Stop()

	fmt.Fprint(k.out, "tunedeck\r\n")
	fmt.Fprint(k.out, "space=play/pause n=next p=prev +/-=volume m=mute s=shuffle r=repeat a=autoplay ←/→=seek q=quit\r\n")

	k.player.OnChange(k.draw)
	k.draw(k.player.Snapshot())

	buf := make([]byte, 8)
	for {
		n, err := k.in.Read(buf)
		if err != nil {
			return err
		}
		if k.handle(buf[:n]) {
			fmt.Fprint(k.out, "\r\n")
			quit()
			return nil
		}
	}
}

// Stop restores the terminal state saved by Run
func (k *KeyboardController) Stop() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.oldState == nil {
		return nil
	}
	err := term.Restore(int(k.in.Fd()), k.oldState)
	k.oldState = nil
	return err
}

// handle executes the command bound to one key read; it reports whether to quit
func (k *KeyboardController) handle(key []byte) bool {
	if len(key) == 0 {
		return false
	}

	// arrow keys arrive as ESC [ C / ESC [ D
	if len(key) >= 3 && key[0] == 0x1b && key[1] == '[' {
		switch key[2] {
		case 'C':
			k.seekBy(seekStepSec)
		case 'D':
			k.seekBy(-seekStepSec)
		}
		return false
	}

	var err error
	switch key[0] {
	case ' ':
		err = k.player.TogglePlay()
	case 'n':
		err = k.player.PlayNext()
	case 'p':
		err = k.player.PlayPrevious()
	case '+', '=':
		k.player.SetVolume(k.player.Snapshot().Volume + volumeStep)
	case '-', '_':
		k.player.SetVolume(k.player.Snapshot().Volume - volumeStep)
	case 'm':
		k.player.ToggleMute()
	case 's':
		k.player.ToggleShuffle()
	case 'r':
		k.player.ToggleRepeat()
	case 'a':
		k.player.ToggleAutoplay()
	case 'q', 0x03: // Ctrl-C does not raise SIGINT in raw mode
		return true
	}

	if err != nil {
		k.logger.Debug("Key command failed", zap.String("key", string(key[:1])), zap.Error(err))
	}
	return false
}

func (k *KeyboardController) seekBy(delta float64) {
	snap := k.player.Snapshot()
	if err := k.player.SeekTo(snap.PositionSeconds + delta); err != nil {
		k.logger.Debug("Seek failed", zap.Error(err))
	}
}

// draw rewrites the status line when anything but the position changed
func (k *KeyboardController) draw(snap domain.Snapshot) {
	line := statusLine(snap)

	k.mu.Lock()
	defer k.mu.Unlock()
	if line == k.status {
		return
	}
	k.status = line
	fmt.Fprintf(k.out, "\r\033[K%s", line)
}

func statusLine(snap domain.Snapshot) string {
	track, ok := snap.Current()
	if !ok {
		return "■ no tracks"
	}

	icon := "⏸"
	if snap.IsPlaying {
		icon = "▶"
	}

	var flags []string
	if snap.Shuffle {
		flags = append(flags, "shuffle")
	}
	if snap.Repeat {
		flags = append(flags, "repeat")
	}
	if snap.Autoplay {
		flags = append(flags, "autoplay")
	}

	volume := fmt.Sprintf("vol %d%%", int(snap.Volume*100+0.5))
	if snap.IsMuted {
		volume = "muted"
	}

	line := fmt.Sprintf("%s %s - %s  [%d/%d]  %s", icon, track.Artist, track.Title,
		snap.CurrentIndex+1, len(snap.Tracks), volume)
	if len(flags) > 0 {
		line += "  " + strings.Join(flags, " ")
	}
	return line
}
