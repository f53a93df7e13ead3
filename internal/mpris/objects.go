package mpris

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

var errNotSupported = errors.New("not supported")

// rootObject implements org.mpris.MediaPlayer2
type rootObject struct {
	s *Server
}

func (r *rootObject) Raise() *dbus.Error {
	return nil
}

func (r *rootObject) Quit() *dbus.Error {
	return dbus.MakeFailedError(errNotSupported)
}

// playerObject implements org.mpris.MediaPlayer2.Player
type playerObject struct {
	s *Server
}

func (p *playerObject) call(method string, err error) *dbus.Error {
	if err != nil {
		p.s.logger.Debug("MPRIS call failed", zap.String("method", method), zap.Error(err))
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (p *playerObject) Next() *dbus.Error {
	return p.call("Next", p.s.player.PlayNext())
}

func (p *playerObject) Previous() *dbus.Error {
	return p.call("Previous", p.s.player.PlayPrevious())
}

func (p *playerObject) Pause() *dbus.Error {
	p.s.player.Pause()
	return nil
}

func (p *playerObject) PlayPause() *dbus.Error {
	return p.call("PlayPause", p.s.player.TogglePlay())
}

func (p *playerObject) Stop() *dbus.Error {
	p.s.player.Stop()
	return nil
}

func (p *playerObject) Play() *dbus.Error {
	return p.call("Play", p.s.player.Play())
}

// Seek moves by offset microseconds; seeking past the end skips to the next track
func (p *playerObject) Seek(offset int64) *dbus.Error {
	snap := p.s.player.Snapshot()
	if _, ok := snap.Current(); !ok {
		return nil
	}

	target := snap.PositionSeconds + float64(offset)/1e6
	if target < 0 {
		target = 0
	}
	if snap.DurationSeconds > 0 && target > snap.DurationSeconds {
		return p.call("Seek", p.s.player.PlayNext())
	}

	if err := p.s.player.SeekTo(target); err != nil {
		return p.call("Seek", err)
	}
	p.s.emitSeeked(target)
	return nil
}

// SetPosition is ignored unless trackID names the current track
func (p *playerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	snap := p.s.player.Snapshot()
	track, ok := snap.Current()
	if !ok || trackPath(track.ID) != trackID {
		return nil
	}

	target := float64(position) / 1e6
	if target < 0 || (snap.DurationSeconds > 0 && target > snap.DurationSeconds) {
		return nil
	}

	if err := p.s.player.SeekTo(target); err != nil {
		return p.call("SetPosition", err)
	}
	p.s.emitSeeked(target)
	return nil
}

func (p *playerObject) OpenUri(uri string) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("open %s: %w", uri, errNotSupported))
}

// propertiesObject implements org.freedesktop.DBus.Properties for both interfaces
type propertiesObject struct {
	s *Server
}

func (o *propertiesObject) properties(iface string) (map[string]dbus.Variant, *dbus.Error) {
	switch iface {
	case RootInterface:
		return rootProperties(), nil
	case PlayerInterface:
		snap := o.s.player.Snapshot()
		o.s.mu.Lock()
		defer o.s.mu.Unlock()
		return o.s.playerPropertiesLocked(snap), nil
	default:
		return nil, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", []any{iface})
	}
}

func (o *propertiesObject) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	props, derr := o.properties(iface)
	if derr != nil {
		return dbus.Variant{}, derr
	}
	value, ok := props[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty", []any{name})
	}
	return value, nil
}

func (o *propertiesObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	return o.properties(iface)
}

// Set applies the writable player properties: Volume, Shuffle and LoopStatus
func (o *propertiesObject) Set(iface, name string, value dbus.Variant) *dbus.Error {
	if iface != PlayerInterface {
		return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", []any{name})
	}

	player := o.s.player
	snap := player.Snapshot()

	switch name {
	case "Volume":
		level, ok := value.Value().(float64)
		if !ok {
			return invalidArg(name, value)
		}
		player.SetVolume(level)

	case "Shuffle":
		on, ok := value.Value().(bool)
		if !ok {
			return invalidArg(name, value)
		}
		if on != snap.Shuffle {
			player.ToggleShuffle()
		}

	case "LoopStatus":
		status, ok := value.Value().(string)
		if !ok {
			return invalidArg(name, value)
		}
		var repeat, autoplay bool
		switch status {
		case "Track":
			repeat, autoplay = true, snap.Autoplay
		case "Playlist":
			repeat, autoplay = false, true
		case "None":
			repeat, autoplay = false, false
		default:
			return invalidArg(name, value)
		}
		if repeat != snap.Repeat {
			player.ToggleRepeat()
		}
		if autoplay != snap.Autoplay {
			player.ToggleAutoplay()
		}

	default:
		return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", []any{name})
	}
	return nil
}

func invalidArg(name string, value dbus.Variant) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs",
		[]any{fmt.Sprintf("invalid value %s for %s", value.String(), name)})
}
