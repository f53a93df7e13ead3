package mpris

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

const (
	BusName         = "org.mpris.MediaPlayer2.tunedeck"
	ObjectPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	RootInterface   = "org.mpris.MediaPlayer2"
	PlayerInterface = "org.mpris.MediaPlayer2.Player"
	propsInterface  = "org.freedesktop.DBus.Properties"

	noTrackPath = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
	trackPrefix = "/org/mpris/MediaPlayer2/tunedeck/track/"
)

// Player is the transport surface the server drives
type Player interface {
	Play() error
	Pause()
	Stop()
	TogglePlay() error
	PlayNext() error
	PlayPrevious() error
	SeekTo(seconds float64) error
	SetVolume(level float64)
	ToggleShuffle()
	ToggleRepeat()
	ToggleAutoplay()
	Snapshot() domain.Snapshot
	OnChange(fn func(domain.Snapshot))
}

// Server exposes the player session as an MPRIS media player
type Server struct {
	logger  *zap.Logger
	player  Player
	enabled bool
	dial    func() (BusConn, error)

	updates chan domain.Snapshot

	mu       sync.Mutex
	conn     BusConn
	running  bool
	last     map[string]dbus.Variant
	artTrack domain.TrackID
	artPath  string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewServer creates an MPRIS server for player
func NewServer(logger *zap.Logger, cfg domain.Config, player Player) *Server {
	s := &Server{
		logger:  logger,
		player:  player,
		enabled: cfg.GetMPRISEnabled(),
		dial:    dialSessionBus,
		updates: make(chan domain.Snapshot, 1),
	}
	player.OnChange(s.offer)
	return s
}

// Start connects to the session bus and exports the player.
// A missing bus is logged and tolerated; the player works without it.
func (s *Server) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("MPRIS disabled by configuration")
		return nil
	}

	conn, err := s.dial()
	if err != nil {
		s.logger.Warn("MPRIS unavailable, session bus connection failed", zap.Error(err))
		return nil
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		s.logger.Warn("MPRIS name already taken or request failed",
			zap.String("name", BusName),
			zap.Error(err))
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
		}
		return nil
	}

	if err := s.export(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export MPRIS objects: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	snap := s.player.Snapshot()

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.last = s.playerPropertiesLocked(snap)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(loopCtx)

	s.logger.Info("MPRIS server started", zap.String("name", BusName))
	return nil
}

func (s *Server) export(conn BusConn) error {
	root := &rootObject{s: s}
	player := &playerObject{s: s}
	props := &propertiesObject{s: s}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{Name: RootInterface, Methods: introspect.Methods(root)},
			{Name: PlayerInterface, Methods: introspect.Methods(player), Signals: []introspect.Signal{
				{Name: "Seeked", Args: []introspect.Arg{{Name: "Position", Type: "x"}}},
			}},
		},
	}

	exports := []struct {
		v     any
		iface string
	}{
		{root, RootInterface},
		{player, PlayerInterface},
		{props, propsInterface},
		{introspect.NewIntrospectable(node), "org.freedesktop.DBus.Introspectable"},
	}
	for _, e := range exports {
		if err := conn.Export(e.v, ObjectPath, e.iface); err != nil {
			return fmt.Errorf("export %s: %w", e.iface, err)
		}
	}
	return nil
}

// Stop ends signal emission and drops the bus name
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Close(); err != nil {
		s.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
	}
	s.logger.Info("MPRIS server shutdown complete")
	return nil
}

// SetArtwork records the rendered artwork for a track and republishes metadata
func (s *Server) SetArtwork(id domain.TrackID, path string) {
	s.mu.Lock()
	s.artTrack = id
	s.artPath = path
	s.mu.Unlock()

	s.offer(s.player.Snapshot())
}

// offer keeps only the newest snapshot pending
func (s *Server) offer(snap domain.Snapshot) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *Server) runLoop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-s.updates:
			s.publish(snap)
		}
	}
}

// publish emits PropertiesChanged for every player property that differs
// from what clients last saw. Position is polled by clients, never signalled.
func (s *Server) publish(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	current := s.playerPropertiesLocked(snap)
	changed := make(map[string]dbus.Variant)
	for name, value := range current {
		if name == "Position" {
			continue
		}
		if old, ok := s.last[name]; !ok || !reflect.DeepEqual(old, value) {
			changed[name] = value
		}
	}
	s.last = current

	if len(changed) == 0 {
		return
	}

	if err := s.conn.Emit(ObjectPath, propsInterface+".PropertiesChanged",
		PlayerInterface, changed, []string{}); err != nil {
		s.logger.Warn("Failed to emit PropertiesChanged", zap.Error(err))
		return
	}
	s.logger.Debug("MPRIS properties changed", zap.Int("count", len(changed)))
}

func (s *Server) emitSeeked(positionSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if err := s.conn.Emit(ObjectPath, PlayerInterface+".Seeked", toMicros(positionSeconds)); err != nil {
		s.logger.Warn("Failed to emit Seeked", zap.Error(err))
	}
}

func (s *Server) playerPropertiesLocked(snap domain.Snapshot) map[string]dbus.Variant {
	_, hasTrack := snap.Current()

	return map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant(string(snap.Status())),
		"LoopStatus":     dbus.MakeVariant(loopStatus(snap)),
		"Rate":           dbus.MakeVariant(1.0),
		"MinimumRate":    dbus.MakeVariant(1.0),
		"MaximumRate":    dbus.MakeVariant(1.0),
		"Shuffle":        dbus.MakeVariant(snap.Shuffle),
		"Volume":         dbus.MakeVariant(snap.EffectiveVolume()),
		"Position":       dbus.MakeVariant(toMicros(snap.PositionSeconds)),
		"Metadata":       dbus.MakeVariant(s.metadataLocked(snap)),
		"CanGoNext":      dbus.MakeVariant(hasTrack),
		"CanGoPrevious":  dbus.MakeVariant(hasTrack),
		"CanPlay":        dbus.MakeVariant(hasTrack),
		"CanPause":       dbus.MakeVariant(hasTrack),
		"CanSeek":        dbus.MakeVariant(hasTrack),
		"CanControl":     dbus.MakeVariant(true),
	}
}

func rootProperties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"CanQuit":             dbus.MakeVariant(false),
		"CanRaise":            dbus.MakeVariant(false),
		"HasTrackList":        dbus.MakeVariant(false),
		"Identity":            dbus.MakeVariant("tunedeck"),
		"SupportedUriSchemes": dbus.MakeVariant([]string{"file", "http", "https"}),
		"SupportedMimeTypes":  dbus.MakeVariant([]string{"audio/mpeg", "audio/wav", "audio/flac"}),
	}
}

// metadataLocked maps the current track onto xesam/mpris metadata keys
func (s *Server) metadataLocked(snap domain.Snapshot) map[string]dbus.Variant {
	track, ok := snap.Current()
	if !ok {
		return map[string]dbus.Variant{
			"mpris:trackid": dbus.MakeVariant(noTrackPath),
		}
	}

	artURL := track.CoverRef
	if s.artTrack == track.ID && s.artPath != "" {
		artURL = "file://" + s.artPath
	}

	duration := snap.DurationSeconds
	if duration == 0 {
		duration = float64(track.DurationSeconds)
	}

	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackPath(track.ID)),
		"mpris:length":  dbus.MakeVariant(toMicros(duration)),
		"xesam:title":   dbus.MakeVariant(track.Title),
		"xesam:artist":  dbus.MakeVariant([]string{track.Artist}),
		"xesam:album":   dbus.MakeVariant(track.Album),
	}
	if artURL != "" {
		meta["mpris:artUrl"] = dbus.MakeVariant(artURL)
	}
	return meta
}

// loopStatus folds repeat and autoplay into the MPRIS loop vocabulary
func loopStatus(snap domain.Snapshot) string {
	switch {
	case snap.Repeat:
		return "Track"
	case snap.Autoplay:
		return "Playlist"
	default:
		return "None"
	}
}

// trackPath builds an object path; ids may hold characters D-Bus forbids
func trackPath(id domain.TrackID) dbus.ObjectPath {
	var b strings.Builder
	b.WriteString(trackPrefix)
	for _, r := range string(id) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if len(id) == 0 {
		b.WriteByte('_')
	}
	return dbus.ObjectPath(b.String())
}

func toMicros(seconds float64) int64 {
	return int64(seconds * float64(time.Second/time.Microsecond))
}
