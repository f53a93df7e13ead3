package domain

// NoTrack is the current index of a session whose playlist is empty
const NoTrack = -1

// TrackID uniquely identifies a track within a playlist
type TrackID string

// Track is one playable playlist entry.
// Removable tracks own a transient playable resource that is released when
// the track leaves the playlist.
type Track struct {
	// ID is unique within the playlist
	ID TrackID
	// Title of the song
	Title string
	// Artist name
	Artist string
	// Album name
	Album string
	// DurationSeconds is 0 while unknown (pending probe)
	DurationSeconds int
	// CoverRef is the URL or local path to the album artwork
	CoverRef string
	// AudioRef is the playable source reference handed to the AudioEngine
	AudioRef string
	// Removable marks tracks added from local files
	Removable bool
}

// PlaybackStatus represents the transport state exposed to views
type PlaybackStatus string

const (
	// StatusPlaying indicates the session intends to play
	StatusPlaying PlaybackStatus = "Playing"
	// StatusPaused indicates a loaded track that is not playing
	StatusPaused PlaybackStatus = "Paused"
	// StatusStopped indicates there is nothing to play
	StatusStopped PlaybackStatus = "Stopped"
)

// Snapshot is a read-only copy of the full player session state
type Snapshot struct {
	Tracks          []Track
	CurrentIndex    int
	IsPlaying       bool
	PositionSeconds float64
	DurationSeconds float64
	Volume          float64
	IsMuted         bool
	Autoplay        bool
	Shuffle         bool
	Repeat          bool
}

// Current returns the current track, if any
func (s Snapshot) Current() (Track, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return Track{}, false
	}
	return s.Tracks[s.CurrentIndex], true
}

// EffectiveVolume is the level actually applied to the engine
func (s Snapshot) EffectiveVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return s.Volume
}

// Status derives the transport status from the snapshot
func (s Snapshot) Status() PlaybackStatus {
	if _, ok := s.Current(); !ok {
		return StatusStopped
	}
	if s.IsPlaying {
		return StatusPlaying
	}
	return StatusPaused
}

// EngineEventKind enumerates the callbacks an AudioEngine emits
type EngineEventKind int

const (
	// EventTimeUpdate reports playback progress
	EventTimeUpdate EngineEventKind = iota
	// EventDurationKnown reports the resolved duration of the loaded source
	EventDurationKnown
	// EventEnded reports that the loaded source played to its end
	EventEnded
)

// String returns the event kind name
func (k EngineEventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "TimeUpdate"
	case EventDurationKnown:
		return "DurationKnown"
	case EventEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// EngineEvent is an asynchronous notification from the AudioEngine
type EngineEvent struct {
	Kind EngineEventKind
	// Source is the reference that was loaded when the event was produced
	Source string
	// Seconds carries the position (TimeUpdate) or duration (DurationKnown)
	Seconds float64
	// Generation is the engine generation the event belongs to
	Generation uint64
}

// LocalFile is one user-selected file offered for ingestion
type LocalFile struct {
	// Name is the display name including extension, e.g. "Daft Punk - One More Time.mp3"
	Name string
	// MediaType is the declared MIME type, e.g. "audio/mpeg"
	MediaType string
	// Path locates the file on disk
	Path string
}

// ScreenResolution holds the display dimensions
type ScreenResolution struct {
	Width  int
	Height int
}
