package playlist

import (
	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/samber/lo"
)

// Playlist holds an ordered collection of tracks with unique ids.
// Insertion order is the default traversal and display order.
type Playlist struct {
	tracks []domain.Track
}

// New creates a playlist from the given tracks.
// Tracks whose id is already present are skipped.
func New(tracks ...domain.Track) *Playlist {
	p := &Playlist{tracks: make([]domain.Track, 0, len(tracks))}
	p.Append(tracks...)
	return p
}

// Append adds tracks to the end of the playlist and returns how many were added.
// A track whose id already exists is ignored.
func (p *Playlist) Append(tracks ...domain.Track) int {
	added := 0
	for _, t := range tracks {
		if p.IndexOf(t.ID) >= 0 {
			continue
		}
		p.tracks = append(p.tracks, t)
		added++
	}
	return added
}

// Remove deletes the track with the given id.
// It returns the removed track and its former index, or -1 if absent.
func (p *Playlist) Remove(id domain.TrackID) (domain.Track, int) {
	index := p.IndexOf(id)
	if index < 0 {
		return domain.Track{}, -1
	}
	removed := p.tracks[index]
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return removed, index
}

// IndexOf returns the position of the track with the given id, or -1
func (p *Playlist) IndexOf(id domain.TrackID) int {
	_, index, found := lo.FindIndexOf(p.tracks, func(t domain.Track) bool {
		return t.ID == id
	})
	if !found {
		return -1
	}
	return index
}

// At returns the track at index, or false if out of bounds
func (p *Playlist) At(index int) (domain.Track, bool) {
	if index < 0 || index >= len(p.tracks) {
		return domain.Track{}, false
	}
	return p.tracks[index], true
}

// SetDuration patches the duration of the track with the given id.
// Returns false if the track no longer exists.
func (p *Playlist) SetDuration(id domain.TrackID, seconds int) bool {
	index := p.IndexOf(id)
	if index < 0 {
		return false
	}
	p.tracks[index].DurationSeconds = seconds
	return true
}

// Removable returns the tracks that own a transient resource
func (p *Playlist) Removable() []domain.Track {
	return lo.Filter(p.tracks, func(t domain.Track, _ int) bool {
		return t.Removable
	})
}

// Tracks returns a copy of all tracks
func (p *Playlist) Tracks() []domain.Track {
	result := make([]domain.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Len returns the number of tracks
func (p *Playlist) Len() int {
	return len(p.tracks)
}
