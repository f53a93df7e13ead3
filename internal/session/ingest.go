package session

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/genricoloni/tunedeck/internal/playlist"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// nameSeparator splits "Artist - Title" file names
const nameSeparator = " - "

// AddLocalTracks appends every audio-typed file to the playlist and returns
// how many were added. Durations start at zero and are probed in the background.
// When no file qualifies the count is zero and the error wraps ErrNoAudioFiles;
// acquisition failures of individual files are combined into the error.
func (s *Session) AddLocalTracks(files []domain.LocalFile) (int, error) {
	var (
		errs    error
		added   []domain.Track
		handles = make(map[domain.TrackID]domain.Resource)
	)

	for _, f := range files {
		if !isAudio(f.MediaType) {
			s.logger.Debug("Skipping non-audio file",
				zap.String("name", f.Name),
				zap.String("type", f.MediaType))
			continue
		}

		res, err := s.resources.Acquire(f)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("acquire %s: %w", f.Name, err))
			continue
		}

		title, artist := ParseDisplayName(f.Name)
		track := domain.Track{
			ID:        domain.TrackID(uuid.NewString()),
			Title:     title,
			Artist:    artist,
			Album:     playlist.LocalAlbum,
			CoverRef:  playlist.LocalCover,
			AudioRef:  res.Ref(),
			Removable: true,
		}
		added = append(added, track)
		handles[track.ID] = res
	}

	if len(added) == 0 {
		return 0, multierr.Append(domain.ErrNoAudioFiles, errs)
	}

	s.mu.Lock()
	wasEmpty := s.tracks.Len() == 0
	s.tracks.Append(added...)
	for id, h := range handles {
		s.handles[id] = h
	}
	if wasEmpty {
		s.currentIndex = 0
		s.loadCurrentLocked()
	}
	s.commit()

	s.logger.Info("Local tracks added", zap.Int("count", len(added)))

	for _, t := range added {
		s.wg.Add(1)
		go s.probeDuration(t.ID, t.AudioRef)
	}
	return len(added), errs
}

// RemoveTrack removes the track with the given id.
// Removing the current track stops playback and points at the first track;
// removing the last remaining track leaves the session empty.
func (s *Session) RemoveTrack(id domain.TrackID) error {
	s.mu.Lock()
	removed, index := s.tracks.Remove(id)
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrTrackNotFound, id)
	}
	handle := s.handles[id]
	delete(s.handles, id)

	switch {
	case index < s.currentIndex:
		s.currentIndex--

	case index == s.currentIndex:
		s.isPlaying = false
		s.playSeq++
		s.currentIndex = domain.NoTrack
		if s.tracks.Len() > 0 {
			s.currentIndex = 0
		}
		s.loadCurrentLocked()
	}
	s.commit()

	s.logger.Info("Track removed",
		zap.String("track", removed.Title),
		zap.Int("index", index))

	if handle == nil {
		return nil
	}
	if err := handle.Release(); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}
	return nil
}

// probeDuration patches the track's duration once the prober resolves it.
// Probes are keyed by id, so a result is applied whether or not the track is
// current, and dropped only if the track was removed.
func (s *Session) probeDuration(id domain.TrackID, ref string) {
	defer s.wg.Done()

	seconds, err := s.prober.Probe(s.ctx, ref)
	if err != nil {
		s.logger.Warn("Duration probe failed", zap.String("id", string(id)), zap.Error(err))
		return
	}

	s.mu.Lock()
	if !s.tracks.SetDuration(id, int(math.Floor(seconds))) {
		s.mu.Unlock()
		return
	}
	s.commit()
}

// ParseDisplayName derives a title and artist from a file name following the
// "Artist - Title.ext" convention. Names without the separator become the
// title of an unknown artist.
func ParseDisplayName(name string) (title, artist string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if a, t, found := strings.Cut(base, nameSeparator); found {
		return strings.TrimSpace(t), strings.TrimSpace(a)
	}
	return strings.TrimSpace(base), playlist.UnknownArtist
}

func isAudio(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "audio/")
}
