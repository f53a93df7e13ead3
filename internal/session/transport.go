package session

import (
	"fmt"

	"github.com/genricoloni/tunedeck/internal/domain"
	"go.uber.org/zap"
)

// TogglePlay pauses when playing, otherwise asks the engine to play.
// isPlaying flips immediately; a rejected play reverts it asynchronously.
func (s *Session) TogglePlay() error {
	s.mu.Lock()
	if _, ok := s.tracks.At(s.currentIndex); !ok {
		s.mu.Unlock()
		return domain.ErrEmptyPlaylist
	}

	if s.isPlaying {
		s.pauseLocked()
	} else {
		s.requestPlayLocked()
	}
	s.commit()
	return nil
}

// Play starts playback unless already playing
func (s *Session) Play() error {
	s.mu.Lock()
	if _, ok := s.tracks.At(s.currentIndex); !ok {
		s.mu.Unlock()
		return domain.ErrEmptyPlaylist
	}
	if !s.isPlaying {
		s.requestPlayLocked()
	}
	s.commit()
	return nil
}

// Pause halts playback unless already paused
func (s *Session) Pause() {
	s.mu.Lock()
	if s.isPlaying {
		s.pauseLocked()
	}
	s.commit()
}

// Stop pauses and rewinds the current track
func (s *Session) Stop() {
	s.mu.Lock()
	if s.isPlaying {
		s.pauseLocked()
	}
	if s.loadedRef != "" {
		s.position = 0
		s.seekEngineLocked(0)
	}
	s.commit()
}

// PlayNext advances to the next track, or to a random other track when shuffle is on
func (s *Session) PlayNext() error {
	s.mu.Lock()
	if s.tracks.Len() == 0 {
		s.mu.Unlock()
		return domain.ErrEmptyPlaylist
	}
	s.nextLocked()
	s.commit()
	return nil
}

// PlayPrevious restarts the current track when more than three seconds in,
// otherwise moves to the preceding track (wrapping around)
func (s *Session) PlayPrevious() error {
	s.mu.Lock()
	n := s.tracks.Len()
	if n == 0 {
		s.mu.Unlock()
		return domain.ErrEmptyPlaylist
	}

	if s.position > restartThreshold {
		s.position = 0
		s.seekEngineLocked(0)
		s.commit()
		return nil
	}

	s.moveToLocked((s.currentIndex - 1 + n) % n)
	s.commit()
	return nil
}

// SeekTo moves playback to t seconds. The position updates immediately,
// without waiting for the engine's next progress event.
func (s *Session) SeekTo(t float64) error {
	s.mu.Lock()
	if s.loadedRef == "" {
		s.mu.Unlock()
		return domain.ErrEmptyPlaylist
	}

	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t > s.duration {
		t = s.duration
	}
	s.seekEngineLocked(t)
	s.position = t
	s.commit()
	return nil
}

// SetVolume stores a linear level in [0,1]. A non-zero level unmutes.
func (s *Session) SetVolume(level float64) {
	s.mu.Lock()
	s.volume = clamp01(level)
	if s.volume > 0 {
		s.muted = false
	}
	s.engine.SetVolume(s.effectiveVolumeLocked())
	s.commit()
}

// ToggleMute flips mute without touching the stored volume
func (s *Session) ToggleMute() {
	s.mu.Lock()
	s.muted = !s.muted
	s.engine.SetVolume(s.effectiveVolumeLocked())
	s.commit()
}

// ToggleAutoplay flips whether the next track starts when one ends
func (s *Session) ToggleAutoplay() {
	s.mu.Lock()
	s.autoplay = !s.autoplay
	s.commit()
}

// ToggleShuffle flips random next-track selection
func (s *Session) ToggleShuffle() {
	s.mu.Lock()
	s.shuffle = !s.shuffle
	s.commit()
}

// ToggleRepeat flips single-track repeat
func (s *Session) ToggleRepeat() {
	s.mu.Lock()
	s.repeat = !s.repeat
	s.commit()
}

// SelectTrack makes the track at index current and plays it
func (s *Session) SelectTrack(index int) error {
	s.mu.Lock()
	if _, ok := s.tracks.At(index); !ok {
		n := s.tracks.Len()
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (playlist has %d tracks)", domain.ErrIndexOutOfRange, index, n)
	}

	if index == s.currentIndex {
		if !s.isPlaying {
			s.requestPlayLocked()
		}
		s.commit()
		return nil
	}

	s.currentIndex = index
	s.isPlaying = true
	s.loadCurrentLocked()
	s.commit()
	return nil
}

func (s *Session) nextLocked() {
	n := s.tracks.Len()
	next := (s.currentIndex + 1) % n
	if s.shuffle {
		next = s.randIntN(n)
		for next == s.currentIndex && n > 1 {
			next = s.randIntN(n)
		}
	}
	s.moveToLocked(next)
}

// moveToLocked switches to index and plays it. Moving to the index that is
// already current restarts the track.
func (s *Session) moveToLocked(index int) {
	if index == s.currentIndex {
		s.position = 0
		s.seekEngineLocked(0)
		s.requestPlayLocked()
		return
	}
	s.currentIndex = index
	s.isPlaying = true
	s.loadCurrentLocked()
}

func (s *Session) pauseLocked() {
	s.isPlaying = false
	s.playSeq++
	s.engine.Pause()
}

// requestPlayLocked records the intent to play and asks the engine to play.
// The outcome is awaited in a goroutine; a rejection reverts isPlaying only
// if no newer transport intent was recorded meanwhile.
func (s *Session) requestPlayLocked() {
	s.isPlaying = true
	s.playSeq++
	seq := s.playSeq
	outcome := s.engine.Play()

	s.wg.Add(1)
	go s.awaitPlay(outcome, seq)
}

func (s *Session) awaitPlay(outcome <-chan error, seq uint64) {
	defer s.wg.Done()

	var err error
	select {
	case err = <-outcome:
	case <-s.ctx.Done():
		return
	}
	if err == nil {
		return
	}

	s.mu.Lock()
	if s.playSeq != seq || !s.isPlaying {
		s.mu.Unlock()
		return
	}
	s.isPlaying = false
	s.playSeq++
	s.logger.Warn("Engine rejected play, reverting to paused", zap.Error(err))
	s.commit()
}

func (s *Session) seekEngineLocked(t float64) {
	err := s.engine.SetCurrentTime(t)
	s.engineGen = s.engine.Generation()
	if err != nil {
		s.logger.Warn("Engine seek failed", zap.Float64("seconds", t), zap.Error(err))
	}
}
