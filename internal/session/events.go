package session

import (
	"github.com/genricoloni/tunedeck/internal/domain"
	"go.uber.org/zap"
)

// handleEvent applies one engine notification. Events produced before the
// last load or seek are dropped, so an end queued for a track the user just
// restarted never advances the playlist.
func (s *Session) handleEvent(ev domain.EngineEvent) {
	s.mu.Lock()
	if s.loadedRef == "" || ev.Generation != s.engineGen {
		s.mu.Unlock()
		s.logger.Debug("Dropping stale engine event",
			zap.Stringer("kind", ev.Kind),
			zap.String("source", ev.Source),
			zap.Uint64("generation", ev.Generation))
		return
	}

	switch ev.Kind {
	case domain.EventTimeUpdate:
		s.position = ev.Seconds

	case domain.EventDurationKnown:
		s.duration = ev.Seconds

	case domain.EventEnded:
		s.handleEndedLocked()

	default:
		s.mu.Unlock()
		s.logger.Warn("Unknown engine event", zap.Int("kind", int(ev.Kind)))
		return
	}
	s.commit()
}

// handleEndedLocked decides what follows a finished track:
// repeat restarts it, autoplay advances, otherwise playback stops at the end
func (s *Session) handleEndedLocked() {
	switch {
	case s.repeat:
		s.logger.Debug("Track ended, repeating")
		s.position = 0
		s.seekEngineLocked(0)
		s.requestPlayLocked()

	case s.autoplay:
		s.logger.Debug("Track ended, advancing")
		s.nextLocked()

	default:
		s.logger.Debug("Track ended, stopping")
		s.isPlaying = false
		s.playSeq++
	}
}
