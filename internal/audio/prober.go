package audio

import (
	"context"

	"go.uber.org/zap"
)

// Prober computes source durations by decoding headers without output
type Prober struct {
	logger *zap.Logger
	opener Opener
}

// NewProber creates a duration prober sharing the engine's opener
func NewProber(logger *zap.Logger, opener Opener) *Prober {
	return &Prober{
		logger: logger,
		opener: opener,
	}
}

// Probe returns the duration of ref in seconds
func (p *Prober) Probe(ctx context.Context, ref string) (float64, error) {
	streamer, format, err := openAndDecode(ctx, p.opener, ref)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	seconds := format.SampleRate.D(streamer.Len()).Seconds()
	p.logger.Debug("Source probed",
		zap.String("ref", ref),
		zap.Float64("seconds", seconds))

	return seconds, nil
}
