package main

import (
	"context"
	"errors"

	"github.com/genricoloni/tunedeck/internal/artwork"
	"github.com/genricoloni/tunedeck/internal/audio"
	"github.com/genricoloni/tunedeck/internal/config"
	"github.com/genricoloni/tunedeck/internal/controller"
	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/genricoloni/tunedeck/internal/library"
	"github.com/genricoloni/tunedeck/internal/mpris"
	"github.com/genricoloni/tunedeck/internal/session"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// launchArgs carries the files and directories named on the command line
type launchArgs struct {
	Paths []string
}

// playbackDevice is the audio engine together with its lifecycle
type playbackDevice interface {
	domain.AudioEngine
	Start(ctx context.Context) error
	Close(ctx context.Context) error
}

// AppOptions is the complete dependency graph of the player
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Supply(launchArgs{}),

	// Provide dependencies
	fx.Provide(
		newLogger,
		config.NewViper,
		newConfig,

		// Local files and audio output
		afero.NewOsFs,
		library.NewRegistry,
		newResourceProvider,
		newLocalSource,
		newOpener,
		newPlaybackDevice,
		newAudioEngine,
		newDurationProber,

		// Player state
		newSession,

		// Now-playing artwork
		artwork.NewScreenResolution,
		newFetcher,
		newArtRenderer,
		artwork.NewPipeline,
		newSnapshotSource,

		// Outer surfaces
		newMPRISPlayer,
		mpris.NewServer,
		newTransport,
		controller.NewKeyboardController,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func newConfig(logger *zap.Logger, v *viper.Viper) domain.Config {
	return config.NewAppConfig(logger, v)
}

func newResourceProvider(r *library.Registry) domain.ResourceProvider { return r }

func newLocalSource(r *library.Registry) audio.LocalSource { return r }

func newOpener(logger *zap.Logger, fs afero.Fs, local audio.LocalSource) audio.Opener {
	return audio.NewSourceOpener(logger, fs, local)
}

func newPlaybackDevice(logger *zap.Logger, cfg domain.Config, opener audio.Opener) playbackDevice {
	return audio.NewBeepEngine(logger, cfg, opener)
}

func newAudioEngine(d playbackDevice) domain.AudioEngine { return d }

func newDurationProber(logger *zap.Logger, opener audio.Opener) domain.DurationProber {
	return audio.NewProber(logger, opener)
}

// newSession starts from the built-in playlist unless files were named on
// the command line, in which case the playlist holds only those
func newSession(
	logger *zap.Logger,
	cfg domain.Config,
	engine domain.AudioEngine,
	resources domain.ResourceProvider,
	prober domain.DurationProber,
	args launchArgs,
) *session.Session {
	var opts []session.Option
	if len(args.Paths) > 0 {
		opts = append(opts, session.WithTracks())
	}
	return session.New(logger, cfg, engine, resources, prober, opts...)
}

func newFetcher(logger *zap.Logger, fs afero.Fs) domain.Fetcher {
	return artwork.NewCoverFetcher(logger, fs)
}

func newArtRenderer(logger *zap.Logger, fs afero.Fs, res *domain.ScreenResolution, cfg domain.Config) domain.ArtRenderer {
	return artwork.NewBlurRenderer(logger, fs, res, cfg)
}

func newSnapshotSource(s *session.Session) artwork.SnapshotSource { return s }

func newMPRISPlayer(s *session.Session) mpris.Player { return s }

func newTransport(s *session.Session) controller.Transport { return s }

// registerHooks sets up application lifecycle hooks.
// Components start in dependency order and stop in reverse.
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	logger *zap.Logger,
	args launchArgs,
	fs afero.Fs,
	engine playbackDevice,
	player *session.Session,
	pipeline *artwork.Pipeline,
	server *mpris.Server,
	keyboard *controller.KeyboardController,
) {
	pipeline.OnRendered(server.SetArtwork)

	lc.Append(fx.Hook{
		OnStart: engine.Start,
		OnStop:  engine.Close,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := player.Start(ctx); err != nil {
				return err
			}
			ingest(logger, fs, player, args.Paths)
			return nil
		},
		OnStop: player.Close,
	})

	lc.Append(fx.Hook{
		OnStart: pipeline.Start,
		OnStop:  pipeline.Stop,
	})

	lc.Append(fx.Hook{
		OnStart: server.Start,
		OnStop:  server.Stop,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !keyboard.Interactive() {
				logger.Info("Stdin is not a terminal, keyboard controls disabled")
				return nil
			}
			go func() {
				quit := func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to request shutdown", zap.Error(err))
					}
				}
				if err := keyboard.Run(quit); err != nil {
					logger.Warn("Keyboard controller stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return keyboard.Stop()
		},
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("tunedeck started", zap.Int("tracks", len(player.Snapshot().Tracks)))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return nil
		},
	})
}

// ingest adds the command line files to the session. Finding nothing
// playable is logged, never fatal.
func ingest(logger *zap.Logger, fs afero.Fs, player *session.Session, paths []string) {
	if len(paths) == 0 {
		return
	}

	files, err := library.DiscoverFiles(fs, paths)
	if err != nil {
		logger.Warn("Failed to read command line paths", zap.Error(err))
		return
	}

	added, err := player.AddLocalTracks(files)
	switch {
	case errors.Is(err, domain.ErrNoAudioFiles):
		logger.Warn("No playable audio files found", zap.Strings("paths", paths))
	case err != nil:
		logger.Warn("Some files could not be added", zap.Int("added", added), zap.Error(err))
	default:
		logger.Info("Files added from command line", zap.Int("added", added))
	}
}
