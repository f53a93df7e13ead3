package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration keys. Each is also read from TUNEDECK_<KEY> with dots as underscores.
const (
	KeyVolume       = "volume"
	KeyAutoplay     = "autoplay"
	KeyShuffle      = "shuffle"
	KeyRepeat       = "repeat"
	KeySampleRate   = "audio.sample_rate"
	KeyArtDir       = "art.dir"
	KeyMPRISEnabled = "mpris.enabled"

	envPrefix = "tunedeck"
)

// EnvKeyReplacer maps nested keys onto environment variable names
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Default values applied before the config file, environment and flags
var Default = map[string]any{
	KeyVolume:       0.7,
	KeyAutoplay:     true,
	KeyShuffle:      false,
	KeyRepeat:       false,
	KeySampleRate:   44100,
	KeyArtDir:       "/tmp/tunedeck",
	KeyMPRISEnabled: true,
}

// NewViper builds the configuration source: defaults, then an optional
// $XDG_CONFIG_HOME/tunedeck/config.toml, then TUNEDECK_* variables.
// Flags are bound on top by the command line.
func NewViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, envPrefix))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	v.SetTypeByDefaultValue(true)
	for key, value := range Default {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// AppConfig holds application configuration
type AppConfig struct {
	logger       *zap.Logger
	volume       float64
	autoplay     bool
	shuffle      bool
	repeat       bool
	sampleRate   int
	artDir       string
	mprisEnabled bool
}

// NewAppConfig resolves the configuration snapshot used for the process lifetime
func NewAppConfig(logger *zap.Logger, v *viper.Viper) *AppConfig {
	volume := v.GetFloat64(KeyVolume)
	if volume < 0 || volume > 1 {
		logger.Warn("Volume out of range, clamping", zap.Float64("volume", volume))
		volume = min(max(volume, 0), 1)
	}

	sampleRate := v.GetInt(KeySampleRate)
	if sampleRate <= 0 {
		logger.Warn("Invalid sample rate, using default", zap.Int("sampleRate", sampleRate))
		sampleRate = Default[KeySampleRate].(int)
	}

	cfg := &AppConfig{
		logger:       logger,
		volume:       volume,
		autoplay:     v.GetBool(KeyAutoplay),
		shuffle:      v.GetBool(KeyShuffle),
		repeat:       v.GetBool(KeyRepeat),
		sampleRate:   sampleRate,
		artDir:       expandPath(v.GetString(KeyArtDir)),
		mprisEnabled: v.GetBool(KeyMPRISEnabled),
	}

	logger.Info("Configuration loaded",
		zap.Float64("volume", cfg.volume),
		zap.Bool("autoplay", cfg.autoplay),
		zap.Bool("shuffle", cfg.shuffle),
		zap.Bool("repeat", cfg.repeat),
		zap.Int("sampleRate", cfg.sampleRate),
		zap.String("artDir", cfg.artDir),
		zap.Bool("mpris", cfg.mprisEnabled))

	return cfg
}

// expandPath resolves environment variables and a leading ~
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetVolume returns the initial linear volume
func (c *AppConfig) GetVolume() float64 {
	return c.volume
}

// GetAutoplay reports whether autoplay starts enabled
func (c *AppConfig) GetAutoplay() bool {
	return c.autoplay
}

// GetShuffle reports whether shuffle starts enabled
func (c *AppConfig) GetShuffle() bool {
	return c.shuffle
}

// GetRepeat reports whether repeat starts enabled
func (c *AppConfig) GetRepeat() bool {
	return c.repeat
}

// GetSampleRate returns the audio output sample rate
func (c *AppConfig) GetSampleRate() int {
	return c.sampleRate
}

// GetArtDir returns the directory for generated artwork
func (c *AppConfig) GetArtDir() string {
	return c.artDir
}

// GetMPRISEnabled reports whether the D-Bus surface is exported
func (c *AppConfig) GetMPRISEnabled() bool {
	return c.mprisEnabled
}
