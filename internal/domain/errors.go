package domain

import "errors"

var (
	// ErrEmptyPlaylist is returned by transport operations when there is nothing to play
	ErrEmptyPlaylist = errors.New("playlist is empty")
	// ErrIndexOutOfRange is returned when selecting a track that does not exist
	ErrIndexOutOfRange = errors.New("track index out of range")
	// ErrTrackNotFound is returned when removing an unknown track id
	ErrTrackNotFound = errors.New("track not found")
	// ErrNoAudioFiles is the advisory result of an ingestion where nothing qualified
	ErrNoAudioFiles = errors.New("no valid audio files")
	// ErrReleased is returned when a resource is used or released after release
	ErrReleased = errors.New("resource already released")
	// ErrEngineNotReady is returned by Play when there is no output or no source
	ErrEngineNotReady = errors.New("audio engine not ready")
	// ErrUnsupportedFormat is returned for sources no decoder understands
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)
