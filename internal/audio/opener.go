package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const _maxSourceSize = 64 * 1024 * 1024 // 64 MB

// Opener resolves a source reference into a seekable byte stream
type Opener interface {
	Open(ctx context.Context, ref string) (io.ReadSeekCloser, error)
}

// LocalSource resolves transient local references issued by the library
type LocalSource interface {
	Handles(ref string) bool
	Open(ref string) (io.ReadSeekCloser, error)
}

// SourceOpener opens remote, local-library and plain file references
type SourceOpener struct {
	logger *zap.Logger
	fs     afero.Fs
	client *http.Client
	local  LocalSource
}

// NewSourceOpener creates an opener backed by the given local library.
// Plain paths and file:// URLs are read from fs.
func NewSourceOpener(logger *zap.Logger, fs afero.Fs, local LocalSource) *SourceOpener {
	return &SourceOpener{
		logger: logger,
		fs:     fs,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		local: local,
	}
}

// Open returns a stream over ref.
// Remote sources are downloaded into memory so decoders can seek them.
func (o *SourceOpener) Open(ctx context.Context, ref string) (io.ReadSeekCloser, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return o.fetch(ctx, ref)
	case o.local != nil && o.local.Handles(ref):
		return o.local.Open(ref)
	default:
		return o.fs.Open(strings.TrimPrefix(ref, "file://"))
	}
}

func (o *SourceOpener) fetch(ctx context.Context, url string) (io.ReadSeekCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "tunedeck/1.0")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxSourceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	o.logger.Debug("Remote source fetched", zap.Int("bytes", len(data)), zap.String("url", url))
	return memorySource{bytes.NewReader(data)}, nil
}

// memorySource adapts an in-memory buffer to io.ReadSeekCloser
type memorySource struct {
	*bytes.Reader
}

func (memorySource) Close() error { return nil }
