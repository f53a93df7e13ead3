package artwork

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const _maxImageSize = 10 * 1024 * 1024 // 10 MB

// CoverFetcher loads album covers from HTTP/HTTPS URLs or local files
type CoverFetcher struct {
	logger *zap.Logger
	fs     afero.Fs
	client *http.Client
}

// NewCoverFetcher creates a fetcher reading local covers from fs
func NewCoverFetcher(logger *zap.Logger, fs afero.Fs) *CoverFetcher {
	return &CoverFetcher{
		logger: logger,
		fs:     fs,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch returns the raw image bytes behind ref, capped at 10 MB
func (f *CoverFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var (
		body io.ReadCloser
		err  error
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		body, err = f.openRemote(ctx, ref)
	} else {
		body, err = f.fs.Open(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			err = fmt.Errorf("failed to open cover: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, _maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}

	f.logger.Debug("Cover loaded", zap.Int("bytes", len(data)), zap.String("ref", ref))
	return data, nil
}

// openRemote returns the body of an image response
func (f *CoverFetcher) openRemote(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "tunedeck/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}

	switch ct := resp.Header.Get("Content-Type"); {
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	case !strings.HasPrefix(ct, "image/"):
		resp.Body.Close()
		return nil, fmt.Errorf("url is not an image: %s", ct)
	}
	return resp.Body, nil
}
