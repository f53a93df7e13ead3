package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	defaultBlurRadius = 15.0
	coverHeightRatio  = 0.40 // Cover size as a fraction of the display height
	jpegQuality       = 90
)

// BlurRenderer composes a sharp cover over a blurred, display-sized copy of itself
type BlurRenderer struct {
	logger     *zap.Logger
	fs         afero.Fs
	res        *domain.ScreenResolution
	cfg        domain.Config
	blurRadius float64
	coverRatio float64

	mu       sync.Mutex
	renders  uint64
	lastPath string
}

// NewBlurRenderer creates a renderer sized for the given display
func NewBlurRenderer(logger *zap.Logger, fs afero.Fs, res *domain.ScreenResolution, cfg domain.Config) *BlurRenderer {
	return &BlurRenderer{
		logger:     logger,
		fs:         fs,
		res:        res,
		cfg:        cfg,
		blurRadius: defaultBlurRadius,
		coverRatio: coverHeightRatio,
	}
}

// Compose decodes a cover (honouring EXIF orientation) and returns the
// encoded JPEG backdrop
func (r *BlurRenderer) Compose(imageData []byte) ([]byte, error) {
	cover, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	size := cover.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", size.X, size.Y)
	}

	sharp, at := r.placeCover(cover)
	out := imaging.Paste(r.backdrop(cover), sharp, at)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	r.logger.Debug("Artwork composed",
		zap.Int("bytes", buf.Len()),
		zap.Int("coverWidth", sharp.Bounds().Dx()),
		zap.Int("coverHeight", sharp.Bounds().Dy()))
	return buf.Bytes(), nil
}

// backdrop fills the display with a blurred copy of cover
func (r *BlurRenderer) backdrop(cover image.Image) *image.NRGBA {
	filled := imaging.Fill(cover, r.res.Width, r.res.Height, imaging.Center, imaging.Lanczos)
	return imaging.Blur(filled, r.blurRadius)
}

// placeCover scales cover to its share of the display height and returns it
// with the point that centres it
func (r *BlurRenderer) placeCover(cover image.Image) (*image.NRGBA, image.Point) {
	height := int(float64(r.res.Height) * r.coverRatio)
	scaled := imaging.Resize(cover, 0, height, imaging.Lanczos)

	return scaled, image.Pt(
		(r.res.Width-scaled.Bounds().Dx())/2,
		(r.res.Height-height)/2,
	)
}

// Render composes the artwork and writes it to a new file in the art
// directory. Each render gets its own name so clients caching by URL pick
// up the change; the previous file is removed.
func (r *BlurRenderer) Render(ctx context.Context, imgData []byte) (string, error) {
	data, err := r.Compose(imgData)
	if err != nil {
		return "", fmt.Errorf("failed to process image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := filepath.Abs(r.cfg.GetArtDir())
	if err != nil {
		return "", fmt.Errorf("failed to resolve art directory: %w", err)
	}
	if err := r.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create art directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.renders++
	path := filepath.Join(dir, fmt.Sprintf("now_playing-%d.jpg", r.renders))
	if err := afero.WriteFile(r.fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artwork file: %w", err)
	}

	if r.lastPath != "" {
		if err := r.fs.Remove(r.lastPath); err != nil {
			r.logger.Debug("Failed to remove previous artwork", zap.String("path", r.lastPath), zap.Error(err))
		}
	}
	r.lastPath = path

	r.logger.Info("Artwork rendered", zap.String("path", path), zap.Int("size", len(data)))
	return path, nil
}
