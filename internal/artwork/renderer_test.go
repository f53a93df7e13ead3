package artwork

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func TestBlurRenderer_Compose(t *testing.T) {
	tests := []struct {
		name          string
		imageData     []byte
		resolution    *domain.ScreenResolution
		expectedError string
	}{
		{
			name:       "Success - Valid JPEG 1920x1080",
			imageData:  createTestJPEG(100, 100, color.RGBA{R: 255, A: 255}),
			resolution: &domain.ScreenResolution{Width: 1920, Height: 1080},
		},
		{
			name:       "Success - Different Resolution 800x600",
			imageData:  createTestJPEG(200, 150, color.RGBA{G: 255, A: 255}),
			resolution: &domain.ScreenResolution{Width: 800, Height: 600},
		},
		{
			name:       "Edge Case - Very Small Image",
			imageData:  createTestJPEG(1, 1, color.RGBA{R: 128, G: 128, B: 128, A: 255}),
			resolution: &domain.ScreenResolution{Width: 1920, Height: 1080},
		},
		{
			name:          "Error - Invalid Image Data",
			imageData:     []byte("not-an-image"),
			resolution:    &domain.ScreenResolution{Width: 1920, Height: 1080},
			expectedError: "failed to decode image",
		},
		{
			name:          "Error - Corrupted JPEG",
			imageData:     []byte{0xFF, 0xD8, 0xFF, 0x00, 0x00},
			resolution:    &domain.ScreenResolution{Width: 1920, Height: 1080},
			expectedError: "failed to decode image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := NewBlurRenderer(zap.NewNop(), afero.NewMemMapFs(), tt.resolution, &artConfig{dir: t.TempDir()})
			result, err := renderer.Compose(tt.imageData)

			if tt.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			img, _, err := image.Decode(bytes.NewReader(result))
			if err != nil {
				t.Fatalf("result is not a valid image: %v", err)
			}
			bounds := img.Bounds()
			if bounds.Dx() != tt.resolution.Width || bounds.Dy() != tt.resolution.Height {
				t.Errorf("expected %dx%d, got %dx%d",
					tt.resolution.Width, tt.resolution.Height, bounds.Dx(), bounds.Dy())
			}
		})
	}
}

func TestBlurRenderer_RenderWritesNowPlaying(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join(t.TempDir(), "nested", "art")
	res := &domain.ScreenResolution{Width: 640, Height: 360}
	renderer := NewBlurRenderer(zap.NewNop(), fs, res, &artConfig{dir: dir})

	path, err := renderer.Render(context.Background(), createTestJPEG(50, 50, color.RGBA{B: 255, A: 255}))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "now_playing-") || filepath.Ext(path) != ".jpg" {
		t.Errorf("unexpected artwork name %s", path)
	}
	if !filepath.IsAbs(path) || filepath.Dir(path) != dir {
		t.Errorf("expected absolute path under %s, got %s", dir, path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("artwork file missing: %v", err)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("artwork file is not an image: %v", err)
	}
}

func TestBlurRenderer_RenderUsesFreshPathEachTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/art"
	renderer := NewBlurRenderer(zap.NewNop(), fs, &domain.ScreenResolution{Width: 320, Height: 240}, &artConfig{dir: dir})

	first, err := renderer.Render(context.Background(), createTestJPEG(20, 20, color.RGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatalf("first Render failed: %v", err)
	}
	second, err := renderer.Render(context.Background(), createTestJPEG(20, 20, color.RGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct paths, both were %s", first)
	}
	if exists, _ := afero.Exists(fs, first); exists {
		t.Errorf("previous artwork %s was not removed", first)
	}
	if exists, _ := afero.Exists(fs, second); !exists {
		t.Errorf("current artwork %s missing", second)
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one artwork file in %s, got %d", dir, len(entries))
	}
}

func TestBlurRenderer_RenderCancelled(t *testing.T) {
	renderer := NewBlurRenderer(zap.NewNop(), afero.NewMemMapFs(), &domain.ScreenResolution{Width: 320, Height: 240}, &artConfig{dir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := renderer.Render(ctx, createTestJPEG(10, 10, color.Black)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

// createTestJPEG generates a solid JPEG image for testing
func createTestJPEG(width, height int, col color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, col)
		}
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
		panic("failed to create test JPEG: " + err.Error())
	}
	return buf.Bytes()
}

// artConfig is a minimal domain.Config for the renderer
type artConfig struct {
	dir string
}

func (c *artConfig) GetVolume() float64    { return 0.7 }
func (c *artConfig) GetAutoplay() bool     { return true }
func (c *artConfig) GetShuffle() bool      { return false }
func (c *artConfig) GetRepeat() bool       { return false }
func (c *artConfig) GetSampleRate() int    { return 44100 }
func (c *artConfig) GetArtDir() string     { return c.dir }
func (c *artConfig) GetMPRISEnabled() bool { return false }
