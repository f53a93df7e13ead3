package artwork

import (
	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// NewScreenResolution detects the primary display size the artwork is rendered for
func NewScreenResolution(logger *zap.Logger) *domain.ScreenResolution {
	if screenshot.NumActiveDisplays() <= 0 {
		logger.Warn("No active displays detected, rendering artwork at 1920x1080")
		return &domain.ScreenResolution{Width: 1920, Height: 1080}
	}

	bounds := screenshot.GetDisplayBounds(0)
	res := &domain.ScreenResolution{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	logger.Info("Display resolution detected",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))
	return res
}
