package audio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/genricoloni/tunedeck/internal/domain"
)

// Decode picks a decoder from the extension of ref and takes ownership of rc
func Decode(ref string, rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext := extension(ref); ext {
	case ".mp3":
		return mp3.Decode(rc)
	case ".wav":
		return wav.Decode(rc)
	case ".flac":
		return flac.Decode(rc)
	default:
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

// openAndDecode opens ref through opener and decodes it
func openAndDecode(ctx context.Context, opener Opener, ref string) (beep.StreamSeekCloser, beep.Format, error) {
	rc, err := opener.Open(ctx, ref)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open %s: %w", ref, err)
	}

	streamer, format, err := Decode(ref, rc)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", ref, err)
	}
	return streamer, format, nil
}

func extension(ref string) string {
	p := ref
	if strings.Contains(ref, "://") {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			p = u.Path
		}
	}
	return strings.ToLower(path.Ext(p))
}
