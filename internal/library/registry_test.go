package library

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const musicDir = "/music"

func writeFile(t *testing.T, fs afero.Fs, name, content string) string {
	t.Helper()
	path := filepath.Join(musicDir, name)
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRegistry_AcquireOpenRelease(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFile(t, fs, "Daft Punk - One More Time.mp3", "fake-mp3")

	reg := NewRegistry(zap.NewNop(), fs)
	res, err := reg.Acquire(domain.LocalFile{Name: "Daft Punk - One More Time.mp3", MediaType: "audio/mpeg", Path: path})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ref := res.Ref()
	if !reg.Handles(ref) {
		t.Errorf("registry must handle its own ref %q", ref)
	}
	if !strings.HasSuffix(ref, ".mp3") {
		t.Errorf("ref must keep the extension, got %q", ref)
	}

	rc, err := reg.Open(ref)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "fake-mp3" {
		t.Errorf("unexpected content %q", data)
	}

	if err := res.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("expected no live refs, got %d", reg.Len())
	}

	if err := res.Release(); !errors.Is(err, domain.ErrReleased) {
		t.Errorf("second Release: expected ErrReleased, got %v", err)
	}
	if _, err := reg.Open(ref); !errors.Is(err, domain.ErrReleased) {
		t.Errorf("Open after release: expected ErrReleased, got %v", err)
	}
}

func TestRegistry_AcquireErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Dir(writeFile(t, fs, "sub/present.mp3", "x"))
	reg := NewRegistry(zap.NewNop(), fs)

	tests := []struct {
		name string
		file domain.LocalFile
	}{
		{name: "Missing File", file: domain.LocalFile{Name: "gone.mp3", Path: filepath.Join(dir, "gone.mp3")}},
		{name: "Directory", file: domain.LocalFile{Name: "dir", Path: dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reg.Acquire(tt.file); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
	if reg.Len() != 0 {
		t.Errorf("failed acquisitions must not register refs, got %d", reg.Len())
	}
}

func TestRegistry_RefsAreUnique(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeFile(t, fs, "same.wav", "x")
	reg := NewRegistry(zap.NewNop(), fs)

	a, _ := reg.Acquire(domain.LocalFile{Name: "same.wav", Path: path})
	b, _ := reg.Acquire(domain.LocalFile{Name: "same.wav", Path: path})
	if a.Ref() == b.Ref() {
		t.Error("two acquisitions of the same file must yield distinct refs")
	}
}

func TestDiscoverFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "album/01 - Intro.mp3", "a")
	writeFile(t, fs, "album/02 - Song.FLAC", "b")
	writeFile(t, fs, "album/cover.jpg", "c")
	single := writeFile(t, fs, "notes.txt", "d")

	files, err := DiscoverFiles(fs, []string{filepath.Join(musicDir, "album"), single})
	if err != nil {
		t.Fatalf("DiscoverFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}

	byName := make(map[string]domain.LocalFile)
	for _, f := range files {
		byName[f.Name] = f
	}
	if f := byName["01 - Intro.mp3"]; !strings.HasPrefix(f.MediaType, "audio/") {
		t.Errorf("mp3 must be audio-typed, got %q", f.MediaType)
	}
	if f := byName["02 - Song.FLAC"]; !strings.HasPrefix(f.MediaType, "audio/") {
		t.Errorf("flac must be audio-typed, got %q", f.MediaType)
	}
	if f := byName["notes.txt"]; strings.HasPrefix(f.MediaType, "audio/") {
		t.Errorf("explicit non-audio files are kept but not audio-typed, got %q", f.MediaType)
	}
	if _, ok := byName["cover.jpg"]; ok {
		t.Error("non-audio files inside directories must be skipped")
	}
}

func TestDiscoverFiles_MissingPath(t *testing.T) {
	if _, err := DiscoverFiles(afero.NewMemMapFs(), []string{"/nope"}); err == nil {
		t.Error("expected error for missing path")
	}
}
