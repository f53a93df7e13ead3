package playlist

import (
	"testing"

	"github.com/genricoloni/tunedeck/internal/domain"
)

func TestPlaylist_AppendSkipsDuplicateIDs(t *testing.T) {
	p := New(Default()...)
	if p.Len() != 5 {
		t.Fatalf("expected 5 default tracks, got %d", p.Len())
	}

	added := p.Append(domain.Track{ID: "1", Title: "Duplicate"}, domain.Track{ID: "x", Title: "New"})
	if added != 1 {
		t.Errorf("expected 1 track added, got %d", added)
	}
	if p.Len() != 6 {
		t.Errorf("expected 6 tracks, got %d", p.Len())
	}
	if first, _ := p.At(0); first.Title != "Midnight Dreams" {
		t.Errorf("duplicate must not replace the original, got %q", first.Title)
	}
}

func TestPlaylist_Remove(t *testing.T) {
	tests := []struct {
		name          string
		id            domain.TrackID
		expectedIndex int
		expectedLen   int
	}{
		{name: "First", id: "1", expectedIndex: 0, expectedLen: 4},
		{name: "Middle", id: "3", expectedIndex: 2, expectedLen: 4},
		{name: "Last", id: "5", expectedIndex: 4, expectedLen: 4},
		{name: "Unknown", id: "nope", expectedIndex: -1, expectedLen: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Default()...)
			removed, index := p.Remove(tt.id)

			if index != tt.expectedIndex {
				t.Errorf("index: want %d, got %d", tt.expectedIndex, index)
			}
			if p.Len() != tt.expectedLen {
				t.Errorf("len: want %d, got %d", tt.expectedLen, p.Len())
			}
			if index >= 0 && removed.ID != tt.id {
				t.Errorf("removed id: want %s, got %s", tt.id, removed.ID)
			}
			if p.IndexOf(tt.id) != -1 {
				t.Error("removed track is still present")
			}
		})
	}
}

func TestPlaylist_SetDuration(t *testing.T) {
	p := New(domain.Track{ID: "a"}, domain.Track{ID: "b"})

	if !p.SetDuration("b", 181) {
		t.Fatal("expected patch to succeed")
	}
	if b, _ := p.At(1); b.DurationSeconds != 181 {
		t.Errorf("expected 181, got %d", b.DurationSeconds)
	}
	if p.SetDuration("gone", 10) {
		t.Error("patching an unknown id must report false")
	}
}

func TestPlaylist_TracksReturnsCopy(t *testing.T) {
	p := New(Default()...)
	tracks := p.Tracks()
	tracks[0].Title = "Mutated"

	if first, _ := p.At(0); first.Title == "Mutated" {
		t.Error("Tracks must not expose internal storage")
	}
}

func TestPlaylist_Removable(t *testing.T) {
	p := New(Default()...)
	p.Append(domain.Track{ID: "local", Removable: true})

	removable := p.Removable()
	if len(removable) != 1 || removable[0].ID != "local" {
		t.Errorf("expected only the local track, got %+v", removable)
	}
}

func TestPlaylist_AtOutOfBounds(t *testing.T) {
	p := New()
	if _, ok := p.At(0); ok {
		t.Error("empty playlist must not return a track")
	}
	if _, ok := p.At(-1); ok {
		t.Error("negative index must not return a track")
	}
}
