package playlist

import "github.com/genricoloni/tunedeck/internal/domain"

const (
	// LocalAlbum is the album name given to tracks added from local files
	LocalAlbum = "Local Files"
	// LocalCover is the artwork shown for tracks added from local files
	LocalCover = "https://images.unsplash.com/photo-1618609378039-b572f64c5b42?w=400&h=400&fit=crop"
	// UnknownArtist is used when a file name carries no artist
	UnknownArtist = "Unknown Artist"
)

// Default returns the library tracks every session starts with
func Default() []domain.Track {
	return []domain.Track{
		{
			ID:              "1",
			Title:           "Midnight Dreams",
			Artist:          "Lunar Echo",
			Album:           "Neon Horizons",
			DurationSeconds: 234,
			CoverRef:        "https://images.unsplash.com/photo-1614149162883-504ce4d13909?w=400&h=400&fit=crop",
			AudioRef:        "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3",
		},
		{
			ID:              "2",
			Title:           "Electric Pulse",
			Artist:          "Synthwave Collective",
			Album:           "Digital Sunset",
			DurationSeconds: 198,
			CoverRef:        "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=400&h=400&fit=crop",
			AudioRef:        "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-2.mp3",
		},
		{
			ID:              "3",
			Title:           "Ocean Waves",
			Artist:          "Ambient Flow",
			Album:           "Serenity",
			DurationSeconds: 312,
			CoverRef:        "https://images.unsplash.com/photo-1459749411175-04bf5292ceea?w=400&h=400&fit=crop",
			AudioRef:        "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-3.mp3",
		},
		{
			ID:              "4",
			Title:           "City Lights",
			Artist:          "Urban Beats",
			Album:           "Metro Nights",
			DurationSeconds: 267,
			CoverRef:        "https://images.unsplash.com/photo-1470225620780-dba8ba36b745?w=400&h=400&fit=crop",
			AudioRef:        "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-4.mp3",
		},
		{
			ID:              "5",
			Title:           "Starlight Serenade",
			Artist:          "Cosmic Journey",
			Album:           "Galaxies",
			DurationSeconds: 289,
			CoverRef:        "https://images.unsplash.com/photo-1511379938547-c1f69419868d?w=400&h=400&fit=crop",
			AudioRef:        "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-5.mp3",
		},
	}
}
