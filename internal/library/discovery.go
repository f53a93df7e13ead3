package library

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/spf13/afero"
)

// audioTypes maps the extensions the audio engine decodes to their media type.
// mime.TypeByExtension is consulted first; this table covers systems whose
// mime database lacks audio entries.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
}

// MediaType returns the declared media type for a file name
func MediaType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	return "application/octet-stream"
}

// DiscoverFiles expands the given paths into LocalFile values.
// Directories are walked recursively and only files with a known audio
// extension are kept from them; plain file arguments are always returned so
// the session can decide based on their media type.
func DiscoverFiles(fs afero.Fs, paths []string) ([]domain.LocalFile, error) {
	var files []domain.LocalFile

	for _, root := range paths {
		info, err := fs.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, newLocalFile(root))
			continue
		}

		err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if _, ok := audioTypes[strings.ToLower(filepath.Ext(path))]; ok {
				files = append(files, newLocalFile(path))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func newLocalFile(path string) domain.LocalFile {
	name := filepath.Base(path)
	return domain.LocalFile{
		Name:      name,
		MediaType: MediaType(name),
		Path:      path,
	}
}
