package gallery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore serves the gallery straight from the poster output
// directory. Add is a no-op because saving the PNG is the record;
// anything dropped into the directory by hand shows up too.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the backing directory, for static file serving.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Add(ctx context.Context, p Poster) error { return nil }

// List scans for PNGs and sorts them newest first by mtime.
func (s *DirStore) List(ctx context.Context) ([]Poster, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	posters := make([]Poster, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		posters = append(posters, Poster{
			Filename: filepath.Base(e.Name()),
			Size:     info.Size(),
			Created:  info.ModTime(),
		})
	}
	sort.Slice(posters, func(i, j int) bool {
		return posters[i].Created.After(posters[j].Created)
	})
	return posters, nil
}

func (s *DirStore) Close(ctx context.Context) error { return nil }
