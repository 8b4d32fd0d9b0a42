package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Suffix identifies string table files.
const Suffix = ".string_table.xml"

// FileEntry represents a discovered string table.
type FileEntry struct {
	// Path is the absolute file path.
	Path string
	// Rel is the path relative to the walked root, or the base name when a
	// single file was given.
	Rel string
}

// Walk discovers string tables under root. If root is a file it is returned
// as the only entry regardless of its name.
func Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return []FileEntry{{Path: root, Rel: filepath.Base(root)}}, nil
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() || !IsStringTable(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		entries = append(entries, FileEntry{Path: path, Rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered string tables")
	return entries, nil
}

// IsStringTable reports whether path names a string table file.
func IsStringTable(path string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(path)), Suffix)
}
