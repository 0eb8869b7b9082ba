// Package discover lists the source files that live under the configured
// class roots, either on the local filesystem or in an S3 bucket, and
// classifies each one by its file name marker.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/13rac1/nsload/internal/types"
)

// markerPrefixes are checked in order against the lowercased file name.
var markerPrefixes = []types.Marker{
	types.MarkerClass,
	types.MarkerInterface,
	types.MarkerTrait,
	types.MarkerAbstract,
}

// DiscoverLocal walks every class root under base and returns the files
// whose extension matches ext (case-insensitive).
//
// A root that does not exist is reported on stderr and skipped. A root nested
// inside another (for example "vendor" inside ".") owns its own files, and
// any file still reachable twice is listed once. Hidden directories are not
// entered.
func DiscoverLocal(base string, roots []string, ext string) ([]types.SourceFile, error) {
	info, err := os.Stat(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", base)
		}
		return nil, fmt.Errorf("accessing directory %s: %w", base, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", base)
	}

	ext = strings.ToLower(ext)
	seen := make(map[string]bool)
	rootPaths := make(map[string]bool, len(roots))
	for _, root := range roots {
		rootPaths[filepath.Join(base, root)] = true
	}

	var files []types.SourceFile

	for _, root := range roots {
		rootPath := filepath.Join(base, root)

		if _, err := os.Stat(rootPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping class root %s: %v\n", root, err)
			continue
		}

		found, err := walkRoot(rootPath, root, ext, rootPaths, seen)
		if err != nil {
			return nil, fmt.Errorf("scanning class root %s: %w", root, err)
		}
		files = append(files, found...)
	}

	sortFiles(files)
	return files, nil
}

func walkRoot(rootPath, root, ext string, rootPaths, seen map[string]bool) ([]types.SourceFile, error) {
	var files []types.SourceFile

	err := filepath.WalkDir(rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p == rootPath {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || rootPaths[p] {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(strings.ToLower(d.Name()), ext) {
			return nil
		}

		if seen[p] {
			return nil
		}
		seen[p] = true

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		rel, err := filepath.Rel(rootPath, p)
		if err != nil {
			return err
		}

		files = append(files, types.SourceFile{
			Root:    root,
			RelPath: rel,
			Path:    p,
			Marker:  Classify(d.Name()),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", rootPath, err)
	}

	return files, nil
}

// Classify returns the marker encoded in a file name such as
// "class-cache.php" or "interface-store.php". Names without a known
// marker prefix return MarkerNone.
func Classify(name string) types.Marker {
	lower := strings.ToLower(filepath.Base(name))
	for _, m := range markerPrefixes {
		if strings.HasPrefix(lower, string(m)+"-") {
			return m
		}
	}
	return types.MarkerNone
}

// Sort by root then relative path for deterministic output.
func sortFiles(files []types.SourceFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Root != files[j].Root {
			return files[i].Root < files[j].Root
		}
		return files[i].RelPath < files[j].RelPath
	})
}
