package discover

import (
	"context"
	"os"
	"path/filepath"

	"github.com/DeusData/cstrmap/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".git": true, ".hg": true, ".idea": true,
	".svn": true, ".tmp": true, ".vs": true, ".vscode": true,
	"bin": true, "build": true, "cmake-build-debug": true,
	"cmake-build-release": true, "dist": true, "obj": true,
	"out": true, "target": true, "temp": true, "tmp": true,
	"vendor": true,
}

// FileInfo represents a discovered C source file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to the scan root
}

// Options configures file discovery.
type Options struct {
	// ExtraIgnore lists additional directory names or glob patterns
	// to skip, on top of IGNORE_PATTERNS.
	ExtraIgnore []string
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks a directory tree and returns all C source files under it,
// in lexical path order.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// Check cancellation before starting walk
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var extraIgnore []string
	if opts != nil {
		extraIgnore = opts.ExtraIgnore
	}

	var files []FileInfo

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		// Check context cancellation periodically during walk
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)

		if info.IsDir() {
			if path != root && shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		if lang.ForExtension(filepath.Ext(path)) == nil {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
		})
		return nil
	})

	return files, err
}
