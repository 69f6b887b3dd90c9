package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

var localPattern = regexp.MustCompile(`^(?:file://)?(?P<path>(?:/|\./|\.\./).*)$`)

// LocalFetcher copies a directory from the local filesystem.
type LocalFetcher struct {
	Path string
	Log  *zap.Logger
}

var _ Fetcher = &LocalFetcher{}

func (l *LocalFetcher) Fetch(ctx context.Context, dir string) (string, error) {
	absPath, err := filepath.Abs(l.Path)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path for %q: %w", l.Path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("local source path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("checking local source path %s: %w", absPath, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("local source path is not a directory: %s", absPath)
	}

	dest := filepath.Join(dir, filepath.Base(absPath))
	l.Log.Debug("copying local source", zap.String("src", absPath), zap.String("dest", dest))
	if err := os.CopyFS(dest, os.DirFS(absPath)); err != nil {
		return "", fmt.Errorf("copying %s to %s: %w", absPath, dest, err)
	}

	return dest, nil
}

// LocalMatcher handles absolute and ./ or ../ relative paths, with or
// without a file:// scheme.
func LocalMatcher(log *zap.Logger) Matcher {
	log = log.Named("local")
	return Matcher{
		Name:    "local",
		Pattern: localPattern,
		New: func(_ *Registry, m Match) Fetcher {
			return &LocalFetcher{Path: m["path"], Log: log}
		},
	}
}
