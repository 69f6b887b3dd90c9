package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/tvansteenburgh/charm-tools/pkg/charm"
	"github.com/tvansteenburgh/charm-tools/pkg/layerindex"
)

var (
	interfacePattern = regexp.MustCompile(`^interface:(?P<name>.+)$`)
	layerPattern     = regexp.MustCompile(`^layer:(?P<name>.+)$`)
)

// IndexFetcher resolves a layer or interface name through the layer index
// and fetches the repository it points at into <dir>/<name>.
type IndexFetcher struct {
	Namespace layerindex.Namespace
	Name      string
	Index     *layerindex.Client
	Registry  *Registry
	Log       *zap.Logger
}

var (
	_ Fetcher  = &IndexFetcher{}
	_ Targeter = &IndexFetcher{}
)

// Target is the directory the fetched source ends up in.
func (f *IndexFetcher) Target(dir string) string {
	return filepath.Join(dir, f.Name)
}

func (f *IndexFetcher) Fetch(ctx context.Context, dir string) (string, error) {
	entry, err := f.Index.Lookup(ctx, f.Namespace, f.Name)
	if err != nil {
		if errors.Is(err, layerindex.ErrNotFound) {
			return "", fmt.Errorf("%w for %s %q: %w", ErrNoFetcher, f.Namespace, f.Name, err)
		}
		return "", err
	}

	repo, err := f.Registry.Get(entry.Repo)
	if err != nil {
		return "", err
	}

	f.Log.Debug("fetching from index repository", zap.String("name", f.Name), zap.String("repo", entry.Repo))

	// The delegate works in its own scratch directory so that only a path
	// it created is ever moved to the target.
	tmp, err := os.MkdirTemp(dir, ".index-fetch-")
	if err != nil {
		return "", fmt.Errorf("creating temporary directory in %s: %w", dir, err)
	}
	defer os.RemoveAll(tmp)

	res, err := repo.Fetch(ctx, tmp)
	if err != nil {
		return "", err
	}
	if rel, err := filepath.Rel(tmp, res); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("fetcher for %s returned %s outside its working directory", entry.Repo, res)
	}

	return charm.MoveDir(res, f.Target(dir))
}

// InterfaceMatcher handles interface:<name>.
func InterfaceMatcher(index *layerindex.Client, log *zap.Logger) Matcher {
	return indexMatcher("interface", layerindex.Interfaces, interfacePattern, index, log)
}

// LayerMatcher handles layer:<name>.
func LayerMatcher(index *layerindex.Client, log *zap.Logger) Matcher {
	return indexMatcher("layer", layerindex.Layers, layerPattern, index, log)
}

func indexMatcher(name string, ns layerindex.Namespace, pattern *regexp.Regexp, index *layerindex.Client, log *zap.Logger) Matcher {
	log = log.Named(name)
	return Matcher{
		Name:    name,
		Pattern: pattern,
		New: func(r *Registry, m Match) Fetcher {
			return &IndexFetcher{
				Namespace: ns,
				Name:      m["name"],
				Index:     index,
				Registry:  r,
				Log:       log,
			}
		},
	}
}
