package fetch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tvansteenburgh/charm-tools/pkg/storeapi"
)

// StoreFallbackFetcher wraps a charm store fetcher. Before downloading the
// store archive it asks the store for the entity's upstream repository
// (the bzr-url in meta/extra-info) and, when some registered fetcher can
// handle that URL, fetches from the repository instead so that history is
// preserved.
type StoreFallbackFetcher struct {
	Entity   string
	Store    *storeapi.Client
	Registry *Registry
	Default  Fetcher
	Log      *zap.Logger
}

var _ Fetcher = &StoreFallbackFetcher{}

func (f *StoreFallbackFetcher) Fetch(ctx context.Context, dir string) (string, error) {
	info, err := f.Store.ExtraInfo(ctx, f.Entity)
	if err != nil {
		if errors.Is(err, storeapi.ErrNotFound) {
			return f.Default.Fetch(ctx, dir)
		}
		return "", fmt.Errorf("reading extra-info for cs:%s: %w", f.Entity, err)
	}

	if info.BzrURL == "" {
		return f.Default.Fetch(ctx, dir)
	}

	repo, err := f.Registry.Get(info.BzrURL)
	if err != nil {
		f.Log.Debug("No fetcher for repository, downloading from charm store", zap.String("url", info.BzrURL))
		return f.Default.Fetch(ctx, dir)
	}
	// A store URL in extra-info would send us round in circles.
	if _, ok := repo.(*StoreFallbackFetcher); ok {
		return f.Default.Fetch(ctx, dir)
	}

	f.Log.Debug("fetching from upstream repository", zap.String("url", info.BzrURL))
	return repo.Fetch(ctx, dir)
}

// FallbackMatcher handles cs: identifiers with a StoreFallbackFetcher around
// a CharmstoreFetcher. Prepend it to a registry so that it takes precedence
// over CharmstoreMatcher.
func FallbackMatcher(store *storeapi.Client, log *zap.Logger) Matcher {
	storeLog := log.Named("charmstore")
	log = log.Named("fallback")
	return Matcher{
		Name:    "charmstore-repo",
		Pattern: charmstorePattern,
		New: func(r *Registry, m Match) Fetcher {
			return &StoreFallbackFetcher{
				Entity:   m["entity"],
				Store:    store,
				Registry: r,
				Default:  &CharmstoreFetcher{Entity: m["entity"], Store: store, Log: storeLog},
				Log:      log,
			}
		},
	}
}
