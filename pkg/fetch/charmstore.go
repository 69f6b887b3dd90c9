package fetch

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"

	getter "github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/tvansteenburgh/charm-tools/pkg/storeapi"
)

var charmstorePattern = regexp.MustCompile(`^cs:(?P<entity>.+)$`)

// CharmstoreFetcher downloads an entity's zip archive from the charm store
// and unpacks it into <dir>/<name>.
type CharmstoreFetcher struct {
	// Entity is the store identifier without the cs: prefix.
	Entity string
	Store  *storeapi.Client
	Log    *zap.Logger
}

var _ Fetcher = &CharmstoreFetcher{}

func (c *CharmstoreFetcher) Fetch(ctx context.Context, dir string) (string, error) {
	dest := filepath.Join(dir, c.Name())
	src := c.Store.ArchiveURL(c.Entity) + "?archive=zip"

	c.Log.Debug("downloading archive", zap.String("src", src), zap.String("dest", dest))
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dest,
		Pwd:  dir,
		Mode: getter.ClientModeDir,
	}
	if err := client.Get(); err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("downloading cs:%s: %w", c.Entity, err)
	}

	return dest, nil
}

// Name is the last path element of the entity.
func (c *CharmstoreFetcher) Name() string {
	return path.Base(c.Entity)
}

// CharmstoreMatcher handles cs: identifiers with a plain archive download.
func CharmstoreMatcher(store *storeapi.Client, log *zap.Logger) Matcher {
	log = log.Named("charmstore")
	return Matcher{
		Name:    "charmstore",
		Pattern: charmstorePattern,
		New: func(_ *Registry, m Match) Fetcher {
			return &CharmstoreFetcher{Entity: m["entity"], Store: store, Log: log}
		},
	}
}
