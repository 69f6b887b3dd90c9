package fetch

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var bzrPattern = regexp.MustCompile(`^(?:lp:|launchpad:|https?://(?:(?:code|www)\.)?launchpad\.net/|bzr\+ssh://bazaar\.launchpad\.net/)(?P<repo>[^@]+)(?:@(?P<revision>[^@]+))?$`)

// BzrFetcher branches a Launchpad bzr repository.
type BzrFetcher struct {
	// Repo is the Launchpad path, e.g. ~bob/charms/trusty/foo/trunk.
	Repo     string
	Revision string
	Log      *zap.Logger
}

var _ Fetcher = &BzrFetcher{}

func (b *BzrFetcher) Fetch(ctx context.Context, dir string) (string, error) {
	tmp, err := os.MkdirTemp(dir, ".bzr-fetch-")
	if err != nil {
		return "", fmt.Errorf("creating branch directory: %w", err)
	}

	args := []string{"branch", "--use-existing-dir", b.URL(), tmp}
	if b.Revision != "" {
		args = append(args, "-r", b.Revision)
	}
	if err := run(ctx, b.Log, "bzr", args...); err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("branching %s: %w", b.URL(), err)
	}

	return settle(tmp, b.name())
}

// URL is the lp: URL handed to bzr.
func (b *BzrFetcher) URL() string {
	return "lp:" + b.Repo
}

// name picks a directory name when the branch has no metadata.yaml:
// the last path element, skipping a trailing "trunk".
func (b *BzrFetcher) name() string {
	p := strings.TrimSuffix(b.Repo, "/")
	if path.Base(p) == "trunk" {
		p = path.Dir(p)
	}
	return path.Base(p)
}

// BzrMatcher handles lp:, launchpad: and Launchpad bzr URLs.
func BzrMatcher(log *zap.Logger) Matcher {
	log = log.Named("bzr")
	return Matcher{
		Name:    "bzr",
		Pattern: bzrPattern,
		New: func(_ *Registry, m Match) Fetcher {
			return &BzrFetcher{Repo: m["repo"], Revision: m["revision"], Log: log}
		},
	}
}
