package fetch

import (
	"go.uber.org/zap"

	"github.com/tvansteenburgh/charm-tools/pkg/layerindex"
	"github.com/tvansteenburgh/charm-tools/pkg/storeapi"
)

// Options are the collaborators shared by the default fetchers.
type Options struct {
	Store *storeapi.Client
	Index *layerindex.Client
	Log   *zap.Logger
}

// NewDefaultRegistry returns a registry with every built-in fetcher in
// priority order: index lookups first, then VCS, local paths, and finally
// plain charm store downloads.
func NewDefaultRegistry(opts Options) *Registry {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("fetch")

	return NewRegistry(log,
		InterfaceMatcher(opts.Index, log),
		LayerMatcher(opts.Index, log),
		LaunchpadGitMatcher(log),
		GithubMatcher(log),
		GitMatcher(log),
		BzrMatcher(log),
		LocalMatcher(log),
		CharmstoreMatcher(opts.Store, log),
	)
}
