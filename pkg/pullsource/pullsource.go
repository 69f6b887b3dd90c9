// Package pullsource downloads the source of a charm, layer, or interface
// into a local directory without ever overwriting an existing one.
package pullsource

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tvansteenburgh/charm-tools/pkg/charm"
	"github.com/tvansteenburgh/charm-tools/pkg/destination"
	"github.com/tvansteenburgh/charm-tools/pkg/fetch"
)

// MsgDirExists prefixes the message reported when the download target is
// already present.
const MsgDirExists = "Aborting, destination directory exists"

var (
	ErrDestinationExists = errors.New("destination exists")
	ErrSourceNotFound    = errors.New("source not found")
)

// Error is a handled download failure. Its message is meant to be shown to
// the user as is.
type Error struct {
	Kind error
	// Item is the identifier as given by the user.
	Item string
	// Path is set for ErrDestinationExists.
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == ErrDestinationExists {
		return fmt.Sprintf("%s: %s", MsgDirExists, e.Path)
	}
	return fmt.Sprintf("Can't find source for %s", e.Item)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result describes a completed download.
type Result struct {
	// Item is the normalised identifier, e.g. cs:foo for foo.
	Item string
	Path string
}

func (r *Result) String() string {
	return fmt.Sprintf("Downloaded %s to %s", r.Item, r.Path)
}

type Puller struct {
	Registry *fetch.Registry
	Env      destination.Env
	Log      *zap.Logger
}

// Pull downloads item into dir (or the directory derived from the
// environment when dir is empty).
//
// Handled failures (no fetcher, destination exists, fetch failed) are
// returned as *Error. Any other error, such as failing to create the series
// directory, comes from resolving the destination and is returned as is.
func (p *Puller) Pull(ctx context.Context, item, dir string) (*Result, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	dest, err := destination.Resolve(item, dir, p.Env)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved destination",
		zap.String("item", dest.Item),
		zap.String("dir", dest.Dir),
		zap.String("series", dest.Series))

	fetcher, err := p.Registry.Get(dest.Item)
	if err != nil {
		log.Debug("no fetcher", zap.String("item", dest.Item), zap.Error(err))
		return nil, &Error{Kind: ErrSourceNotFound, Item: item, Err: err}
	}

	target := dest.Path()
	if t, ok := fetcher.(fetch.Targeter); ok {
		target = t.Target(dest.Dir)
	}
	if _, err := os.Stat(target); err == nil {
		return nil, &Error{Kind: ErrDestinationExists, Item: item, Path: target}
	}

	path, err := fetcher.Fetch(ctx, dest.Dir)
	if err != nil {
		// The fetched charm may name a directory that only shows up once
		// its metadata has been read.
		var exists *charm.ExistsError
		if errors.As(err, &exists) {
			return nil, &Error{Kind: ErrDestinationExists, Item: item, Path: exists.Path, Err: err}
		}
		log.Debug("fetch failed", zap.String("item", dest.Item), zap.Error(err))
		return nil, &Error{Kind: ErrSourceNotFound, Item: item, Err: err}
	}

	return &Result{Item: dest.Item, Path: path}, nil
}
