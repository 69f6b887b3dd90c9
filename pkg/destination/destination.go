package destination

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/tvansteenburgh/charm-tools/pkg/config"
)

const (
	LayerPrefix     = "layer:"
	InterfacePrefix = "interface:"
	CharmPrefix     = "cs:"

	seriesDirPerm = 0o755
)

// Kind classifies an item identifier by its prefix.
type Kind string

const (
	KindCharm     Kind = "charm"
	KindLayer     Kind = "layer"
	KindInterface Kind = "interface"
)

// Env supplies the directory fallbacks keyed by environment variable name.
// config.Settings satisfies it.
type Env interface {
	Lookup(key string) string
}

// Destination is where a single item will be downloaded.
type Destination struct {
	// Item is the identifier with the cs: prefix added for bare charm names.
	Item string
	Kind Kind
	// Dir is the absolute base directory the fetcher writes into. For charms
	// with a series it already includes the series subdirectory.
	Dir string
	// Series is empty when the identifier names none.
	Series string
	// Name is the last path segment of the identifier.
	Name string
}

// Path is <Dir>/<Name>, the directory a charm is expected to land in.
func (d *Destination) Path() string {
	return filepath.Join(d.Dir, d.Name)
}

// Classify returns the kind of item and the environment variable that
// supplies its default download directory.
func Classify(item string) (Kind, string) {
	switch {
	case strings.HasPrefix(item, LayerPrefix):
		return KindLayer, config.EnvLayerPath
	case strings.HasPrefix(item, InterfacePrefix):
		return KindInterface, config.EnvInterfacePath
	default:
		return KindCharm, config.EnvJujuRepository
	}
}

// Resolve works out the download directory for item. dir is the directory
// given on the command line and may be empty, in which case the
// kind-specific environment variable is used, then the working directory.
//
// For charm identifiers naming a series (series/charm or
// ~user/series/charm) the series subdirectory is created if needed and
// becomes the returned Dir.
func Resolve(item, dir string, env Env) (*Destination, error) {
	kind, envKey := Classify(item)
	if dir == "" && env != nil {
		dir = env.Lookup(envKey)
	}

	d := &Destination{Item: item, Kind: kind}

	switch kind {
	case KindCharm:
		if !strings.HasPrefix(item, CharmPrefix) {
			d.Item = CharmPrefix + item
		}
		parts := strings.Split(strings.TrimPrefix(d.Item, CharmPrefix), "/")
		d.Name = parts[len(parts)-1]
		d.Series = seriesOf(parts)
	case KindLayer:
		d.Name = lastSegment(strings.TrimPrefix(item, LayerPrefix))
	case KindInterface:
		d.Name = lastSegment(strings.TrimPrefix(item, InterfacePrefix))
	}

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}

	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", dir, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path for %q: %w", dir, err)
	}
	d.Dir = abs

	if d.Series != "" {
		seriesDir := filepath.Join(d.Dir, d.Series)
		if err := ensureDir(seriesDir); err != nil {
			return nil, err
		}
		d.Dir = seriesDir
	}

	return d, nil
}

// seriesOf picks the series out of a split charm identifier:
// series/charm and ~user/series/charm carry one, charm and ~user/charm
// do not.
func seriesOf(parts []string) string {
	switch {
	case len(parts) == 2 && !strings.HasPrefix(parts[0], "~"):
		return parts[0]
	case len(parts) == 3:
		return parts[1]
	default:
		return ""
	}
}

func lastSegment(s string) string {
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// ensureDir creates a single directory level. A directory created
// concurrently by someone else is fine.
func ensureDir(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.Mkdir(path, seriesDirPerm); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("creating series directory %s: %w", path, err)
	}
	return nil
}
