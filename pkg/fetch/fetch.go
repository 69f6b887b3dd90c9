// Package fetch maps source identifiers (cs:foo, layer:basic, lp:~bob/foo,
// https://github.com/...) to fetchers that download them into a directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// ErrNoFetcher is returned when no registered fetcher recognises a URL.
var ErrNoFetcher = errors.New("no fetcher")

type Fetcher interface {
	// Fetch downloads the source into dir and returns the path of the
	// directory it created there.
	Fetch(ctx context.Context, dir string) (string, error)
}

// Targeter is implemented by fetchers that know, before fetching, the exact
// path they will create under dir.
type Targeter interface {
	Target(dir string) string
}

// Match holds the named groups captured by a Matcher's pattern. The whole
// input is stored under "url".
type Match map[string]string

// Matcher recognises one kind of source URL and builds its fetcher. New
// receives the registry so that fetchers can delegate to other fetchers.
type Matcher struct {
	Name    string
	Pattern *regexp.Regexp
	New     func(r *Registry, m Match) Fetcher
}

func (m Matcher) match(url string) (Match, bool) {
	sub := m.Pattern.FindStringSubmatch(url)
	if sub == nil {
		return nil, false
	}
	match := Match{"url": url}
	for i, name := range m.Pattern.SubexpNames() {
		if name != "" {
			match[name] = sub[i]
		}
	}
	return match, true
}

// Registry is an ordered list of matchers; the first one to match wins.
// Note: this is NOT thread safe, register everything before calling Get.
type Registry struct {
	matchers []Matcher
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger, matchers ...Matcher) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		matchers: append([]Matcher(nil), matchers...),
		log:      log,
	}
}

// Register adds m at the lowest priority.
func (r *Registry) Register(m Matcher) {
	r.matchers = append(r.matchers, m)
}

// Prepend adds m ahead of every registered matcher.
func (r *Registry) Prepend(m Matcher) {
	r.matchers = append([]Matcher{m}, r.matchers...)
}

// Names returns matcher names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.matchers))
	for i, m := range r.matchers {
		names[i] = m.Name
	}
	return names
}

// Get returns a fetcher for url from the highest-priority matcher that
// recognises it.
func (r *Registry) Get(url string) (Fetcher, error) {
	for _, m := range r.matchers {
		if match, ok := m.match(url); ok {
			r.log.Debug("matched fetcher", zap.String("url", url), zap.String("fetcher", m.Name))
			return m.New(r, match), nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrNoFetcher, url)
}
