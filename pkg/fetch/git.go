package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	githubPattern       = regexp.MustCompile(`^(?:gh:|github:|https?://(?:www\.)?github\.com/|git@github\.com:)(?P<repo>[^@]+?)(?:\.git)?(?:@(?P<revision>[^@]+))?$`)
	launchpadGitPattern = regexp.MustCompile(`^(?P<repo>https://git\.launchpad\.net/[^@]+)(?:@(?P<revision>[^@]+))?$`)
	gitPattern          = regexp.MustCompile(`^(?P<repo>(?:git@[^:/]+:|git://|git\+ssh://)[^@]+|https?://[^@]+\.git)(?:@(?P<revision>[^@]+))?$`)
)

// GitFetcher clones a repository with its full history and optionally
// checks out a revision (branch, tag, or commit).
type GitFetcher struct {
	URL      string
	Revision string
	Log      *zap.Logger
}

var _ Fetcher = &GitFetcher{}

func (g *GitFetcher) Fetch(ctx context.Context, dir string) (string, error) {
	tmp, err := os.MkdirTemp(dir, ".git-fetch-")
	if err != nil {
		return "", fmt.Errorf("creating clone directory: %w", err)
	}

	if err := g.clone(ctx, tmp); err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("cloning %s: %w", g.URL, err)
	}

	name, err := repoName(g.URL)
	if err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	return settle(tmp, name)
}

func (g *GitFetcher) clone(ctx context.Context, dest string) error {
	if err := run(ctx, g.Log, "git", "clone", g.URL, dest); err != nil {
		return err
	}
	if g.Revision == "" {
		return nil
	}
	return run(ctx, g.Log, "git", "-C", dest, "checkout", g.Revision)
}

// GithubMatcher handles gh:owner/repo, github:owner/repo and GitHub URLs.
func GithubMatcher(log *zap.Logger) Matcher {
	log = log.Named("git")
	return Matcher{
		Name:    "github",
		Pattern: githubPattern,
		New: func(_ *Registry, m Match) Fetcher {
			return &GitFetcher{
				URL:      fmt.Sprintf("https://github.com/%s.git", m["repo"]),
				Revision: m["revision"],
				Log:      log,
			}
		},
	}
}

// LaunchpadGitMatcher handles https://git.launchpad.net/ repositories.
func LaunchpadGitMatcher(log *zap.Logger) Matcher {
	log = log.Named("git")
	return Matcher{
		Name:    "launchpad-git",
		Pattern: launchpadGitPattern,
		New: func(_ *Registry, m Match) Fetcher {
			return &GitFetcher{URL: m["repo"], Revision: m["revision"], Log: log}
		},
	}
}

// GitMatcher handles any other git URL: git@host:path, git://, git+ssh://
// and http(s) URLs ending in .git.
func GitMatcher(log *zap.Logger) Matcher {
	log = log.Named("git")
	return Matcher{
		Name:    "git",
		Pattern: gitPattern,
		New: func(_ *Registry, m Match) Fetcher {
			return &GitFetcher{URL: m["repo"], Revision: m["revision"], Log: log}
		},
	}
}

// repoName extracts the last path element of a git URL, without .git.
// e.g. "https://github.com/juju-solutions/layer-basic.git" → "layer-basic"
func repoName(rawURL string) (string, error) {
	_, repoPath, err := parseGitURL(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing git URL: %w", err)
	}
	name := path.Base(strings.TrimSuffix(repoPath, "/"))
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("parsing git URL: no repository name in %q", rawURL)
	}
	return name, nil
}

// parseGitURL extracts the host and repository path from a git URL.
// Supports HTTPS URLs, SSH shorthand (git@host:owner/repo.git) and plain
// filesystem paths.
func parseGitURL(rawURL string) (host, repoPath string, err error) {
	// SSH shorthand: git@github.com:owner/repo.git
	if idx := strings.Index(rawURL, ":"); idx > 0 && !strings.Contains(rawURL[:idx], "/") && !strings.Contains(rawURL, "://") {
		host = rawURL[:idx]
		if at := strings.Index(host, "@"); at >= 0 {
			host = host[at+1:]
		}
		repoPath = strings.TrimSuffix(rawURL[idx+1:], ".git")
		return host, repoPath, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	repoPath = strings.TrimPrefix(u.Path, "/")
	repoPath = strings.TrimSuffix(repoPath, ".git")
	return u.Host, repoPath, nil
}
