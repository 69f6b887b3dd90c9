// Package layerindex looks up layers and interfaces in the layer index, a
// static tree of JSON documents mapping a name to its source repository.
package layerindex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned when the index has no entry for a name.
var ErrNotFound = errors.New("not found in layer index")

// Namespace selects the layers or interfaces half of the index.
type Namespace string

const (
	Layers     Namespace = "layers"
	Interfaces Namespace = "interfaces"
)

// Entry is an index document.
type Entry struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Repo    string `json:"repo"`
	Summary string `json:"summary,omitempty"`
}

type Client struct {
	baseURL string
	http    *resty.Client
}

// New returns a client for the index rooted at baseURL. hc may be nil.
func New(baseURL string, hc *http.Client) *Client {
	var rc *resty.Client
	if hc != nil {
		rc = resty.NewWithClient(hc)
	} else {
		rc = resty.New()
	}
	rc.SetHeader("Accept", "application/json")

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    rc,
	}
}

// Lookup fetches <base>/<ns>/<name>.json.
func (c *Client) Lookup(ctx context.Context, ns Namespace, name string) (*Entry, error) {
	url := fmt.Sprintf("%s/%s/%s.json", c.baseURL, ns, name)

	entry := &Entry{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(entry).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%s %q: %w", ns, name, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("querying %s: unexpected status %s", url, resp.Status())
	}
	if entry.Repo == "" {
		return nil, fmt.Errorf("%s %q has no repo: %w", ns, name, ErrNotFound)
	}

	return entry, nil
}
