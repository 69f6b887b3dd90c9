// Package storeapi is a small client for the charm store HTTP API.
package storeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned when the store has no such entity.
var ErrNotFound = errors.New("entity not found in charm store")

// ExtraInfo is the part of an entity's meta/extra-info document used to
// locate its upstream repository.
type ExtraInfo struct {
	BzrURL string `json:"bzr-url,omitempty"`
}

type Client struct {
	baseURL string
	http    *resty.Client
}

// New returns a client rooted at baseURL, e.g.
// https://api.jujucharms.com/charmstore/v5. hc may be nil.
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

// EntityURL returns <base>/<entity>. entity is an identifier without the
// cs: prefix, such as ~bob/trusty/foo.
func (c *Client) EntityURL(entity string) string {
	return c.baseURL + "/" + strings.TrimPrefix(entity, "/")
}

// ArchiveURL returns the URL of the entity's zip archive.
func (c *Client) ArchiveURL(entity string) string {
	return c.EntityURL(entity) + "/archive"
}

// ExtraInfo fetches <entity>/meta/extra-info.
func (c *Client) ExtraInfo(ctx context.Context, entity string) (*ExtraInfo, error) {
	info := &ExtraInfo{}
	url := c.EntityURL(entity) + "/meta/extra-info"

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(info).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("querying %s: unexpected status %s", url, resp.Status())
	}

	return info, nil
}
