package providers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidResource is returned when a resolver cannot build a usable URL.
var ErrInvalidResource = errors.New("invalid resource")

// QueryParam is one query parameter. Parameters keep the order they are given in.
type QueryParam struct {
	Name  string
	Value string
}

// Resolver turns an API path and query into the URL a Performer will load.
type Resolver interface {
	Resolve(path string, query []QueryParam) (*url.URL, error)
}

// NetworkResolver resolves against an absolute http(s) base URL.
type NetworkResolver struct {
	BaseURL string
}

func (r NetworkResolver) Resolve(path string, query []QueryParam) (*url.URL, error) {
	base, err := url.Parse(r.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url %q: %v", ErrInvalidResource, r.BaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be an absolute http(s) url", ErrInvalidResource, r.BaseURL)
	}

	u := base.JoinPath(path)

	// url.Values.Encode sorts by key, so the query is assembled by hand.
	parts := make([]string, 0, len(query))
	for _, q := range query {
		parts = append(parts, url.QueryEscape(q.Name)+"="+url.QueryEscape(q.Value))
	}
	u.RawQuery = strings.Join(parts, "&")
	return u, nil
}

// FixtureResolver always resolves to a named bundled document.
type FixtureResolver struct {
	Name string
}

func (r FixtureResolver) Resolve(string, []QueryParam) (*url.URL, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: fixture name is empty", ErrInvalidResource)
	}
	return &url.URL{Scheme: fixtureScheme, Path: "/" + r.Name}, nil
}
