package providers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
)

const (
	fixtureScheme = "fixture"

	// WeatherFixture is the bundled current-weather document.
	WeatherFixture = "weather.json"
)

//go:embed fixtures/weather.json
var bundled embed.FS

// BundledFixtures returns the documents compiled into the binary.
func BundledFixtures() fs.FS {
	sub, err := fs.Sub(bundled, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

// FixturePerformer serves fixture:// URLs from a file system.
type FixturePerformer struct {
	FS fs.FS
}

func (p FixturePerformer) Perform(ctx context.Context, target *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}
	if target == nil || target.Scheme != fixtureScheme {
		return nil, &TransportError{Err: fmt.Errorf("not a fixture url: %v", target)}
	}

	fsys := p.FS
	if fsys == nil {
		fsys = BundledFixtures()
	}

	body, err := fs.ReadFile(fsys, strings.TrimPrefix(target.Path, "/"))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}
