package providers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-now/internal/location"
	"github.com/i474232898/weather-now/internal/weather"
)

var santaMonica = location.Coordinate{Latitude: 34.0194704, Longitude: -118.4912273}

func TestNetworkResolver(t *testing.T) {
	r := NetworkResolver{BaseURL: "https://api.openweathermap.org"}

	u, err := r.Resolve("/data/2.5/weather", []QueryParam{
		{Name: "lat", Value: "34.0194704"},
		{Name: "lon", Value: "-118.4912273"},
		{Name: "appid", Value: "a b&c"},
		{Name: "lat", Value: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "api.openweathermap.org", u.Host)
	assert.Equal(t, "/data/2.5/weather", u.Path)
	assert.Equal(t, "lat=34.0194704&lon=-118.4912273&appid=a+b%26c&lat=1", u.RawQuery)
}

func TestNetworkResolverKeepsBasePath(t *testing.T) {
	r := NetworkResolver{BaseURL: "http://localhost:8081/proxy/"}

	u, err := r.Resolve("/data/2.5/weather", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/proxy/data/2.5/weather", u.String())
}

func TestNetworkResolverInvalidBase(t *testing.T) {
	for _, base := range []string{"", "api.openweathermap.org", "ftp://example.com", "https://", "http://[::1"} {
		t.Run(base, func(t *testing.T) {
			_, err := NetworkResolver{BaseURL: base}.Resolve("/data/2.5/weather", nil)
			assert.ErrorIs(t, err, ErrInvalidResource)
		})
	}
}

func TestFixtureResolver(t *testing.T) {
	u, err := FixtureResolver{Name: WeatherFixture}.Resolve("/ignored", []QueryParam{{Name: "lat", Value: "1"}})
	require.NoError(t, err)
	assert.Equal(t, "fixture:///weather.json", u.String())

	_, err = FixtureResolver{}.Resolve("/data/2.5/weather", nil)
	assert.ErrorIs(t, err, ErrInvalidResource)
}

func TestHTTPPerformer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/error-page":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	p := NewHTTPPerformer("test", srv.Client())

	body, err := p.Perform(context.Background(), mustParse(t, srv.URL+"/ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	// Status codes are not inspected.
	body, err = p.Perform(context.Background(), mustParse(t, srv.URL+"/error-page"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Invalid API key")

	_, err = p.Perform(context.Background(), mustParse(t, srv.URL+"/empty"))
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestHTTPPerformerTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := mustParse(t, srv.URL+"/data/2.5/weather")
	srv.Close()

	_, err := NewHTTPPerformer("test", http.DefaultClient).Perform(context.Background(), target)
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr), "expected *TransportError, got %v", err)

	_, err = NewHTTPPerformer("test", nil).Perform(context.Background(), target)
	assert.True(t, errors.As(err, &transportErr))
}

func TestDoWrapsDecodeFailures(t *testing.T) {
	p := FixturePerformer{FS: fstest.MapFS{"doc.json": {Data: []byte(`{}`)}}}
	target := &url.URL{Scheme: fixtureScheme, Path: "/doc.json"}

	_, err := Do(context.Background(), p, target, func([]byte) (int, error) {
		return 0, errors.New("bad shape")
	})
	var decodeErr *weather.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Empty(t, decodeErr.Field)

	_, err = Do(context.Background(), p, target, weather.DecodeReport)
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "id", decodeErr.Field)
}

func TestFixturePerformer(t *testing.T) {
	fsys := fstest.MapFS{
		"weather.json": {Data: []byte(`{"id":1}`)},
		"blank.json":   {Data: []byte("  \n")},
	}
	p := FixturePerformer{FS: fsys}

	body, err := p.Perform(context.Background(), &url.URL{Scheme: fixtureScheme, Path: "/weather.json"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(body))

	_, err = p.Perform(context.Background(), &url.URL{Scheme: fixtureScheme, Path: "/blank.json"})
	assert.ErrorIs(t, err, ErrEmptyBody)

	var transportErr *TransportError
	_, err = p.Perform(context.Background(), &url.URL{Scheme: fixtureScheme, Path: "/missing.json"})
	assert.True(t, errors.As(err, &transportErr))

	_, err = p.Perform(context.Background(), &url.URL{Scheme: "https", Host: "example.com", Path: "/weather.json"})
	assert.True(t, errors.As(err, &transportErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Perform(ctx, &url.URL{Scheme: fixtureScheme, Path: "/weather.json"})
	assert.True(t, errors.As(err, &transportErr))
}

func TestOpenWeatherClientNetwork(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		gotQuery = r.URL.RawQuery
		body, err := fs.ReadFile(BundledFixtures(), WeatherFixture)
		require.NoError(t, err)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(NetworkResolver{BaseURL: srv.URL}, NewHTTPPerformer("openweather", srv.Client()), "key")
	r, err := c.FetchCurrentWeather(context.Background(), santaMonica)
	require.NoError(t, err)

	assert.Equal(t, "lat=34.0194704&lon=-118.4912273&appid=key", gotQuery)
	assert.Equal(t, "Santa Monica", r.LocationName)
	assert.Equal(t, 18.3, r.Metrics.Temperature)
}

func TestOpenWeatherClientFixture(t *testing.T) {
	c := NewOpenWeatherClient(FixtureResolver{Name: WeatherFixture}, FixturePerformer{}, "")

	r, err := c.FetchCurrentWeather(context.Background(), santaMonica)
	require.NoError(t, err)

	m := weather.Derive(r, weather.DefaultFormatConfig())
	assert.Equal(t, "Santa Monica", m.Name)
	assert.Equal(t, "18°", m.TemperatureText)
	assert.Equal(t, "Low: 16°   High: 20°", m.TemperatureRangeText)
	assert.Equal(t, "Wind: 3.6 mph(200°)", m.WindText)
	require.NotNil(t, m.DescriptionText)
	assert.Equal(t, "Clear Sky", *m.DescriptionText)
}

func TestOpenWeatherClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		client *OpenWeatherClient
		check  func(t *testing.T, err error)
	}{
		{
			name:   "error body fails to decode",
			client: NewOpenWeatherClient(NetworkResolver{BaseURL: srv.URL}, NewHTTPPerformer("openweather", srv.Client()), "bad"),
			check: func(t *testing.T, err error) {
				var decodeErr *weather.DecodeError
				assert.True(t, errors.As(err, &decodeErr))
			},
		},
		{
			name:   "invalid base url",
			client: NewOpenWeatherClient(NetworkResolver{BaseURL: "not a url"}, NewHTTPPerformer("openweather", srv.Client()), "key"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResource)
			},
		},
		{
			name:   "missing fixture",
			client: NewOpenWeatherClient(FixtureResolver{Name: "nope.json"}, FixturePerformer{}, ""),
			check: func(t *testing.T, err error) {
				var transportErr *TransportError
				assert.True(t, errors.As(err, &transportErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.FetchCurrentWeather(context.Background(), santaMonica)
			require.Error(t, err)

			var fetchErr *weather.FetchError
			require.True(t, errors.As(err, &fetchErr), "expected *weather.FetchError, got %T", err)
			tt.check(t, err)
		})
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestTransportFailureShowsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	loc := location.NewStatic(location.Authorized, location.Authorized)
	loc.Set(santaMonica)

	client := NewOpenWeatherClient(NetworkResolver{BaseURL: base}, NewHTTPPerformer("openweather", http.DefaultClient), "key")
	ctrl := weather.NewController(client, loc, noopStore{}, weather.ControllerConfig{})
	defer ctrl.Close()

	ctrl.Start()
	var states []weather.State
	for len(states) < 2 {
		select {
		case s := <-ctrl.States():
			states = append(states, s)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d states", len(states))
		}
	}

	assert.Equal(t, weather.StateLoading, states[0].Kind)
	require.Equal(t, weather.StateFailed, states[1].Kind)
	assert.Equal(t, weather.ActionRetry, states[1].Failure.Action)
}

type noopStore struct{}

func (noopStore) SaveFix(location.Coordinate, time.Time) {}

func (noopStore) FreshFix(time.Time) (location.Coordinate, error) {
	return location.Coordinate{}, errors.New("no fix")
}

func (noopStore) SaveReport(weather.Report, time.Time) {}

func (noopStore) LatestReport() (weather.Report, time.Time, error) {
	return weather.Report{}, time.Time{}, errors.New("no report")
}

func TestHTTPPerformerIgnoresCallerCancellation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p := NewHTTPPerformer("test", srv.Client())

	// Superseded cycles: cancelled before the request starts.
	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Perform(ctx, mustParse(t, srv.URL+"/ok"))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, int32(0), hits.Load())

	// Superseded cycles: cancelled while the request is in flight.
	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := p.Perform(ctx, mustParse(t, srv.URL+"/slow"))
		cancel()
		var transportErr *TransportError
		assert.True(t, errors.As(err, &transportErr))
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	body, err := p.Perform(context.Background(), mustParse(t, srv.URL+"/ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestHTTPPerformerOpensOnServerFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := mustParse(t, srv.URL+"/data/2.5/weather")
	srv.Close()

	p := NewHTTPPerformer("test", http.DefaultClient)
	for i := 0; i < 6; i++ {
		_, err := p.Perform(context.Background(), target)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	_, err := p.Perform(context.Background(), target)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestRapidLocationUpdatesKeepNetworkReachable(t *testing.T) {
	fixture, err := fs.ReadFile(BundledFixtures(), WeatherFixture)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	loc := location.NewStatic(location.Authorized, location.Authorized)
	client := NewOpenWeatherClient(NetworkResolver{BaseURL: srv.URL}, NewHTTPPerformer("openweather", srv.Client()), "key")
	ctrl := weather.NewController(client, loc, noopStore{}, weather.ControllerConfig{})
	defer ctrl.Close()

	var last atomic.Value
	go func() {
		for s := range ctrl.States() {
			last.Store(s)
		}
	}()

	// Each update supersedes the previous cycle while its request is in flight.
	for i := 0; i < 8; i++ {
		require.NoError(t, ctrl.UpdateLocation(santaMonica))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		s, ok := last.Load().(weather.State)
		return ok && s.Cycle == 8 && s.Kind != weather.StateLoading
	}, 3*time.Second, 10*time.Millisecond)

	s := last.Load().(weather.State)
	assert.Equal(t, weather.StateLoaded, s.Kind)
	require.NotNil(t, s.Model)
	assert.Equal(t, "Santa Monica", s.Model.Name)
}
