package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/i474232898/weather-now/internal/location"
)

// ControllerConfig tunes a Controller. The zero value is usable.
type ControllerConfig struct {
	Format FormatConfig

	// LocateTimeout bounds how long a cycle waits for a location fix.
	// Zero means wait until the cycle is superseded or the controller closes.
	LocateTimeout time.Duration

	// Now is the clock used for fix timestamps. Defaults to time.Now.
	Now func() time.Time
}

// fix is a coordinate and when it was obtained. stored marks a fix that was
// read back from the store and must not be written again.
type fix struct {
	coord  location.Coordinate
	at     time.Time
	stored bool
}

// Controller drives the weather screen: it resolves a location, fetches the
// current weather and publishes Loading, then Loaded or Failed, for each cycle.
// Starting a cycle supersedes the previous one; results of superseded cycles
// are dropped.
type Controller struct {
	fetcher Fetcher
	locator location.Provider
	store   Store
	cfg     ControllerConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	seq         uint64
	cycleCancel context.CancelFunc
	current     State
	closed      bool

	wg   sync.WaitGroup
	in   chan State
	out  chan State
	done chan struct{}
}

// NewController creates a Controller and starts its dispatcher. Call Close to
// release it.
func NewController(fetcher Fetcher, locator location.Provider, store Store, cfg ControllerConfig) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher: fetcher,
		locator: locator,
		store:   store,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		current: Idle(),
		in:      make(chan State),
		out:     make(chan State),
		done:    make(chan struct{}),
	}
	go c.dispatch()
	return c
}

// States is the controller's output stream. It has a single consumer and is
// closed by Close.
func (c *Controller) States() <-chan State {
	return c.out
}

// Current returns the most recently emitted state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Start runs the first cycle: resolve location, then fetch.
func (c *Controller) Start() {
	c.begin(nil, "start")
}

// Retry re-runs a cycle. A fix younger than the store's max age is reused
// while location access is still granted; otherwise the location is resolved
// again, which also reports revoked access.
func (c *Controller) Retry() {
	if status := c.locator.AuthorizationStatus(); status != location.Authorized {
		log.Printf("DEBUG: controller: location access is %s; not reusing stored fix", status)
		c.begin(nil, "retry")
		return
	}

	coord, err := c.store.FreshFix(c.cfg.Now())
	if err != nil {
		log.Printf("DEBUG: controller: no fresh fix for retry (%v); resolving location", err)
		c.begin(nil, "retry")
		return
	}
	c.begin(&fix{coord: coord, stored: true}, "retry")
}

// UpdateLocation runs a cycle for a coordinate pushed by the location source.
// The coordinate becomes the stored fix once its cycle completes.
func (c *Controller) UpdateLocation(coord location.Coordinate) error {
	if err := location.Validate(coord); err != nil {
		return err
	}
	c.begin(&fix{coord: coord, at: c.cfg.Now()}, "location update")
	return nil
}

// EnableLocationAccess opens the platform's location settings.
func (c *Controller) EnableLocationAccess() error {
	if err := c.locator.OpenSettings(); err != nil {
		return fmt.Errorf("open location settings: %w", err)
	}
	return nil
}

// Close cancels any running cycle, waits for it, and closes States.
// Pending states that were not yet received are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cycleCancel != nil {
		c.cycleCancel()
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	close(c.done)
}

func (c *Controller) begin(f *fix, trigger string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.cycleCancel != nil {
		c.cycleCancel()
	}

	c.seq++
	seq := c.seq
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(c.ctx)
	c.cycleCancel = cancel

	log.Printf("INFO: controller: cycle %d (%s) started by %s", seq, id, trigger)
	c.emitLocked(loading(seq, id))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.run(ctx, seq, id, f)
	}()
}

func (c *Controller) run(ctx context.Context, seq uint64, id string, f *fix) {
	if f == nil {
		coord, err := c.locate(ctx)
		if err != nil {
			log.Printf("ERROR: controller: cycle %d (%s) could not resolve location: %v", seq, id, err)
			c.finish(seq, id, failed(seq, id, LocationFailure()), nil)
			return
		}
		f = &fix{coord: coord, at: c.cfg.Now()}
	}

	report, err := c.fetcher.FetchCurrentWeather(ctx, f.coord)
	if err != nil {
		log.Printf("ERROR: controller: cycle %d (%s) fetch failed: %v", seq, id, err)
		c.finish(seq, id, failed(seq, id, RetryFailure()), func() {
			c.saveFix(f)
		})
		return
	}

	model := Derive(report, c.cfg.Format)
	c.finish(seq, id, loaded(seq, id, model), func() {
		c.saveFix(f)
		c.store.SaveReport(report, c.cfg.Now())
	})
}

// locate obtains one coordinate from the location provider, asking for
// permission first when it has not been decided yet.
func (c *Controller) locate(ctx context.Context) (location.Coordinate, error) {
	if c.cfg.LocateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.LocateTimeout)
		defer cancel()
	}

	switch status := c.locator.AuthorizationStatus(); status {
	case location.Authorized:
	case location.NotDetermined:
		granted, err := c.locator.RequestAuthorization(ctx)
		if err != nil {
			return location.Coordinate{}, fmt.Errorf("%w: request authorization: %v", location.ErrDenied, err)
		}
		if granted != location.Authorized {
			return location.Coordinate{}, fmt.Errorf("%w: %s", location.ErrDenied, granted)
		}
	default:
		return location.Coordinate{}, fmt.Errorf("%w: %s", location.ErrDenied, status)
	}

	sub, unsubscribe := context.WithCancel(ctx)
	defer unsubscribe()

	select {
	case u, ok := <-c.locator.Updates(sub):
		if !ok {
			return location.Coordinate{}, location.ErrUnavailable
		}
		if u.Err != nil {
			if errors.Is(u.Err, location.ErrDenied) || errors.Is(u.Err, location.ErrUnavailable) {
				return location.Coordinate{}, u.Err
			}
			return location.Coordinate{}, fmt.Errorf("%w: %v", location.ErrUnavailable, u.Err)
		}
		if err := location.Validate(u.Coordinate); err != nil {
			return location.Coordinate{}, fmt.Errorf("%w: %v", location.ErrUnavailable, err)
		}
		return u.Coordinate, nil
	case <-ctx.Done():
		return location.Coordinate{}, fmt.Errorf("%w: %v", location.ErrUnavailable, ctx.Err())
	}
}

// finish emits the result of cycle seq if it is still the active cycle.
// commit runs under the same lock, so only the active cycle writes the store.
func (c *Controller) finish(seq uint64, id string, s State, commit func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.seq {
		log.Printf("DEBUG: controller: dropping result of superseded cycle %d (%s)", seq, id)
		return
	}
	if commit != nil {
		commit()
	}
	log.Printf("INFO: controller: cycle %d (%s) finished: %s", seq, id, s.Kind)
	c.emitLocked(s)
}

func (c *Controller) saveFix(f *fix) {
	if f.stored {
		return
	}
	c.store.SaveFix(f.coord, f.at)
}

// emitLocked hands s to the dispatcher. c.mu must be held so that states
// reach the dispatcher in the order they were produced.
func (c *Controller) emitLocked(s State) {
	c.current = s
	select {
	case c.in <- s:
	case <-c.done:
	}
}

// dispatch buffers emitted states and forwards them to the consumer in order.
func (c *Controller) dispatch() {
	defer close(c.out)

	var queue []State
	for {
		var (
			out  chan State
			next State
		)
		if len(queue) > 0 {
			out = c.out
			next = queue[0]
		}

		select {
		case s := <-c.in:
			queue = append(queue, s)
		case out <- next:
			queue = queue[1:]
		case <-c.done:
			return
		}
	}
}
