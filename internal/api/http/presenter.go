package httpapi

import (
	"log"
	"sync"

	"github.com/i474232898/weather-now/internal/weather"
)

// Presenter is the single consumer of a controller's state stream. It keeps
// the latest state so HTTP handlers can read it at any time.
type Presenter struct {
	mu     sync.RWMutex
	latest weather.State
	done   chan struct{}
}

// NewPresenter starts consuming states until the stream is closed.
func NewPresenter(states <-chan weather.State) *Presenter {
	p := &Presenter{
		latest: weather.Idle(),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		for s := range states {
			log.Printf("DEBUG: presenter: cycle %d (%s) -> %s", s.Cycle, s.CycleID, s.Kind)
			p.mu.Lock()
			p.latest = s
			p.mu.Unlock()
		}
	}()

	return p
}

// Latest returns the most recently received state.
func (p *Presenter) Latest() weather.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Done is closed once the state stream has ended.
func (p *Presenter) Done() <-chan struct{} {
	return p.done
}
