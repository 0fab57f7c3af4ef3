// Package controller recomputes the dashboard view whenever the club
// selection changes and publishes it atomically.
//
// Requests go through a single pending slot: a newer selection replaces an
// unstarted older one. A result is published only if its version is still the
// latest requested, so a slow computation for a superseded selection is
// discarded when it completes.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"clubstats/internal/aggregate"
	"clubstats/internal/log"
	"clubstats/internal/selection"
)

var (
	// ErrNotRunning is returned by WaitIdle when work is pending and Run is
	// not active.
	ErrNotRunning = errors.New("controller not running")
	// ErrAlreadyRunning is returned by a second concurrent call to Run.
	ErrAlreadyRunning = errors.New("controller already running")
)

// Status is the recomputation state.
type Status int

const (
	Idle Status = iota
	Computing
)

func (s Status) String() string {
	if s == Computing {
		return "computing"
	}
	return "idle"
}

// View is a published dashboard view and the selection version it was
// computed from.
type View struct {
	aggregate.View
	Version    uint64    `json:"version"`
	ComputedAt time.Time `json:"computed_at"`
}

// Subscriber receives every published view, in publish order.
type Subscriber func(View)

// Options configures a Controller.
type Options struct {
	// Workers is the number of concurrent computations. Values below 1 mean 1.
	Workers int
	Logger  *log.Logger
}

type request struct {
	version uint64
	sel     selection.Selection
}

// Controller owns the selection state and the published view.
type Controller struct {
	state   *selection.State
	agg     aggregate.Computer
	workers int
	logger  *log.Logger
	now     func() time.Time

	mu        sync.Mutex
	latest    uint64
	published uint64
	discarded uint64
	view      View
	pending   *request
	changed   chan struct{}
	running   bool
	subs      []Subscriber
	outbox    []View

	wake   chan struct{}
	notify chan struct{}
}

// New computes the initial view synchronously and starts listening to state.
func New(state *selection.State, agg aggregate.Computer, opts Options) *Controller {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentController)
	}
	c := &Controller{
		state:   state,
		agg:     agg,
		workers: workers,
		logger:  logger,
		now:     time.Now,
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		notify:  make(chan struct{}, 1),
	}

	// Changes landing while the initial view computes queue a request.
	version, sel := state.OnChange(c.request)
	initial := View{View: agg.Compute(sel), Version: version, ComputedAt: c.now()}

	c.mu.Lock()
	if version > c.latest {
		c.latest = version
	}
	c.published = version
	c.view = initial
	c.mu.Unlock()
	return c
}

// State returns the selection state driving the controller.
func (c *Controller) State() *selection.State {
	return c.state
}

// request runs with the selection lock held and never blocks.
func (c *Controller) request(version uint64, sel selection.Selection) {
	c.mu.Lock()
	if version > c.latest {
		c.latest = version
	}
	c.pending = &request{version: version, sel: sel}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Run starts the workers and blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(c.workers + 1)
	for i := 0; i < c.workers; i++ {
		go func() {
			defer wg.Done()
			c.work(ctx)
		}()
	}
	go func() {
		defer wg.Done()
		c.dispatch(ctx)
	}()

	c.logger.Info("Controller started", "workers", c.workers)
	wg.Wait()

	c.mu.Lock()
	c.running = false
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
	c.logger.Info("Controller stopped")
	return nil
}

func (c *Controller) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}

		c.mu.Lock()
		req := c.pending
		c.pending = nil
		c.mu.Unlock()
		if req == nil {
			continue
		}

		v := c.agg.Compute(req.sel)
		c.publish(req.version, v)
	}
}

func (c *Controller) publish(version uint64, v aggregate.View) {
	c.mu.Lock()
	if version != c.latest || version <= c.published {
		c.discarded++
		latest := c.latest
		c.mu.Unlock()
		c.logger.Debug("Discarded superseded view", log.FieldVersion, version, "latest", latest)
		return
	}
	c.published = version
	c.view = View{View: v, Version: version, ComputedAt: c.now()}
	if len(c.subs) > 0 {
		c.outbox = append(c.outbox, c.view)
	}
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// dispatch delivers queued views to subscribers from a single goroutine so
// they observe publish order and may call back into the controller.
func (c *Controller) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.notify:
		}

		c.mu.Lock()
		batch := c.outbox
		c.outbox = nil
		subs := append([]Subscriber(nil), c.subs...)
		c.mu.Unlock()

		for _, v := range batch {
			for _, s := range subs {
				s(v.clone())
			}
		}
	}
}

func (v View) clone() View {
	v.View = v.View.Clone()
	return v
}

// Subscribe registers s for views published from now on.
func (c *Controller) Subscribe(s Subscriber) {
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
}

// View returns a copy of the last published view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Status reports Computing while a requested selection is not yet published.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.published < c.latest {
		return Computing
	}
	return Idle
}

// Running reports whether Run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Discarded returns the number of results dropped because a newer selection
// was requested while they were computed.
func (c *Controller) Discarded() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discarded
}

// WaitIdle blocks until the latest requested selection is published.
func (c *Controller) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.published >= c.latest {
			c.mu.Unlock()
			return nil
		}
		if !c.running {
			c.mu.Unlock()
			return ErrNotRunning
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}
