package syncache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"guestbook/pkg/logger"
	"guestbook/pkg/models"
)

var ErrStopped = errors.New("list cache stopped")

type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Fetcher reads the full remote collection. A fetcher may return entries
// together with an error to hand out stand-in data when the remote is
// unavailable; the cache shows such data only until a real list is loaded.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.Entry, error)
}

type Options struct {
	// Interval between automatic refreshes. Zero means 10s.
	Interval time.Duration
	// FocusGap is the minimum spacing of Focus-triggered refreshes. Zero
	// means 2s.
	FocusGap time.Duration
}

// Cache is the single holder of the displayed entry list. The snapshot only
// changes through ApplyOptimistic, Update and Revalidate.
//
// Every write and every fetch takes an issue number when it starts. A fetch
// result is applied only if nothing issued after it has been applied yet, so
// a slow fetch can never overwrite a newer optimistic write or a newer fetch.
type Cache struct {
	fetcher  Fetcher
	interval time.Duration
	focus    *rate.Limiter

	mu         sync.Mutex
	snapshot   []models.Entry
	state      State
	optimistic bool
	issued     uint64
	applied    uint64
	stopped    bool
	listeners  []func([]models.Entry)

	// base lives until Stop and bounds fetches started before Start.
	base       context.Context
	cancelBase context.CancelFunc
	loopCtx    context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func New(fetcher Fetcher, opts Options) *Cache {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.FocusGap <= 0 {
		opts.FocusGap = 2 * time.Second
	}
	base, cancelBase := context.WithCancel(context.Background())
	return &Cache{
		fetcher:    fetcher,
		interval:   opts.Interval,
		focus:      rate.NewLimiter(rate.Every(opts.FocusGap), 1),
		snapshot:   []models.Entry{},
		base:       base,
		cancelBase: cancelBase,
	}
}

// Snapshot returns a copy of the current list. It never blocks on the network.
func (c *Cache) Snapshot() []models.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Clone(c.snapshot)
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Optimistic reports whether the snapshot holds a local change the server
// has not confirmed yet.
func (c *Cache) Optimistic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.optimistic
}

// OnChange registers fn to be called with a copy of every new snapshot.
func (c *Cache) OnChange(fn func([]models.Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// ApplyOptimistic replaces the snapshot immediately.
func (c *Cache) ApplyOptimistic(next []models.Entry) {
	c.Update(func([]models.Entry) []models.Entry { return next })
}

// Update applies fn to the current snapshot as one optimistic write.
func (c *Cache) Update(fn func(current []models.Entry) []models.Entry) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	next := fn(models.Clone(c.snapshot))
	if next == nil {
		next = []models.Entry{}
	}
	c.issued++
	c.applied = c.issued
	c.snapshot = models.Clone(next)
	c.optimistic = true
	c.state = StateReady
	out, listeners := c.notifyLocked()
	c.mu.Unlock()

	notify(listeners, out)
}

// Revalidate fetches the server list and replaces the snapshot with it,
// dropping any optimistic change. A failed fetch keeps the last good
// snapshot; stand-in entries returned alongside the error are applied only
// while the cache is still loading. The returned list is the snapshot after
// the call.
func (c *Cache) Revalidate(ctx context.Context) ([]models.Entry, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, ErrStopped
	}
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	fresh, err := c.fetcher.FetchAll(ctx)

	c.mu.Lock()
	switch {
	case c.stopped:
		c.mu.Unlock()
		return nil, ErrStopped
	case err != nil && len(fresh) > 0 && c.state == StateLoading && seq >= c.applied:
		c.applied = seq
		c.snapshot = models.Clone(fresh)
		c.state = StateReady
		out, listeners := c.notifyLocked()
		c.mu.Unlock()
		logger.For("syncache").Debug("revalidate failed, showing stand-in entries", "seq", seq, "err", err)
		notify(listeners, out)
		return models.Clone(out), err
	case err != nil:
		current := models.Clone(c.snapshot)
		c.mu.Unlock()
		logger.For("syncache").Debug("revalidate failed, keeping snapshot", "seq", seq, "err", err)
		return current, err
	case seq < c.applied:
		current, applied := models.Clone(c.snapshot), c.applied
		c.mu.Unlock()
		logger.For("syncache").Debug("discarding stale fetch", "seq", seq, "applied", applied)
		return current, nil
	}

	if fresh == nil {
		fresh = []models.Entry{}
	}
	c.applied = seq
	c.snapshot = models.Clone(fresh)
	c.optimistic = false
	c.state = StateReady
	out, listeners := c.notifyLocked()
	c.mu.Unlock()

	notify(listeners, out)
	return models.Clone(out), nil
}

// Start runs an initial fetch and then refreshes on every interval tick
// until Stop or ctx is done. Calling Start twice is a no-op.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil || c.stopped {
		c.mu.Unlock()
		return
	}
	c.loopCtx, c.cancel = context.WithCancel(ctx)
	loopCtx := c.loopCtx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.refresh(loopCtx)

		t := time.NewTicker(c.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.refresh(loopCtx)
			case <-loopCtx.Done():
				return
			}
		}
	}()
}

// Focus asks for an out-of-band refresh, e.g. when the view regains focus
// or a live event arrives. Calls closer together than the focus gap are
// collapsed. It reports whether a fetch was started.
func (c *Cache) Focus() bool {
	c.mu.Lock()
	if c.stopped || !c.focus.Allow() {
		c.mu.Unlock()
		return false
	}
	ctx := c.loopCtx
	if ctx == nil {
		ctx = c.base
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.refresh(ctx)
	}()
	return true
}

// Stop ends the refresh loop. Results of fetches still in flight are
// discarded, and later calls to Revalidate return ErrStopped.
func (c *Cache) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.cancelBase()
	c.wg.Wait()
}

func (c *Cache) refresh(ctx context.Context) {
	if _, err := c.Revalidate(ctx); err != nil && !errors.Is(err, ErrStopped) && ctx.Err() == nil {
		logger.For("syncache").Debug("refresh failed, retrying on next tick", "err", err)
	}
}

func (c *Cache) notifyLocked() ([]models.Entry, []func([]models.Entry)) {
	listeners := make([]func([]models.Entry), len(c.listeners))
	copy(listeners, c.listeners)
	return models.Clone(c.snapshot), listeners
}

func notify(listeners []func([]models.Entry), snapshot []models.Entry) {
	for _, fn := range listeners {
		fn(models.Clone(snapshot))
	}
}
