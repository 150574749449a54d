package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/notex/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Listener is called for every transition, in order, from a single
// goroutine.
type Listener func(ctx context.Context, online bool)

const transitionBuffer = 16

// Watcher probes the remote service on an interval and publishes the result.
type Watcher struct {
	checker  Checker
	state    *State
	interval time.Duration
	log      logging.Logger

	inflight *semaphore.Weighted
	probed   atomic.Bool
	events   chan bool

	mu        sync.Mutex
	listeners []Listener
}

func NewWatcher(checker Checker, state *State, interval time.Duration, log logging.Logger) *Watcher {
	return &Watcher{
		checker:  checker,
		state:    state,
		interval: interval,
		log:      log.With("component", "connectivity"),
		inflight: semaphore.NewWeighted(1),
		events:   make(chan bool, transitionBuffer),
	}
}

// OnTransition registers l. Register listeners before calling Run.
func (w *Watcher) OnTransition(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Run probes immediately and then every interval until ctx is done.
// A reachable first probe is reported as an online transition even though the
// state starts online, so listeners can reconcile at startup.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w.probeLoop(ctx)
		return nil
	})
	g.Go(func() error {
		w.dispatch(ctx)
		return nil
	})

	return g.Wait()
}

// Poll runs one probe synchronously, waiting for an in-flight one first.
func (w *Watcher) Poll(ctx context.Context) bool {
	if err := w.inflight.Acquire(ctx, 1); err != nil {
		return w.state.Online()
	}
	defer w.inflight.Release(1)

	return w.probe(ctx)
}

func (w *Watcher) probeLoop(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		if !w.inflight.TryAcquire(1) {
			w.log.Debug(ctx, "probe still running, skipping tick")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer w.inflight.Release(1)
			w.probe(ctx)
		}()
	}

	tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// probe must be called with the inflight semaphore held.
func (w *Watcher) probe(ctx context.Context) bool {
	online := w.checker.CheckConnection(ctx)
	if ctx.Err() != nil {
		return w.state.Online()
	}

	changed := w.state.set(online)
	first := w.probed.CompareAndSwap(false, true)
	if !changed && !(first && online) {
		return online
	}

	if changed {
		w.log.Info(ctx, "connectivity changed", "online", online)
	}
	select {
	case w.events <- online:
	case <-ctx.Done():
	}
	return online
}

func (w *Watcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case online := <-w.events:
			w.mu.Lock()
			listeners := append([]Listener(nil), w.listeners...)
			w.mu.Unlock()

			for _, l := range listeners {
				l(ctx, online)
			}
		}
	}
}
