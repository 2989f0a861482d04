package weather

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
)

const (
	DefaultRefreshInterval = 60 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
)

// CoordinatorConfig tunes a Coordinator. Zero values fall back to the defaults above.
type CoordinatorConfig struct {
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

// Coordinator owns the dashboard's single weather query state.
// Only the most recently issued query may change the state; older completions are dropped.
type Coordinator struct {
	fetcher Fetcher
	cfg     CoordinatorConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       QueryState
	seq         uint64
	inflight    context.CancelFunc
	subscribers map[int]func(QueryState)
	nextSubID   int
	pending     []delivery
	delivering  bool
	sched       *scheduler.Scheduler
	closed      bool
}

// NewCoordinator creates an Idle coordinator backed by fetcher.
func NewCoordinator(fetcher Fetcher, cfg CoordinatorConfig) *Coordinator {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		fetcher:     fetcher,
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		state:       idleState(),
		subscribers: make(map[int]func(QueryState)),
	}
}

// Query issues a new lookup. Blank input is ignored and leaves the state untouched.
func (c *Coordinator) Query(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	if c.inflight != nil {
		c.inflight()
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
	c.inflight = cancel
	c.state = loadingState(query)
	c.enqueue(seq, c.state)
	c.wg.Add(1)
	c.mu.Unlock()

	c.deliver()

	go c.run(ctx, cancel, seq, query)
}

func (c *Coordinator) run(ctx context.Context, cancel context.CancelFunc, seq uint64, query string) {
	defer c.wg.Done()
	defer cancel()

	record, err := c.fetcher.FetchWeather(ctx, query)

	var next QueryState
	if err != nil {
		next = failedState(query, DetailOf(err))
	} else {
		next = readyState(query, record)
	}

	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		logger.WithFields(logrus.Fields{"city": query, "seq": seq}).Debug("coordinator: dropping stale result")
		return
	}
	c.state = next
	c.inflight = nil
	c.enqueue(seq, next)
	c.mu.Unlock()

	fields := logrus.Fields{"city": query, "seq": seq, "status": next.Status().String()}
	if err != nil {
		logger.WithFields(fields).WithField("kind", KindOf(err)).Warn("coordinator: query failed")
	} else {
		logger.WithFields(fields).Debug("coordinator: query ready")
	}
	c.deliver()
}

// State returns the current query state.
func (c *Coordinator) State() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Condition is the category of the current record, Default unless Ready.
func (c *Coordinator) Condition() ConditionCategory {
	return c.State().Condition()
}

// Reset returns to Idle. Any in-flight request becomes stale.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	c.state = idleState()
	c.enqueue(c.seq, c.state)
	c.mu.Unlock()

	c.deliver()
}

// Refresh re-issues the current query, but only when the state is Ready.
func (c *Coordinator) Refresh() {
	state := c.State()
	if state.Status() != StatusReady {
		return
	}
	logger.WithFields(logrus.Fields{"city": state.Query()}).Debug("coordinator: auto-refresh")
	c.Query(state.Query())
}

// Subscribe registers fn to be called with every state transition, in order.
// Transitions of a query that was superseded before delivery are not reported.
// The returned func unsubscribes.
func (c *Coordinator) Subscribe(fn func(QueryState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Start schedules the periodic auto-refresh.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sched != nil {
		return nil
	}
	s := scheduler.New()
	if err := s.Every("weather-refresh", c.cfg.RefreshInterval, c.Refresh); err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	c.sched = s
	logger.WithFields(logrus.Fields{"interval": c.cfg.RefreshInterval.String()}).Info("coordinator: auto-refresh started")
	return nil
}

// Close stops auto-refresh, cancels in-flight work and drops all subscribers.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sched := c.sched
	c.sched = nil
	c.subscribers = make(map[int]func(QueryState))
	c.pending = nil
	c.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	c.cancel()
	c.wg.Wait()
}

// caller holds c.mu
func (c *Coordinator) snapshotSubscribers() []func(QueryState) {
	subs := make([]func(QueryState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

// delivery is a state transition waiting to reach subscribers.
type delivery struct {
	seq   uint64
	state QueryState
}

// caller holds c.mu
func (c *Coordinator) enqueue(seq uint64, state QueryState) {
	c.pending = append(c.pending, delivery{seq: seq, state: state})
}

// deliver hands pending transitions to subscribers in the order they were made.
// Only one goroutine drains at a time; the others return after enqueueing, so a
// subscriber may call back into the coordinator. Transitions belonging to a
// superseded query are skipped.
func (c *Coordinator) deliver() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.pending) > 0 {
		d := c.pending[0]
		c.pending = c.pending[1:]
		if d.seq != c.seq || c.closed {
			continue
		}
		subs := c.snapshotSubscribers()
		c.mu.Unlock()
		notify(subs, d.state)
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

func notify(subs []func(QueryState), state QueryState) {
	for _, fn := range subs {
		fn(state)
	}
}
