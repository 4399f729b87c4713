package election

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/torua/cachenode/internal/logging"
	"github.com/torua/cachenode/internal/transport"
)

// Peer is a candidate primary: its URL and its priority in the election
// order (higher wins). Self's implicit priority is 0 unless the caller
// lists self explicitly among peers with a different value.
type Peer struct {
	URL      string
	Priority int
}

type state int

const (
	stateIdle state = iota
	stateObserving
	stateElecting
	stateStopped
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateObserving:
		return "observing"
	case stateElecting:
		return "electing"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const probeTimeout = 300 * time.Millisecond

// Coordinator maintains a single agreed-upon primary identity for this
// node, promoting self when the previously observed primary appears dead
// and preferring higher-priority peers over self during an election. When
// an election resolves to a different candidate after this node had been
// primary, the demotion callback fires symmetrically.
//
// GetLeader is safe to call from any goroutine; the election loop itself
// is single-threaded per Coordinator. PromoteFunc and DemoteFunc must be
// safe to invoke from the election loop and must not perform unbounded
// work inline, and neither must call back into this Coordinator's
// exported methods while still on the election loop's call stack below
// the point where the lock was released — in practice: just flip a flag
// elsewhere and return.
type Coordinator struct {
	selfURL          string
	peers            []Peer
	interval         time.Duration
	failureThreshold int
	promote          func()
	demote           func()
	client           *transport.Client
	log              logging.Logger

	mu          sync.RWMutex
	state       state
	current     string
	fails       int
	loopStarted bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config bundles the inputs to New.
type Config struct {
	SelfURL          string
	Peers            []Peer
	InitialPrimary   string
	Interval         time.Duration
	FailureThreshold int
	Promote          func()
	Demote           func()
	Log              logging.Logger
}

// New builds a Coordinator in the Idle state. Call Start to begin probing.
func New(cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		selfURL:          cfg.SelfURL,
		peers:            append([]Peer(nil), cfg.Peers...),
		interval:         cfg.Interval,
		failureThreshold: cfg.FailureThreshold,
		promote:          cfg.Promote,
		demote:           cfg.Demote,
		client:           transport.NewClient(probeTimeout),
		log:              cfg.Log,
		current:          cfg.InitialPrimary,
		ctx:              ctx,
		cancel:           cancel,
	}
	return c
}

// Start transitions Idle to Observing. If there are no peers, self is
// immediately and permanently the primary: the promotion callback fires
// once and no probing goroutine is ever started.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateObserving
	noPeers := len(c.peers) == 0
	c.mu.Unlock()

	if noPeers {
		c.mu.Lock()
		c.current = c.selfURL
		c.mu.Unlock()
		c.log.Info("election: no peers configured, self is primary")
		c.promote()
		return
	}

	c.mu.Lock()
	c.loopStarted = true
	c.mu.Unlock()
	c.wg.Add(1)
	go c.loop()
}

// Stop signals the election loop to exit at its next wake, clears the
// current primary, and transitions to Stopped. Stop is idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state == stateStopped {
		c.mu.Unlock()
		return
	}
	hadLoop := c.loopStarted
	c.state = stateStopped
	c.current = ""
	c.mu.Unlock()

	c.cancel()
	if hadLoop {
		c.wg.Wait()
	}

	// A tick already in progress when Stop began may have set a primary or
	// a state of its own; settle both again now that the loop has exited.
	c.mu.Lock()
	c.state = stateStopped
	c.current = ""
	c.mu.Unlock()
}

// GetLeader returns the currently agreed primary URL, or "" if none has
// been decided yet.
func (c *Coordinator) GetLeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// SetLeader overrides the current primary without going through a probe
// round. It exists for tests and for out-of-band administrative use; the
// election loop does not call it.
func (c *Coordinator) SetLeader(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = url
}

// State returns the coordinator's current state, mostly useful for tests.
func (c *Coordinator) State() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.String()
}

func (c *Coordinator) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Coordinator) tick() {
	c.mu.RLock()
	st := c.state
	c.mu.RUnlock()

	switch st {
	case stateObserving:
		c.observeTick()
	case stateElecting:
		c.electTick()
	}
}

func (c *Coordinator) observeTick() {
	primary, becameSelf := c.ensurePrimary()
	if becameSelf {
		c.promote()
	}

	if err := c.probe(primary); err != nil {
		c.log.WithFields(logging.Fields{"primary": primary}).Warnf("primary health probe failed: %v", err)

		c.mu.Lock()
		c.fails++
		failed := c.fails >= c.failureThreshold
		if failed {
			c.state = stateElecting
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.fails = 0
	c.mu.Unlock()
}

// ensurePrimary picks a primary if none is set yet: the highest-priority
// peer, or self if there are no peers. Returns the (possibly just-chosen)
// primary URL and whether self was just chosen.
func (c *Coordinator) ensurePrimary() (string, bool) {
	c.mu.Lock()
	if c.current != "" {
		current := c.current
		c.mu.Unlock()
		return current, false
	}

	if len(c.peers) == 0 {
		c.current = c.selfURL
		c.mu.Unlock()
		return c.selfURL, true
	}

	best := c.peers[0]
	for _, p := range c.peers[1:] {
		if p.Priority > best.Priority {
			best = p
		}
	}
	c.current = best.URL
	c.mu.Unlock()
	return best.URL, false
}

type candidate struct {
	url      string
	priority int
}

func (c *Coordinator) electTick() {
	c.mu.RLock()
	cands := make([]candidate, 0, len(c.peers)+1)
	for _, p := range c.peers {
		cands = append(cands, candidate{p.URL, p.Priority})
	}
	cands = append(cands, candidate{c.selfURL, 0})
	c.mu.RUnlock()

	slices.SortStableFunc(cands, func(a, b candidate) int {
		return b.priority - a.priority
	})

	for _, cand := range cands {
		if c.probe(cand.url) != nil {
			continue
		}

		becameSelf := cand.url == c.selfURL
		c.mu.Lock()
		wasSelf := c.current == c.selfURL
		c.current = cand.url
		c.fails = 0
		c.state = stateObserving
		c.mu.Unlock()

		c.log.WithFields(logging.Fields{"primary": cand.url}).Info("election completed")
		if becameSelf {
			c.promote()
		} else if wasSelf && c.demote != nil {
			c.log.Warn("election: lost primary status, disabling replication")
			c.demote()
		}
		return
	}

	c.log.Warn("election: no candidate responded, retrying next tick")
}

// probe reports nil if url is healthy. Self is always considered healthy
// without an actual network round trip: probing your own not-yet-started
// listener during election should not count as a transport failure, and
// no lock is held across the call either way.
func (c *Coordinator) probe(url string) error {
	if url == c.selfURL {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return c.client.Get(ctx, url+"/healthz")
}
