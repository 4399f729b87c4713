package election

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torua/cachenode/internal/logging"
)

func testLogger() logging.Logger {
	return logging.New(logging.ErrorLevel, os.Stderr)
}

func healthyServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func waitFor(t *testing.T, deadline time.Duration, cond func() bool) bool {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestStartWithNoPeersPromotesSelfImmediately(t *testing.T) {
	var promoted atomic.Int32
	c := New(Config{
		SelfURL:          "http://self",
		Interval:         10 * time.Millisecond,
		FailureThreshold: 2,
		Promote:          func() { promoted.Add(1) },
		Log:              testLogger(),
	})
	defer c.Stop()

	c.Start()

	assert.Equal(t, "http://self", c.GetLeader())
	assert.EqualValues(t, 1, promoted.Load())
	assert.Equal(t, "observing", c.State())
}

func TestStartPicksHighestPriorityPeerAsPrimary(t *testing.T) {
	high := healthyServer()
	defer high.Close()
	low := healthyServer()
	defer low.Close()

	c := New(Config{
		SelfURL: "http://self",
		Peers: []Peer{
			{URL: low.URL, Priority: 1},
			{URL: high.URL, Priority: 5},
		},
		Interval:         10 * time.Millisecond,
		FailureThreshold: 2,
		Promote:          func() {},
		Log:              testLogger(),
	})
	defer c.Stop()

	c.Start()

	require.True(t, waitFor(t, time.Second, func() bool {
		return c.GetLeader() == high.URL
	}))
}

func TestObserveTickPromotesSelfAfterPrimaryFailsRepeatedly(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	dead.Close() // closed immediately: connection refused on every probe

	var promotions atomic.Int32
	c := New(Config{
		SelfURL: "http://self",
		Peers: []Peer{
			{URL: dead.URL, Priority: 5},
		},
		Interval:         10 * time.Millisecond,
		FailureThreshold: 2,
		Promote:          func() { promotions.Add(1) },
		Log:              testLogger(),
	})
	defer c.Stop()

	c.Start()

	require.True(t, waitFor(t, 2*time.Second, func() bool {
		return c.GetLeader() == "http://self"
	}))
	assert.GreaterOrEqual(t, promotions.Load(), int32(1))
}

func TestElectionPrefersHigherPriorityPeerOverSelf(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	rescuer := healthyServer()
	defer rescuer.Close()

	c := New(Config{
		SelfURL: "http://self",
		Peers: []Peer{
			{URL: dead.URL, Priority: 10},
			{URL: rescuer.URL, Priority: 5},
		},
		Interval:         10 * time.Millisecond,
		FailureThreshold: 2,
		Promote:          func() {},
		Log:              testLogger(),
	})
	defer c.Stop()

	c.Start()

	require.True(t, waitFor(t, 2*time.Second, func() bool {
		return c.GetLeader() == rescuer.URL
	}))
	assert.Equal(t, "observing", c.State())
}

func TestElectTickDemotesSelfWhenAnotherCandidateWins(t *testing.T) {
	rescuer := healthyServer()
	defer rescuer.Close()

	var demotions atomic.Int32
	c := New(Config{
		SelfURL: "http://self",
		Peers: []Peer{
			{URL: rescuer.URL, Priority: 5},
		},
		Interval:         time.Hour,
		FailureThreshold: 2,
		Promote:          func() {},
		Demote:           func() { demotions.Add(1) },
		Log:              testLogger(),
	})
	defer c.Stop()

	c.SetLeader("http://self")

	c.mu.Lock()
	c.state = stateElecting
	c.mu.Unlock()

	c.electTick()

	assert.Equal(t, rescuer.URL, c.GetLeader())
	assert.EqualValues(t, 1, demotions.Load())
}

func TestElectTickDoesNotDemoteWhenSelfWins(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	var demotions atomic.Int32
	c := New(Config{
		SelfURL: "http://self",
		Peers: []Peer{
			{URL: dead.URL, Priority: 5},
		},
		Interval:         time.Hour,
		FailureThreshold: 2,
		Promote:          func() {},
		Demote:           func() { demotions.Add(1) },
		Log:              testLogger(),
	})
	defer c.Stop()

	c.SetLeader("http://peer-that-is-now-gone")

	c.mu.Lock()
	c.state = stateElecting
	c.mu.Unlock()

	c.electTick()

	assert.Equal(t, "http://self", c.GetLeader())
	assert.EqualValues(t, 0, demotions.Load())
}

func TestSetLeaderAndGetLeaderRoundTrip(t *testing.T) {
	c := New(Config{
		SelfURL:          "http://self",
		Peers:            []Peer{{URL: "http://peer", Priority: 1}},
		Interval:         time.Hour,
		FailureThreshold: 3,
		Promote:          func() {},
		Log:              testLogger(),
	})
	defer c.Stop()

	c.SetLeader("http://override")
	assert.Equal(t, "http://override", c.GetLeader())
}

func TestStopIsIdempotentAndStopsTheLoop(t *testing.T) {
	var ticks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticks.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{
		SelfURL:          "http://self",
		Peers:            []Peer{{URL: srv.URL, Priority: 1}},
		Interval:         5 * time.Millisecond,
		FailureThreshold: 2,
		Promote:          func() {},
		Log:              testLogger(),
	})
	c.Start()

	require.True(t, waitFor(t, time.Second, func() bool {
		return ticks.Load() > 0
	}))

	c.Stop()
	c.Stop() // must not panic or block

	snapshot := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, snapshot, ticks.Load(), "no probes should happen after Stop")
	assert.Equal(t, "", c.GetLeader())
	assert.Equal(t, "stopped", c.State())
}
