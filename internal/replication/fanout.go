package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/torua/cachenode/internal/logging"
	"github.com/torua/cachenode/internal/transport"
)

// DefaultTimeout is the recommended per-follower connect/read/write bound
// from the replication contract.
const DefaultTimeout = 2 * time.Second

// Mutation is a PUT or a DELETE to propagate to followers.
type Mutation struct {
	Op    Op
	Key   string
	Value []byte
	TTL   time.Duration
}

// Op distinguishes the two mutation kinds that replicate.
type Op int

const (
	OpPut Op = iota
	OpDelete
)

type putBody struct {
	Value string `json:"value"`
	TTL   int64  `json:"ttl,omitempty"`
}

// Fanout delivers mutations to a set of followers, sequentially and
// best-effort. Followers may be added at any time; there is no removal
// path.
type Fanout struct {
	client    *transport.Client
	followers *followerSet
	log       logging.Logger
}

// New builds a Fanout with the given initial follower addresses.
func New(followers []string, log logging.Logger) *Fanout {
	return &Fanout{
		client:    transport.NewClient(DefaultTimeout),
		followers: newFollowerSet(followers),
		log:       log,
	}
}

// AddFollower appends addr to the follower set.
func (f *Fanout) AddFollower(addr string) {
	f.followers.add(addr)
}

// Followers returns a snapshot of the current follower addresses.
func (f *Fanout) Followers() []string {
	return f.followers.snapshot()
}

// Send delivers m to every follower currently configured, one at a time.
// A failed delivery to one follower does not stop delivery to the rest,
// and no error is returned to the caller: replication failures are logged
// and otherwise swallowed, per the fan-out contract.
func (f *Fanout) Send(ctx context.Context, m Mutation) {
	for _, addr := range f.followers.snapshot() {
		f.sendOne(ctx, addr, m)
	}
}

func (f *Fanout) sendOne(ctx context.Context, addr string, m Mutation) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/cache/%s", addr, m.Key)

	var err error
	switch m.Op {
	case OpPut:
		err = f.client.PutJSON(ctx, url, putBody{
			Value: string(m.Value),
			TTL:   m.TTL.Milliseconds(),
		}, nil)
	case OpDelete:
		err = f.client.DeleteJSON(ctx, url, nil)
	}

	if err != nil {
		err = errors.Wrapf(err, "replicate %v to %s", m.Op, addr)
		f.log.WithFields(logging.Fields{"follower": addr, "key": m.Key}).Warnf("replication send failed: %v", err)
		return
	}
	f.log.WithFields(logging.Fields{"follower": addr, "key": m.Key}).Debug("replicated")
}

func (o Op) String() string {
	switch o {
	case OpPut:
		return "PUT"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}
