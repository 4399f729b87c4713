package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the process's configured replication role.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleFollower Role = "follower"
)

// Peer is one election candidate: a health-probe URL and its priority.
type Peer struct {
	URL      string
	Priority int
}

// Config is the fully parsed, validated set of inputs the Process
// Supervisor needs to wire up a cachenode.
type Config struct {
	Role             Role
	Port             int
	Followers        []string
	Peers            []Peer
	ID               string
	ElectionPort     int
	ElectionInterval time.Duration
	FailureThreshold int
	Capacity         int
	EvictionInterval time.Duration
}

// stringListFlag accumulates repeated occurrences of a flag into a slice,
// in the manner Skipor-memcached's main uses flag.Var for non-scalar
// options.
type stringListFlag struct {
	values *[]string
}

func (f stringListFlag) String() string {
	if f.values == nil {
		return ""
	}
	return strings.Join(*f.values, ",")
}

func (f stringListFlag) Set(v string) error {
	*f.values = append(*f.values, v)
	return nil
}

const usage = `Usage of cachenode:
  --role primary|follower     replication role (default primary)
  --port <int>                 listen port (default 5000)
  --followers <url>            follower base URL, repeatable
  --peers <host:port[=priority]>  election peer, repeatable
  --id <string>                 node identity (default: random)
  --election-port <int>         health probe listen port (default: --port)
  --election-interval <ms>      election tick interval in ms (default 1000)
  --failure-threshold <int>     consecutive probe failures before electing (default 3)
  --capacity <int>               maximum live cache entries (default 10000)
  --eviction-interval <ms>      sweeper wake period in ms (default 1000)
`

// Parse builds a Config from CLI-style arguments (as os.Args[1:]).
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("cachenode", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }

	var role string
	var port int
	var followers []string
	var peers []string
	var id string
	var electionPort int
	var electionIntervalMS int
	var failureThreshold int
	var capacity int
	var evictionIntervalMS int

	fs.StringVar(&role, "role", "primary", "replication role: primary or follower")
	fs.IntVar(&port, "port", 5000, "listen port")
	fs.Var(stringListFlag{&followers}, "followers", "follower base URL, repeatable")
	fs.Var(stringListFlag{&peers}, "peers", "election peer host:port[=priority], repeatable")
	fs.StringVar(&id, "id", "", "node identity (default: random)")
	fs.IntVar(&electionPort, "election-port", 0, "health probe listen port (default: --port)")
	fs.IntVar(&electionIntervalMS, "election-interval", 1000, "election tick interval in ms")
	fs.IntVar(&failureThreshold, "failure-threshold", 3, "consecutive probe failures before electing")
	fs.IntVar(&capacity, "capacity", 10000, "maximum live cache entries")
	fs.IntVar(&evictionIntervalMS, "eviction-interval", 1000, "sweeper wake period in ms")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	r := Role(role)
	if r != RolePrimary && r != RoleFollower {
		return nil, fmt.Errorf("config: invalid --role %q, want primary or follower", role)
	}

	parsedPeers, err := parsePeers(peers)
	if err != nil {
		return nil, err
	}

	if id == "" {
		id = uuid.New().String()
	}

	if electionPort == 0 {
		electionPort = port
	}

	return &Config{
		Role:             r,
		Port:             port,
		Followers:        followers,
		Peers:            parsedPeers,
		ID:               id,
		ElectionPort:     electionPort,
		ElectionInterval: time.Duration(electionIntervalMS) * time.Millisecond,
		FailureThreshold: failureThreshold,
		Capacity:         capacity,
		EvictionInterval: time.Duration(evictionIntervalMS) * time.Millisecond,
	}, nil
}

// parsePeers parses "host:port=priority" or "host:port" (priority 0) specs.
func parsePeers(specs []string) ([]Peer, error) {
	peers := make([]Peer, 0, len(specs))
	for _, spec := range specs {
		url := spec
		priority := 0

		if idx := strings.LastIndex(spec, "="); idx != -1 {
			url = spec[:idx]
			p, err := strconv.Atoi(spec[idx+1:])
			if err != nil {
				return nil, fmt.Errorf("config: invalid --peers priority in %q: %w", spec, err)
			}
			priority = p
		}
		if url == "" {
			return nil, fmt.Errorf("config: invalid --peers entry %q", spec)
		}
		peers = append(peers, Peer{URL: url, Priority: priority})
	}
	return peers, nil
}
