package replication

import (
	"sync"

	"golang.org/x/exp/slices"
)

// followerSet is an append-only, mutex-protected list of follower base
// URLs. Removal is explicitly out of scope per the replication contract:
// a follower that goes away is simply one whose sends keep failing.
type followerSet struct {
	mu   sync.RWMutex
	urls []string
}

func newFollowerSet(initial []string) *followerSet {
	fs := &followerSet{}
	fs.urls = append(fs.urls, initial...)
	return fs
}

func (fs *followerSet) add(url string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.urls = append(fs.urls, url)
}

func (fs *followerSet) snapshot() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return slices.Clone(fs.urls)
}
