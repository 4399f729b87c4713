package facade

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torua/cachenode/internal/cacheengine"
	"github.com/torua/cachenode/internal/logging"
	"github.com/torua/cachenode/internal/replication"
)

// keyPattern mirrors the routing-level key constraint the cache API has
// always had: a key is one or more word characters, nothing else. Go's
// ServeMux {key} wildcard matches any non-"/" byte sequence, so this guard
// enforces the narrower contract the mux itself does not.
var keyPattern = regexp.MustCompile(`^\w+$`)

// Facade maps the HTTP cache API onto a cacheengine.Cache and, once a
// Fanout has been attached, propagates successful PUT/DELETE mutations to
// followers.
type Facade struct {
	cache  *cacheengine.Cache
	fanout atomic.Pointer[replication.Fanout]
	log    logging.Logger

	replMu   sync.Mutex
	replTail chan struct{} // closed when the last queued replication finishes
}

// New builds a Facade over cache. Replication is disabled until
// AttachFanout is called.
func New(cache *cacheengine.Cache, log logging.Logger) *Facade {
	return &Facade{cache: cache, log: log}
}

// AttachFanout wires fo in and enables replication on subsequent
// mutations. It is the promotion callback's only job: flip this one
// pointer, never rebuild the Facade.
func (f *Facade) AttachFanout(fo *replication.Fanout) {
	f.fanout.Store(fo)
}

// DetachFanout disables replication without discarding the Facade.
func (f *Facade) DetachFanout() {
	f.fanout.Store(nil)
}

// Replicating reports whether a Fanout is currently attached.
func (f *Facade) Replicating() bool {
	return f.fanout.Load() != nil
}

// RegisterRoutes wires the cache API and health endpoint onto mux using
// Go's method-and-pattern ServeMux matching.
func (f *Facade) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /cache/{key}", f.handleGet)
	mux.HandleFunc("PUT /cache/{key}", f.handlePut)
	mux.HandleFunc("DELETE /cache/{key}", f.handleDelete)
	mux.HandleFunc("GET /healthz", f.handleHealthz)
}

type putRequest struct {
	Value *string `json:"value"`
	TTL   int64   `json:"ttl"`
}

func (f *Facade) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !keyPattern.MatchString(key) {
		http.NotFound(w, r)
		return
	}
	value, ok := f.cache.Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": string(value)})
}

func (f *Facade) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !keyPattern.MatchString(key) {
		http.NotFound(w, r)
		return
	}

	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'value'"})
		return
	}

	ttl := time.Duration(req.TTL) * time.Millisecond
	f.cache.Put(key, []byte(*req.Value), ttl)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	f.replicate(replication.Mutation{Op: replication.OpPut, Key: key, Value: []byte(*req.Value), TTL: ttl})
}

func (f *Facade) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !keyPattern.MatchString(key) {
		http.NotFound(w, r)
		return
	}
	if !f.cache.Delete(key) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	f.replicate(replication.Mutation{Op: replication.OpDelete, Key: key})
}

func (f *Facade) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// replicate fans a mutation out in its own goroutine so the client response,
// already written above, is never held up by follower latency. Each
// goroutine waits for the previously queued one to finish, so followers
// receive mutations in the order replicate was called.
func (f *Facade) replicate(m replication.Mutation) {
	fo := f.fanout.Load()
	if fo == nil {
		return
	}
	f.replMu.Lock()
	prev := f.replTail
	done := make(chan struct{})
	f.replTail = done
	f.replMu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		fo.Send(context.Background(), m)
	}()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
