package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/torua/cachenode/internal/cacheengine"
	"github.com/torua/cachenode/internal/config"
	"github.com/torua/cachenode/internal/election"
	"github.com/torua/cachenode/internal/facade"
	"github.com/torua/cachenode/internal/httpapi"
	"github.com/torua/cachenode/internal/logging"
	"github.com/torua/cachenode/internal/replication"
)

// Supervisor owns a single cachenode process's lifecycle: it builds the
// Cache Engine, Service Façade, Replication Fanout, and Election
// Coordinator, wires the promotion callback between them, and starts and
// stops the HTTP listener.
type Supervisor struct {
	cfg    *config.Config
	log    logging.Logger
	cache  *cacheengine.Cache
	facade *facade.Facade
	fanout *replication.Fanout
	coord  *election.Coordinator
	server *http.Server
}

// New builds a Supervisor from cfg without starting anything.
func New(cfg *config.Config, log logging.Logger) *Supervisor {
	cache := cacheengine.New(cfg.Capacity, cfg.EvictionInterval)
	fa := facade.New(cache, log)
	fanout := replication.New(cfg.Followers, log)

	s := &Supervisor{
		cfg:    cfg,
		log:    log,
		cache:  cache,
		facade: fa,
		fanout: fanout,
	}

	selfURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.ElectionPort)
	peers := make([]election.Peer, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peers = append(peers, election.Peer{URL: p.URL, Priority: p.Priority})
	}

	promote := func() {
		log.WithFields(logging.Fields{"node": cfg.ID}).Info("promoted to primary")
		fa.AttachFanout(fanout)
	}
	demote := func() {
		log.WithFields(logging.Fields{"node": cfg.ID}).Info("demoted from primary")
		fa.DetachFanout()
	}

	initialPrimary := ""
	if cfg.Role == config.RolePrimary {
		initialPrimary = selfURL
	}

	s.coord = election.New(election.Config{
		SelfURL:          selfURL,
		Peers:            peers,
		InitialPrimary:   initialPrimary,
		Interval:         cfg.ElectionInterval,
		FailureThreshold: cfg.FailureThreshold,
		Promote:          promote,
		Demote:           demote,
		Log:              log,
	})

	if cfg.Role == config.RolePrimary {
		fa.AttachFanout(fanout)
	}

	return s
}

// CurrentLeader returns the election coordinator's currently agreed
// primary URL, or "" if none has been decided yet.
func (s *Supervisor) CurrentLeader() string {
	return s.coord.GetLeader()
}

// Mux builds the HTTP handler for this node: the cache API, health check,
// and metrics exposition.
func (s *Supervisor) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	s.facade.RegisterRoutes(mux)
	mux.HandleFunc("GET /metrics", httpapi.MetricsHandler(s.cache))
	return mux
}

// Run starts the HTTP listener and the election coordinator, then blocks
// until ctx is cancelled, at which point it shuts down the coordinator,
// the sweeper, and the listener in that order.
func (s *Supervisor) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logging.Fields{"port": s.cfg.Port, "role": string(s.cfg.Role)}).Info("listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	s.coord.Start()

	select {
	case err := <-errCh:
		s.shutdown()
		return err
	case <-ctx.Done():
		s.shutdown()
		return <-errCh
	}
}

func (s *Supervisor) shutdown() {
	s.coord.Stop()
	s.cache.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("listener shutdown error: %v", err)
	}
	s.log.Info("cachenode stopped")
}
