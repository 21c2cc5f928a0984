package runtime

import (
	"context"
	"sync"

	"github.com/cogrob/rorg/internal/rorgerr"
)

// Simulator is an in-process Driver with no external dependency: handles
// live only in a map, and Stats is never meaningful for it — simulated
// services derive their usage numbers directly from
// ServiceOptions.SimulationParameters instead of from the driver.
type Simulator struct {
	mu      sync.Mutex
	handles map[string]Handle
	started map[string]bool
}

// NewSimulator returns an empty simulator driver.
func NewSimulator() *Simulator {
	return &Simulator{
		handles: make(map[string]Handle),
		started: make(map[string]bool),
	}
}

func (s *Simulator) Create(ctx context.Context, opts ContainerOptions) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handles[opts.Name]; exists {
		return Handle{}, rorgerr.Internalf("simulated container %s already exists", opts.Name)
	}
	h := Handle{ID: "sim-" + opts.Name, Name: opts.Name}
	s.handles[opts.Name] = h
	return h, nil
}

func (s *Simulator) Get(ctx context.Context, name string) (Handle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	return h, ok, nil
}

func (s *Simulator) Start(ctx context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[h.Name] = true
	return nil
}

func (s *Simulator) Stop(ctx context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[h.Name] = false
	return nil
}

func (s *Simulator) Restart(ctx context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[h.Name] = true
	return nil
}

func (s *Simulator) Remove(ctx context.Context, h Handle, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, h.Name)
	delete(s.started, h.Name)
	return nil
}

// Stats always fails for the simulator: callers in simulation run mode
// must never reach it, since CPU/memory are synthesized from
// SimulationParameters instead.
func (s *Simulator) Stats(ctx context.Context, h Handle) (StatsDict, error) {
	return StatsDict{}, rorgerr.Internalf("simulator driver does not support Stats(%s); use SimulationParameters", h.Name)
}

// IsStarted reports whether Start was called more recently than Stop for
// the named handle; exposed for tests.
func (s *Simulator) IsStarted(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started[name]
}
