package service

import (
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// GateState is the readiness of the login machinery.
type GateState string

const (
	GateInitializing GateState = "initializing"
	GateReady        GateState = "ready"
	GateFailed       GateState = "failed"
)

// Gate holds the registered login strategies and the startup state.
// It moves Initializing -> Ready on the first Register and Initializing -> Failed on Fail.
type Gate struct {
	mu         sync.RWMutex
	state      GateState
	cause      error
	strategies map[string]ports.AuthProvider
	settled    chan struct{}
	once       sync.Once
}

// NewGate returns a gate in the Initializing state.
func NewGate() *Gate {
	return &Gate{
		state:      GateInitializing,
		strategies: make(map[string]ports.AuthProvider),
		settled:    make(chan struct{}),
	}
}

// Register installs p under name, replacing any earlier strategy with that name.
func (g *Gate) Register(name string, p ports.AuthProvider) error {
	if name == "" || p == nil {
		return errors.New("strategy name and provider are required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GateFailed {
		return fmt.Errorf("register %q: %w", name, g.cause)
	}
	g.strategies[name] = p
	g.state = GateReady
	g.settle()
	return nil
}

// Fail records a fatal startup error. Later calls keep the first cause.
func (g *Gate) Fail(err error) {
	if err == nil {
		err = domainauth.ErrDiscoveryFailed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GateFailed {
		return
	}
	g.state = GateFailed
	g.cause = err
	g.settle()
}

func (g *Gate) settle() { g.once.Do(func() { close(g.settled) }) }

// Strategy returns the provider registered under name or domainauth.ErrNotReady.
func (g *Gate) Strategy(name string) (ports.AuthProvider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.strategies[name]
	if !ok || g.state != GateReady {
		return nil, domainauth.ErrNotReady
	}
	return p, nil
}

// State reports the current state and, when failed, its cause.
func (g *Gate) State() (GateState, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state, g.cause
}

// Settled is closed once the gate leaves Initializing.
func (g *Gate) Settled() <-chan struct{} { return g.settled }
