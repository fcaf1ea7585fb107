package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driving"
	"github.com/custodia-labs/ragdex/internal/logger"
)

// Phase is the engine lifecycle state.
type Phase int

const (
	// PhaseStarting means the engine is loading its model and on-disk
	// state. Engine-dependent operations report "initializing".
	PhaseStarting Phase = iota

	// PhaseReady means the engine is serving.
	PhaseReady

	// PhaseFailed means initialisation failed; the failure is sticky.
	PhaseFailed
)

// String returns the phase name as reported by status endpoints.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Handle is a thread-safe cell holding the engine and its lifecycle
// phase. Construction runs in the background at process startup;
// until it completes, dependent operations get ErrEngineNotReady
// instead of blocking, and health endpoints stay answerable.
type Handle struct {
	mu     sync.RWMutex
	phase  Phase
	engine driving.Engine
	err    error
}

// NewHandle creates a handle in the starting phase.
func NewHandle() *Handle {
	return &Handle{phase: PhaseStarting}
}

// Start runs build in a goroutine and resolves the handle to ready or
// failed with its outcome.
func (h *Handle) Start(build func() (driving.Engine, error)) {
	go func() {
		engine, err := build()
		if err != nil {
			logger.Error("Engine initialisation failed: %v", err)
			h.setFailed(err)
			return
		}
		h.setReady(engine)
	}()
}

// Engine returns the engine once ready. Before that it fails with an
// error wrapping domain.ErrEngineNotReady describing the phase.
func (h *Handle) Engine() (driving.Engine, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch h.phase {
	case PhaseReady:
		return h.engine, nil
	case PhaseFailed:
		return nil, fmt.Errorf("%w: initialisation failed: %v", domain.ErrEngineNotReady, h.err)
	default:
		return nil, fmt.Errorf("%w: still initializing", domain.ErrEngineNotReady)
	}
}

// Phase returns the current lifecycle phase.
func (h *Handle) Phase() Phase {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.phase
}

// Err returns the initialisation failure, if any.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *Handle) setReady(engine driving.Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phase = PhaseReady
	h.engine = engine
}

func (h *Handle) setFailed(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phase = PhaseFailed
	h.err = err
}
