package source

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/policy/engine"
)

// MemorySource is an in-memory policy source for tests and embedding.
// SetPolicy notifies active watchers, so a VM built on a MemorySource
// reloads the same way it does for a watched file.
type MemorySource struct {
	mu       sync.RWMutex
	policy   *ir.Policy
	err      error
	watchers []*memoryWatch
}

type memoryWatch struct {
	ctx context.Context
	em  *emitter
}

// NewMemorySource creates a new in-memory policy source.
func NewMemorySource(policy *ir.Policy) *MemorySource {
	return &MemorySource{policy: policy}
}

// LoadPolicy returns the policy stored in memory.
func (s *MemorySource) LoadPolicy(ctx context.Context) (*ir.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.policy == nil {
		return nil, fmt.Errorf("memory source holds no policy")
	}
	return s.policy, nil
}

// Watch returns a channel that receives a modified event on every SetPolicy.
// The channel is closed when the context is cancelled.
func (s *MemorySource) Watch(ctx context.Context) (<-chan engine.PolicyEvent, error) {
	w := &memoryWatch{ctx: ctx, em: &emitter{ch: make(chan engine.PolicyEvent, 8)}}

	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, other := range s.watchers {
			if other == w {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		w.em.close()
	}()

	return w.em.ch, nil
}

// SetPolicy replaces the stored policy and notifies watchers.
func (s *MemorySource) SetPolicy(policy *ir.Policy) {
	s.mu.Lock()
	s.policy = policy
	s.err = nil
	watchers := append([]*memoryWatch(nil), s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w.em.send(w.ctx, engine.PolicyEvent{Type: engine.PolicyEventModified, Path: "memory"})
	}
}

// SetError makes subsequent loads fail with err until the next SetPolicy.
// Watchers are notified so the failure reaches the VM's reload path.
func (s *MemorySource) SetError(err error) {
	s.mu.Lock()
	s.err = err
	watchers := append([]*memoryWatch(nil), s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w.em.send(w.ctx, engine.PolicyEvent{Type: engine.PolicyEventModified, Path: "memory"})
	}
}

var _ engine.PolicySource = (*MemorySource)(nil)
