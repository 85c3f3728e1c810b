package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/manager"
)

// ManagerSource serves one named policy out of a policy manager. The manager
// owns loading, validation and watching; the VM follows its successful
// reloads.
type ManagerSource struct {
	manager *manager.DefaultPolicyManager
	name    string
}

// NewManagerSource creates a source for the policy registered as name. An
// empty name selects the only registered policy.
func NewManagerSource(m *manager.DefaultPolicyManager, name string) *ManagerSource {
	return &ManagerSource{manager: m, name: name}
}

// LoadPolicy returns the manager's current policy, loading the manager first
// if nothing is registered yet.
func (s *ManagerSource) LoadPolicy(ctx context.Context) (*ir.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.manager.GetRegistry().Count() == 0 {
		if err := s.manager.LoadPolicies(); err != nil {
			return nil, err
		}
	}

	if s.name != "" {
		return s.manager.GetPolicy(s.name)
	}

	all := s.manager.GetAllPolicies()
	if len(all) != 1 {
		names := make([]string, len(all))
		for i, p := range all {
			names[i] = p.Name
		}
		return nil, fmt.Errorf("policy name required: manager holds %d policies (%s)", len(all), strings.Join(names, ", "))
	}
	return all[0].Policy, nil
}

// Watch runs the manager's watch loop and forwards every reload attempt. A
// failed reload is forwarded as an error event so the VM keeps its policy.
func (s *ManagerSource) Watch(ctx context.Context) (<-chan engine.PolicyEvent, error) {
	em := &emitter{ch: make(chan engine.PolicyEvent, 8)}

	s.manager.OnReload(func(ev manager.ReloadEvent, err error) {
		if err != nil {
			em.send(ctx, engine.PolicyEvent{Path: ev.FilePath, Error: err})
			return
		}
		// The registry has already been swapped, whatever the file event was.
		em.send(ctx, engine.PolicyEvent{Type: engine.PolicyEventModified, Path: ev.FilePath})
	})

	go func() {
		defer em.close()
		if err := s.manager.Watch(ctx); err != nil && !errors.Is(err, manager.ErrWatchDisabled) {
			em.send(ctx, engine.PolicyEvent{Error: err})
		}
		<-ctx.Done()
	}()

	return em.ch, nil
}

var _ engine.PolicySource = (*ManagerSource)(nil)
