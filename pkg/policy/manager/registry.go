package manager

import (
	"sort"
	"strings"
	"sync"
	"time"

	"mercator-hq/irvm/pkg/ir"
)

// PolicyRegistry is a thread-safe in-memory storage for loaded policies.
// It uses copy-on-write semantics for atomic updates.
type PolicyRegistry struct {
	mu       sync.RWMutex
	policies map[string]*LoadedPolicy
	version  string
	loadTime time.Time
}

// NewPolicyRegistry creates a new empty policy registry.
func NewPolicyRegistry() *PolicyRegistry {
	r := &PolicyRegistry{
		policies: make(map[string]*LoadedPolicy),
		loadTime: time.Now(),
	}
	r.updateVersion()
	return r
}

func checkEntry(op string, p *LoadedPolicy) error {
	if p == nil || p.Policy == nil {
		return &RegistryError{
			Operation: op,
			Message:   "policy cannot be nil",
		}
	}
	if p.Name == "" {
		return &RegistryError{
			Operation: op,
			Message:   "policy name cannot be empty",
		}
	}
	return nil
}

// Register adds a policy to the registry.
// If a policy with the same name already exists, it will be replaced.
func (r *PolicyRegistry) Register(p *LoadedPolicy) error {
	if err := checkEntry("register", p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies[p.Name] = p
	r.updateVersion()

	return nil
}

// Unregister removes a policy from the registry by name.
func (r *PolicyRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.policies[name]; !ok {
		return &RegistryError{
			PolicyName: name,
			Operation:  "unregister",
			Message:    "policy not found",
		}
	}

	delete(r.policies, name)
	r.updateVersion()

	return nil
}

// Get retrieves a policy by name.
func (r *PolicyRegistry) Get(name string) (*LoadedPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[name]
	return p, ok
}

// GetAllSorted retrieves all policies sorted by name.
func (r *PolicyRegistry) GetAllSorted() []*LoadedPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policies := make([]*LoadedPolicy, 0, len(r.policies))
	for _, name := range r.sortedNames() {
		policies = append(policies, r.policies[name])
	}

	return policies
}

// Count returns the number of policies in the registry.
func (r *PolicyRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.policies)
}

// Clear removes all policies from the registry.
func (r *PolicyRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies = make(map[string]*LoadedPolicy)
	r.updateVersion()
}

// Replace atomically replaces the entire policy set with a new set.
// This is used for atomic hot-reload operations.
func (r *PolicyRegistry) Replace(policies []*LoadedPolicy) error {
	if policies == nil {
		return &RegistryError{
			Operation: "replace",
			Message:   "policies cannot be nil",
		}
	}

	newPolicies := make(map[string]*LoadedPolicy, len(policies))
	for _, p := range policies {
		if err := checkEntry("replace", p); err != nil {
			return err
		}
		newPolicies[p.Name] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies = newPolicies
	r.loadTime = time.Now()
	r.updateVersion()

	return nil
}

// GetVersion returns the current version of the registry.
// The version changes whenever policy content is added, removed, or replaced.
func (r *PolicyRegistry) GetVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}

// GetLoadTime returns the timestamp when policies were last replaced.
func (r *PolicyRegistry) GetLoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadTime
}

// GetMetadata returns metadata for all policies in the registry, sorted by name.
func (r *PolicyRegistry) GetMetadata() []PolicyMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadata := make([]PolicyMetadata, 0, len(r.policies))
	for _, name := range r.sortedNames() {
		p := r.policies[name]
		stmts := 0
		for _, n := range ir.StmtCounts(p.Policy) {
			stmts += n
		}
		metadata = append(metadata, PolicyMetadata{
			Name:      p.Name,
			FilePath:  p.FilePath,
			Digest:    p.Digest,
			LoadedAt:  p.LoadedAt,
			Plans:     p.Policy.PlanNames(),
			FuncCount: len(p.Policy.FuncList()),
			StmtCount: stmts,
		})
	}

	return metadata
}

// HasPolicy checks if a policy with the given name exists in the registry.
func (r *PolicyRegistry) HasPolicy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.policies[name]
	return ok
}

// GetPolicyNames returns a sorted list of all policy names in the registry.
func (r *PolicyRegistry) GetPolicyNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames()
}

// GetStats returns statistics about the policies in the registry.
func (r *PolicyRegistry) GetStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		PolicyCount: len(r.policies),
		LoadTime:    r.loadTime,
		Version:     r.version,
	}

	for _, p := range r.policies {
		stats.PlanCount += len(p.Policy.PlanList())
		stats.FuncCount += len(p.Policy.FuncList())
	}

	return stats
}

// sortedNames must be called with the lock held.
func (r *PolicyRegistry) sortedNames() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// updateVersion recomputes the registry version from the names and content
// digests of the registered policies. Must be called with the write lock held.
func (r *PolicyRegistry) updateVersion() {
	var b strings.Builder
	for _, name := range r.sortedNames() {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(r.policies[name].Digest)
		b.WriteByte('\n')
	}
	r.version = ir.DigestBytes([]byte(b.String()))[:16]
}

// RegistryStats contains statistics about the policy registry.
type RegistryStats struct {
	PolicyCount int
	PlanCount   int
	FuncCount   int
	LoadTime    time.Time
	Version     string
}
