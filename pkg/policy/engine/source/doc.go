// Package source provides policy sources for the evaluation engine.
//
// A policy source loads the IR document a VM evaluates and reports changes
// to it. Three implementations are provided.
//
// # File Source
//
// FileSource reads one .json, .yaml or .yml document. Decoded policies are
// kept in an LRU cache keyed by the document digest, and WithWatch enables
// fsnotify-based change detection:
//
//	src, err := source.NewFileSource("policy.json", logger,
//	    source.WithWatch(true),
//	    source.WithCacheSize(8),
//	)
//	vm, err := engine.NewVM(engine.DefaultConfig(), src, logger)
//
// # Manager Source
//
// ManagerSource serves a named policy from a manager.DefaultPolicyManager,
// which may hold a whole directory of documents and reload on a schedule:
//
//	src := source.NewManagerSource(mgr, "authz")
//
// # In-Memory Source
//
// MemorySource holds a decoded policy. SetPolicy notifies watching VMs:
//
//	src := source.NewMemorySource(policy)
//	vm, _ := engine.NewVM(nil, src, logger)
//	src.SetPolicy(updated) // vm reloads
package source
