// Package manager provides policy management for compiled IR documents:
// loading them from the file system, validating them, keeping them in a
// versioned registry, and reloading them when they change.
//
// # Core Components
//
// PolicyLoader reads single files or directory trees. Each file is checked
// for size and UTF-8 encoding, run through the JSON Schema pass, decoded
// (JSON or YAML) and run through the semantic pass.
//
// PolicyRegistry holds loaded policies by name with copy-on-write
// replacement. Its version is derived from the content digests of the
// registered policies, so reformatting a file does not change it.
//
// FileWatcher monitors the file system with fsnotify and debounces bursts of
// events into a single reload.
//
// ReloadScheduler reloads on a cron schedule for sources that produce no file
// system events.
//
// # Basic Usage
//
//	cfg := config.NewDefaultConfig().Policy
//	cfg.Path = "policies/"
//
//	mgr, err := manager.NewPolicyManager(&cfg, validator.NewSemanticValidator(nil), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := mgr.LoadPolicies(); err != nil {
//	    log.Fatal(err)
//	}
//
//	authz, err := mgr.GetPolicy("authz")
//
// # Hot Reload
//
// With policy.watch or policy.reload_schedule configured, Watch blocks and
// reloads on change. A failed reload leaves the previous policies active;
// callbacks registered with OnReload observe every attempt:
//
//	mgr.OnReload(func(ev manager.ReloadEvent, err error) {
//	    log.Printf("reload (%s): %v", ev.Type, err)
//	})
//	go mgr.Watch(ctx)
//
// Policy names are file names without their extension. In a directory two
// files with the same name (allow.json and allow.yaml) collide; the second is
// reported as an error and skipped.
package manager
