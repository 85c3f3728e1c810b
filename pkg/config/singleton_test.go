package config

import (
	"strings"
	"sync"
	"testing"
)

func TestLoad_SetsActive(t *testing.T) {
	Store(nil)
	t.Cleanup(func() { Store(nil) })

	cfg, err := Load(writeConfig(t, "policy:\n  path: \"./a.json\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if Current() != cfg {
		t.Error("Load() did not make the configuration active")
	}
	if Current().Policy.Path != "./a.json" {
		t.Errorf("Policy.Path = %q, want %q", Current().Policy.Path, "./a.json")
	}

	if _, err := Load(writeConfig(t, "policy:\n  path: \"./b.json\"\n")); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if Current().Policy.Path != "./b.json" {
		t.Errorf("second Load() left Policy.Path = %q", Current().Policy.Path)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(func() { Store(nil) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Policy.Path != "./policy.json" {
		t.Errorf("default Policy.Path = %q", cfg.Policy.Path)
	}
}

func TestLoad_FailureKeepsActive(t *testing.T) {
	prev := NewTestConfig().Build()
	Store(prev)
	t.Cleanup(func() { Store(nil) })

	_, err := Load(writeConfig(t, "engine:\n  max_call_depth: 0\n  max_instructions: -1\n"))
	if err == nil {
		t.Fatal("Load() of an invalid config succeeded")
	}
	if !strings.Contains(err.Error(), "failed to load configuration") {
		t.Errorf("error = %v", err)
	}
	if Current() != prev {
		t.Error("failed Load() replaced the active configuration")
	}

	if _, err := Load(writeConfig(t, "engine:\n  max_call_depth: 7\n")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if Current().Engine.MaxCallDepth != 7 {
		t.Errorf("MaxCallDepth = %d, want 7", Current().Engine.MaxCallDepth)
	}
}

func TestMustCurrent_Panics(t *testing.T) {
	Store(nil)

	defer func() {
		if recover() == nil {
			t.Error("MustCurrent() did not panic without an active configuration")
		}
	}()
	MustCurrent()
}

func TestCurrent_Concurrent(t *testing.T) {
	Store(NewTestConfig().Build())
	t.Cleanup(func() { Store(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				Store(NewTestConfig().Build())
				return
			}
			if Current() == nil {
				t.Error("Current() returned nil")
			}
		}()
	}
	wg.Wait()
}
