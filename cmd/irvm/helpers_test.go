package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/engine/source"
	"mercator-hq/irvm/pkg/telemetry/logging"
	"mercator-hq/irvm/pkg/value"
)

// executeCommand runs the root command with args and captures its output.
// Flags are reset first because cobra keeps flag values between runs.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func valueJSON(v value.Value) (string, error) {
	b, err := value.MarshalJSON(v)
	return string(b), err
}

func newTestVM(t *testing.T, policy *ir.Policy) *engine.VM {
	t.Helper()
	vm, err := engine.NewVM(engine.DefaultConfig(), source.NewMemorySource(policy), logging.Discard())
	if err != nil {
		t.Fatalf("NewVM() error = %v", err)
	}
	t.Cleanup(func() { _ = vm.Close() })
	return vm
}
