package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/irvm/pkg/cli"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/value"
)

var testFlags struct {
	policyFile string
	testsFiles []string
	run        string
	format     string
}

var testCmd = &cobra.Command{
	Use:   "test [suite...]",
	Short: "Run policy test suites",
	Long: `Execute YAML test suites against a compiled policy.

Each test evaluates one plan and compares the result set, or the kind of
exception raised, with its expectation. Result sets are compared entry by
entry in order; numbers compare by value, so 2 and 2.0 are equal.

Test Suite Format (YAML):
  policy: allow.json          # relative to the suite file; --policy overrides
  plan: example/allow         # default plan for the tests below
  tests:
    - name: "x is 2"
      input: {x: 2}
      data: {}
      expect:
        results: [{result: true}]
    - name: "conflicting assignment"
      plan: example/conflict
      expect:
        error: conflict       # exception kind, or text contained in the error

An expectation of results: [] asserts an empty result set. Exception kinds
are conflict, type, unknown_function, builtin, call_depth,
instruction_limit, cancelled, static_pool, internal and plan_not_found.

Examples:
  # Run one suite
  irvm test policy_test.yaml

  # Run the matching tests of several suites against another policy build
  irvm test -t a_test.yaml -t b_test.yaml --policy build/policy.json --run allow`,
	RunE: withApp("test", runTests),
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testFlags.policyFile, "policy", "p", "", "policy file or directory (overrides the suite's policy)")
	testCmd.Flags().StringArrayVarP(&testFlags.testsFiles, "tests", "t", nil, "test suite file (repeatable)")
	testCmd.Flags().StringVar(&testFlags.run, "run", "", "run only tests whose name matches this regular expression")
	testCmd.Flags().StringVarP(&testFlags.format, "format", "o", "text", "output format: text, json")
}

// TestSuite is a collection of test cases for one policy.
type TestSuite struct {
	// Policy is the policy path, relative to the suite file.
	Policy string     `yaml:"policy"`
	Plan   string     `yaml:"plan"`
	Tests  []TestCase `yaml:"tests"`

	path string
}

// TestCase is a single policy test case.
type TestCase struct {
	Name   string          `yaml:"name"`
	Plan   string          `yaml:"plan"`
	Input  any             `yaml:"input"`
	Data   any             `yaml:"data"`
	Expect TestExpectation `yaml:"expect"`
}

// TestExpectation is the expected outcome of a test case. With neither
// field set, the test passes when evaluation succeeds.
type TestExpectation struct {
	// Results is the expected result set; nil skips the comparison.
	Results *[]any `yaml:"results"`

	// Error is an exception kind or a substring of the error message.
	Error string `yaml:"error"`
}

// TestResult is the outcome of executing a single test case.
type TestResult struct {
	Suite    string        `json:"suite"`
	TestName string        `json:"name"`
	Plan     string        `json:"plan"`
	Passed   bool          `json:"passed"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// testReport is the outcome of a test run.
type testReport struct {
	Results []TestResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

func runTests(cmd *cobra.Command, args []string, a *app) error {
	format, err := cli.ParseOutputFormat(testFlags.format)
	if err != nil {
		return err
	}

	files := append(append([]string(nil), testFlags.testsFiles...), args...)
	if len(files) == 0 {
		return cli.NewConfigError("tests", "no test suite given: pass suite files as arguments or with --tests")
	}

	var filter *regexp.Regexp
	if testFlags.run != "" {
		filter, err = regexp.Compile(testFlags.run)
		if err != nil {
			return cli.NewConfigError("run", err.Error())
		}
	}

	ctx, stop := a.context(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	style := cli.NewStyler(out)
	text := format != cli.FormatJSON

	if text {
		fmt.Fprintln(out, "Running policy tests...")
	}

	report := &testReport{}
	for _, file := range files {
		suite, err := loadTestSuite(file)
		if err != nil {
			return cli.NewCommandError("test", fmt.Errorf("failed to load test cases: %w", err))
		}
		if len(suite.Tests) == 0 {
			return cli.NewCommandError("test", fmt.Errorf("no test cases found in %s", file))
		}

		vm, err := a.openEngine(suitePolicy(suite, testFlags.policyFile), "")
		if err != nil {
			return cli.NewCommandError("test", fmt.Errorf("failed to create policy engine: %w", err))
		}

		if text {
			fmt.Fprintf(out, "\n%s\n", style.Bold(file))
		}
		for _, tc := range suite.Tests {
			if filter != nil && !filter.MatchString(tc.Name) {
				continue
			}
			result := runTestCase(ctx, vm, suite, tc)
			report.Results = append(report.Results, result)
			if result.Passed {
				report.Passed++
			} else {
				report.Failed++
			}
			if text {
				printTestResult(out, style, result)
			}
		}
	}

	if text {
		printTestSummary(out, report)
	} else if err := cli.NewFormatter(cli.FormatJSON).FormatTo(out, report); err != nil {
		return err
	}

	if report.Failed > 0 {
		return cli.NewCommandError("test", fmt.Errorf("%d test failures", report.Failed))
	}
	return nil
}

func loadTestSuite(path string) (*TestSuite, error) {
	// #nosec G304 - the test command reads user-provided suite files by design.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	suite.path = path

	for i, tc := range suite.Tests {
		if tc.Name == "" {
			suite.Tests[i].Name = fmt.Sprintf("test_%d", i+1)
		}
	}
	return &suite, nil
}

// suitePolicy resolves the policy path of a suite. An override wins; a
// relative suite policy is resolved against the suite's directory.
func suitePolicy(suite *TestSuite, override string) string {
	if override != "" {
		return override
	}
	if suite.Policy == "" || filepath.IsAbs(suite.Policy) {
		return suite.Policy
	}
	return filepath.Join(filepath.Dir(suite.path), suite.Policy)
}

func runTestCase(ctx context.Context, vm engine.Engine, suite *TestSuite, tc TestCase) (result TestResult) {
	start := time.Now()

	plan := tc.Plan
	if plan == "" {
		plan = suite.Plan
	}
	result = TestResult{
		Suite:    suite.path,
		TestName: tc.Name,
		Plan:     plan,
	}
	defer func() { result.Duration = time.Since(start) }()

	input, err := documentFromTree(tc.Input)
	if err != nil {
		result.Error = fmt.Sprintf("invalid input: %v", err)
		return result
	}
	data, err := documentFromTree(tc.Data)
	if err != nil {
		result.Error = fmt.Sprintf("invalid data: %v", err)
		return result
	}

	var want engine.ResultSet
	if tc.Expect.Results != nil {
		want, err = expectedResultSet(*tc.Expect.Results)
		if err != nil {
			result.Error = fmt.Sprintf("invalid expectation: %v", err)
			return result
		}
		result.Expected = formatResultSet(want)
	}

	res, evalErr := vm.Eval(ctx, engine.EvalRequest{Plan: plan, Input: input, Data: data})

	if tc.Expect.Error != "" {
		result.Expected = "error " + tc.Expect.Error
		if evalErr == nil {
			result.Actual = formatResultSet(res.ResultSet)
			return result
		}
		result.Actual = "error " + errorKind(evalErr)
		result.Passed = errorMatches(evalErr, tc.Expect.Error)
		if !result.Passed {
			result.Error = evalErr.Error()
		}
		return result
	}

	if evalErr != nil {
		result.Error = evalErr.Error()
		return result
	}
	result.Plan = res.Plan
	result.Actual = formatResultSet(res.ResultSet)
	result.Passed = tc.Expect.Results == nil || res.ResultSet.Equal(want)
	return result
}

func expectedResultSet(entries []any) (engine.ResultSet, error) {
	rs := make(engine.ResultSet, 0, len(entries))
	for _, entry := range entries {
		v, err := value.FromInterface(entry)
		if err != nil {
			return nil, err
		}
		rs = append(rs, v)
	}
	return rs, nil
}

func formatResultSet(rs engine.ResultSet) string {
	b, err := rs.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

// errorKind classifies an evaluation error the way suites name it.
func errorKind(err error) string {
	var exc *engine.Exception
	var notFound *engine.PlanNotFoundError
	switch {
	case errors.As(err, &exc):
		return exc.Kind()
	case errors.As(err, &notFound):
		return "plan_not_found"
	case errors.Is(err, engine.ErrCancelled):
		return "cancelled"
	}
	return "error"
}

func errorMatches(err error, want string) bool {
	return errorKind(err) == want || strings.Contains(err.Error(), want)
}

func printTestResult(w io.Writer, style *cli.Styler, r TestResult) {
	if r.Passed {
		fmt.Fprintf(w, "%s %s %s\n", style.Pass(), r.TestName,
			style.Dim(fmt.Sprintf("(%.1fms)", r.Duration.Seconds()*1000)))
		return
	}
	fmt.Fprintf(w, "%s %s\n", style.Fail(), r.TestName)
	if r.Expected != "" || r.Actual != "" {
		fmt.Fprintf(w, "  Expected: %s\n", r.Expected)
		fmt.Fprintf(w, "  Actual:   %s\n", r.Actual)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", r.Error)
	}
}

func printTestSummary(w io.Writer, report *testReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d tests run, %d passed, %d failed\n", len(report.Results), report.Passed, report.Failed)

	if report.Failed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed tests:")
		for _, r := range report.Results {
			if !r.Passed {
				fmt.Fprintf(w, "  - %s\n", r.TestName)
			}
		}
	}
}
