package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/irvm/pkg/cli"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/telemetry/logging"
	"mercator-hq/irvm/pkg/telemetry/tracing"
	"mercator-hq/irvm/pkg/value"
)

var evalFlags struct {
	policy string
	name   string
	plan   string
	input  string
	data   string
	format string
	trace  bool
	fail   bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a plan",
	Long: `Evaluate one plan of a compiled policy and print its result set.

The input and data documents are bound to the plan's first two locals. Each
may be a JSON file, a YAML file, an inline JSON value or "-" for stdin.
The result set holds one entry per successful execution path; an empty
result set means the plan was undefined for the given documents.

Examples:
  # Evaluate the first plan
  irvm eval --policy policy.json --input input.json

  # Evaluate a named plan with inline input
  irvm eval -p policy.json --plan example/allow --input '{"x": 2}'

  # Evaluate a policy from a directory, with the evaluation trace
  irvm eval -p ./policies --name authz --plan authz/allow --trace

  # Exit non-zero when the result set is empty
  irvm eval -p policy.json --input input.yaml --fail`,
	RunE: withApp("eval", runEval),
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.policy, "policy", "p", "", "policy file or directory (default: policy.path from config)")
	evalCmd.Flags().StringVar(&evalFlags.name, "name", "", "policy name when --policy is a directory")
	evalCmd.Flags().StringVar(&evalFlags.plan, "plan", "", "plan name (default: first plan)")
	evalCmd.Flags().StringVarP(&evalFlags.input, "input", "i", "", "input document")
	evalCmd.Flags().StringVarP(&evalFlags.data, "data", "d", "", "data document")
	evalCmd.Flags().StringVarP(&evalFlags.format, "format", "o", "text", "output format: text, json, table")
	evalCmd.Flags().BoolVar(&evalFlags.trace, "trace", false, "print the evaluation trace to stderr")
	evalCmd.Flags().BoolVar(&evalFlags.fail, "fail", false, "exit with an error when the result set is empty")
}

// evalOutput is the printed form of an evaluation.
type evalOutput struct {
	EvaluationID string           `json:"evaluation_id"`
	Plan         string           `json:"plan"`
	Result       engine.ResultSet `json:"result"`
	Instructions int64            `json:"instructions"`
	DurationMS   float64          `json:"duration_ms"`
}

// String renders the result set as compact JSON.
func (o *evalOutput) String() string {
	b, err := o.Result.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<unprintable result set: %v>", err)
	}
	return string(b)
}

// Table lists one result set entry per row.
func (o *evalOutput) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(o.Result))
	for i, entry := range o.Result {
		b, err := value.MarshalJSON(entry)
		if err != nil {
			b = []byte(entry.String())
		}
		rows = append(rows, []string{strconv.Itoa(i), string(b)})
	}
	return []string{"#", "RESULT"}, rows
}

func runEval(cmd *cobra.Command, args []string, a *app) error {
	format, err := cli.ParseOutputFormat(evalFlags.format)
	if err != nil {
		return err
	}

	input, err := loadDocument(evalFlags.input, cmd.InOrStdin())
	if err != nil {
		return cli.NewConfigError("input", err.Error())
	}
	data, err := loadDocument(evalFlags.data, cmd.InOrStdin())
	if err != nil {
		return cli.NewConfigError("data", err.Error())
	}

	if evalFlags.trace {
		a.config.Engine.EnableTrace = true
	}

	ctx, stop := a.context(cmd)
	defer stop()

	ctx, span := a.tracer.Start(ctx, "irvm.cli.eval")
	defer span.End()

	vm, err := a.openEngine(evalFlags.policy, evalFlags.name)
	if err != nil {
		tracing.SetStatus(span, err)
		return err
	}

	ctx = logging.WithPlan(ctx, evalFlags.plan)
	result, err := vm.Eval(ctx, engine.EvalRequest{
		Plan:  evalFlags.plan,
		Input: input,
		Data:  data,
	})
	tracing.SetStatus(span, err)
	if err != nil {
		return err
	}

	logging.WithContext(a.logger, logging.WithEvaluationID(ctx, result.EvaluationID)).Debug("evaluation finished",
		"results", result.ResultSet.Len(),
		"instructions", result.Instructions,
		"duration", result.Duration,
	)

	if evalFlags.trace && result.Trace != nil {
		fmt.Fprint(cmd.ErrOrStderr(), result.Trace.String())
	}

	out := &evalOutput{
		EvaluationID: result.EvaluationID,
		Plan:         result.Plan,
		Result:       result.ResultSet,
		Instructions: result.Instructions,
		DurationMS:   float64(result.Duration) / float64(time.Millisecond),
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if evalFlags.fail && result.ResultSet.Empty() {
		return fmt.Errorf("plan %s produced an empty result set", result.Plan)
	}
	return nil
}
