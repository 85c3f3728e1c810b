package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/irvm/pkg/cli"
	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/manager"
)

var inspectFlags struct {
	format   string
	builtins bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [policy]",
	Short: "Show the structure of a policy",
	Long: `List the plans, functions, declared built-ins and statement counts of a
compiled policy. The document is decoded but not validated, so inspect also
works on policies that fail validation.

With --builtins and no policy, the built-ins provided by the engine are
listed instead.

Examples:
  # Summary of a policy
  irvm inspect policy.json

  # Aligned table, suitable for diffs between compiler versions
  irvm inspect policy.json --format table

  # Engine built-ins
  irvm inspect --builtins`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp("inspect", runInspect),
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFlags.format, "format", "o", "text", "output format: text, json, table")
	inspectCmd.Flags().BoolVar(&inspectFlags.builtins, "builtins", false, "list the engine built-ins")
}

type planInfo struct {
	Name   string `json:"name"`
	Blocks int    `json:"blocks"`
	Stmts  int    `json:"stmts"`
}

type funcInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Params int    `json:"params"`
	Stmts  int    `json:"stmts"`
}

type builtinInfo struct {
	Name string `json:"name"`
	// Arity is -1 for variadic built-ins and missing declarations.
	Arity    int  `json:"arity"`
	Provided bool `json:"provided"`
}

type stmtCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// inspectReport describes one policy, or only the engine built-ins when
// Path is empty.
type inspectReport struct {
	Path       string        `json:"path,omitempty"`
	Digest     string        `json:"digest,omitempty"`
	Strings    int           `json:"strings"`
	Files      []string      `json:"files,omitempty"`
	Plans      []planInfo    `json:"plans,omitempty"`
	Funcs      []funcInfo    `json:"funcs,omitempty"`
	Builtins   []builtinInfo `json:"builtins,omitempty"`
	Statements []stmtCount   `json:"statements,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string, a *app) error {
	format, err := cli.ParseOutputFormat(inspectFlags.format)
	if err != nil {
		return err
	}

	var report *inspectReport
	switch {
	case len(args) == 0 && inspectFlags.builtins:
		report = engineBuiltinsReport()
	case len(args) == 0:
		report, err = inspectPolicy(a.config.Policy.Path, a.config.Policy.MaxFileSize)
	default:
		report, err = inspectPolicy(args[0], a.config.Policy.MaxFileSize)
	}
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
}

func engineBuiltinsReport() *inspectReport {
	registry := engine.NewBuiltins()
	report := &inspectReport{}
	for _, name := range registry.Names() {
		b, _ := registry.Lookup(name)
		report.Builtins = append(report.Builtins, builtinInfo{Name: name, Arity: b.Arity, Provided: true})
	}
	return report
}

func inspectPolicy(path string, maxFileSize int64) (*inspectReport, error) {
	loaderCfg := manager.DefaultLoaderConfig()
	loaderCfg.Schema = false
	loaderCfg.MaxFileSize = maxFileSize
	loader, err := manager.NewPolicyLoader(loaderCfg, nil)
	if err != nil {
		return nil, err
	}
	loaded, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return describePolicy(loaded), nil
}

func describePolicy(loaded *manager.LoadedPolicy) *inspectReport {
	p := loaded.Policy
	report := &inspectReport{
		Path:   loaded.FilePath,
		Digest: loaded.Digest,
	}

	if p.Static != nil {
		report.Strings = len(p.Static.Strings)
		for _, f := range p.Static.Files {
			report.Files = append(report.Files, f.Value)
		}
		provided := engine.NewBuiltins()
		for _, b := range p.Static.BuiltinFuncs {
			_, ok := provided.Lookup(b.Name)
			report.Builtins = append(report.Builtins, builtinInfo{Name: b.Name, Arity: b.Arity(), Provided: ok})
		}
	}

	for _, plan := range p.PlanList() {
		report.Plans = append(report.Plans, planInfo{
			Name:   plan.Name,
			Blocks: len(plan.Blocks),
			Stmts:  countStmts(plan.Blocks),
		})
	}
	for _, fn := range p.FuncList() {
		report.Funcs = append(report.Funcs, funcInfo{
			Name:   fn.Name,
			Path:   strings.Join(fn.Path, "."),
			Params: len(fn.Params),
			Stmts:  countStmts(fn.Blocks),
		})
	}

	for typ, n := range ir.StmtCounts(p) {
		report.Statements = append(report.Statements, stmtCount{Type: typ, Count: n})
	}
	sort.Slice(report.Statements, func(i, j int) bool {
		if report.Statements[i].Count != report.Statements[j].Count {
			return report.Statements[i].Count > report.Statements[j].Count
		}
		return report.Statements[i].Type < report.Statements[j].Type
	})

	return report
}

func countStmts(blocks []*ir.Block) int {
	n := 0
	for _, b := range blocks {
		_ = ir.WalkBlock(b, ir.VisitorFunc(func(node ir.Node) error {
			if node.Stmt != nil {
				n++
			}
			return nil
		}))
	}
	return n
}

func (r *inspectReport) totalStmts() int {
	n := 0
	for _, s := range r.Statements {
		n += s.Count
	}
	return n
}

// String renders the report as indented sections.
func (r *inspectReport) String() string {
	var sb strings.Builder
	if r.Path != "" {
		fmt.Fprintf(&sb, "Policy:  %s\n", r.Path)
		fmt.Fprintf(&sb, "Digest:  %s\n", r.Digest)
		fmt.Fprintf(&sb, "Strings: %d\n", r.Strings)
		if len(r.Files) > 0 {
			fmt.Fprintf(&sb, "Files:   %s\n", strings.Join(r.Files, ", "))
		}

		fmt.Fprintf(&sb, "\nPlans (%d):\n", len(r.Plans))
		for _, p := range r.Plans {
			fmt.Fprintf(&sb, "  %s  (%d blocks, %d stmts)\n", p.Name, p.Blocks, p.Stmts)
		}

		fmt.Fprintf(&sb, "\nFunctions (%d):\n", len(r.Funcs))
		for _, f := range r.Funcs {
			fmt.Fprintf(&sb, "  %s  (%d params, %d stmts)\n", f.Name, f.Params, f.Stmts)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Built-ins (%d):\n", len(r.Builtins))
	for _, b := range r.Builtins {
		status := ""
		if !b.Provided {
			status = "  [not provided by engine]"
		}
		fmt.Fprintf(&sb, "  %s/%s%s\n", b.Name, arityString(b.Arity), status)
	}

	if r.Path != "" {
		fmt.Fprintf(&sb, "\nStatements (%d):\n", r.totalStmts())
		for _, s := range r.Statements {
			fmt.Fprintf(&sb, "  %-22s %d\n", s.Type, s.Count)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Table lists every element of the report as KIND, NAME, DETAIL rows.
func (r *inspectReport) Table() ([]string, [][]string) {
	var rows [][]string
	for _, p := range r.Plans {
		rows = append(rows, []string{"plan", p.Name, fmt.Sprintf("blocks=%d stmts=%d", p.Blocks, p.Stmts)})
	}
	for _, f := range r.Funcs {
		rows = append(rows, []string{"func", f.Name, fmt.Sprintf("params=%d stmts=%d", f.Params, f.Stmts)})
	}
	for _, b := range r.Builtins {
		detail := "arity=" + arityString(b.Arity)
		if !b.Provided {
			detail += " missing"
		}
		rows = append(rows, []string{"builtin", b.Name, detail})
	}
	for _, s := range r.Statements {
		rows = append(rows, []string{"stmt", s.Type, strconv.Itoa(s.Count)})
	}
	return []string{"KIND", "NAME", "DETAIL"}, rows
}

func arityString(arity int) string {
	if arity < 0 {
		return "*"
	}
	return strconv.Itoa(arity)
}
