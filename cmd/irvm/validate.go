package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/irvm/pkg/cli"
	irErrors "mercator-hq/irvm/pkg/ir/errors"
	"mercator-hq/irvm/pkg/ir/validator"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/manager"
)

var validateFlags struct {
	noSchema bool
	format   string
}

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate policy documents",
	Long: `Check IR documents before they are deployed.

Every file is decoded and checked in two passes:
  - Schema: the document shape matches the IR JSON schema
  - Semantic: string and file indices are in range, called functions exist,
    break statements stay inside their blocks, plan and function names
    are unique

Directories are walked recursively for .json, .yaml and .yml files.
Without arguments the configured policy.path is validated.

Examples:
  # Validate one file
  irvm validate policy.json

  # Validate a directory, JSON report
  irvm validate ./policies --format json`,
	RunE: withApp("validate", runValidate),
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.noSchema, "no-schema", false, "skip the JSON schema pass")
	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "o", "text", "output format: text, json")
}

// fileReport is the validation outcome of one document.
type fileReport struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Valid  bool     `json:"valid"`
	Digest string   `json:"digest,omitempty"`
	Plans  int      `json:"plans"`
	Funcs  int      `json:"funcs"`
	Errors []string `json:"errors,omitempty"`
}

// validateReport is the outcome of a validate run.
type validateReport struct {
	Files   []fileReport `json:"files"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
}

func runValidate(cmd *cobra.Command, args []string, a *app) error {
	format, err := cli.ParseOutputFormat(validateFlags.format)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{a.config.Policy.Path}
	}

	loaderCfg := manager.DefaultLoaderConfig()
	loaderCfg.MaxFileSize = a.config.Policy.MaxFileSize
	loaderCfg.Schema = !validateFlags.noSchema
	loader, err := manager.NewPolicyLoader(loaderCfg, validator.NewSemanticValidator(engine.BuiltinNames()))
	if err != nil {
		return err
	}

	report := &validateReport{}
	for _, path := range paths {
		report.Files = append(report.Files, validatePath(loader, path)...)
	}
	for _, f := range report.Files {
		if f.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.FormatJSON:
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(out, report); err != nil {
			return err
		}
	default:
		printValidateReport(out, report)
	}

	if report.Invalid > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d of %d policy files are invalid", report.Invalid, len(report.Files)))
	}
	return nil
}

func validatePath(loader *manager.PolicyLoader, path string) []fileReport {
	info, err := os.Stat(path)
	if err != nil {
		return []fileReport{failedReport(path, err)}
	}

	if !info.IsDir() {
		loaded, err := loader.LoadFromFile(path)
		if err != nil {
			return []fileReport{failedReport(path, err)}
		}
		return []fileReport{loadedReport(loaded)}
	}

	loaded, err := loader.LoadFromDirectory(path)
	reports := make([]fileReport, 0, len(loaded))
	for _, p := range loaded {
		reports = append(reports, loadedReport(p))
	}
	if err == nil {
		return reports
	}

	var list *manager.ErrorList
	if !errors.As(err, &list) {
		return append(reports, failedReport(path, err))
	}
	for _, e := range list.Errors {
		reports = append(reports, failedReport(errorPath(e, path), e))
	}
	return reports
}

func loadedReport(p *manager.LoadedPolicy) fileReport {
	return fileReport{
		Path:   p.FilePath,
		Name:   p.Name,
		Valid:  true,
		Digest: p.Digest,
		Plans:  len(p.Policy.PlanList()),
		Funcs:  len(p.Policy.FuncList()),
	}
}

func failedReport(path string, err error) fileReport {
	return fileReport{
		Path:   path,
		Name:   manager.PolicyName(path),
		Errors: errorDetails(err),
	}
}

// errorPath returns the file a loader error refers to, or fallback.
func errorPath(err error, fallback string) string {
	var loadErr *manager.LoadError
	var parseErr *manager.ParseError
	var validationErr *manager.ValidationError
	switch {
	case errors.As(err, &validationErr) && validationErr.FilePath != "":
		return validationErr.FilePath
	case errors.As(err, &parseErr):
		return parseErr.FilePath
	case errors.As(err, &loadErr):
		return loadErr.FilePath
	}
	return fallback
}

// errorDetails flattens a loader error into printable lines. Diagnostics
// collected by the validator are listed one per entry.
func errorDetails(err error) []string {
	var diags *irErrors.ErrorList
	if !errors.As(err, &diags) {
		return []string{err.Error()}
	}

	var validationErr *manager.ValidationError
	details := []string{err.Error()}
	if errors.As(err, &validationErr) {
		details[0] = validationErr.Error()
	}
	for _, d := range diags.Errors {
		details = append(details, strings.TrimRight(d.Error(), "\n"))
	}
	return details
}

func printValidateReport(w io.Writer, report *validateReport) {
	style := cli.NewStyler(w)
	for _, f := range report.Files {
		if f.Valid {
			fmt.Fprintf(w, "%s %s %s\n", style.Pass(), f.Path,
				style.Dim(fmt.Sprintf("(%d plans, %d funcs, %s)", f.Plans, f.Funcs, shortDigest(f.Digest))))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", style.Fail(), f.Path)
		for _, detail := range f.Errors {
			for _, line := range strings.Split(detail, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d files, %d valid, %d invalid\n", len(report.Files), report.Valid, report.Invalid)
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
