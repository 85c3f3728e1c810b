/*
Package cli provides command-line interface utilities for irvm.

The cli package includes output formatters, progress reporters, terminal
styling and signal handling used by the irvm command.

Output Formatting:

Results are printed as text, indented JSON or an aligned table:

	formatter := cli.NewFormatter(cli.FormatTable)
	table := &cli.Table{Headers: []string{"PLAN", "BLOCKS"}, Rows: rows}
	if err := formatter.FormatTo(os.Stdout, table); err != nil {
		return err
	}

Table columns are measured in terminal cells, so non-ASCII plan names align.

Terminal Detection:

Status symbols, colours and in-place progress bars are used only when the
output is a terminal:

	style := cli.NewStyler(os.Stdout)
	fmt.Printf("%s %s\n", style.Pass(), name)

Signal Handling:

For graceful cancellation on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
