package cli

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/razeghi71/esqlchain/table"
)

// PreviewResult is the JSON payload of the preview command.
type PreviewResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <script>",
		Short: "Run a script's pipeline against its source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, args[0], limit, cmd)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of rows to print (0 prints all)")
	return cmd
}

func runPreview(opts *RootOptions, path string, limit int, cmd *cobra.Command) error {
	if limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d", limit))
	}
	res, err := replayScript(opts, path, cmd)
	if err != nil {
		return err
	}

	t := res.Table
	total := len(t.Rows)
	if limit > 0 && total > limit {
		t = table.NewTable(t.Columns)
		t.Rows = res.Table.Rows[:limit]
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.JSON() {
		rows := lo.Map(t.Rows, func(r table.Row, _ int) []any {
			return lo.Map(r.Values, func(v table.Value, _ int) any { return v.Raw() })
		})
		return formatter.Success(PreviewResult{Columns: t.Columns, Rows: rows, Total: total})
	}

	formatter.Table(t)
	if len(t.Rows) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d rows)\n", len(t.Rows), total)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", total)
	}
	return nil
}
