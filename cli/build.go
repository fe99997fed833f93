package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/razeghi71/esqlchain/script"
)

// BuildResult is the JSON payload of the build command.
type BuildResult struct {
	Query    string   `json:"query"`
	Blocks   int      `json:"blocks"`
	Position int      `json:"position"`
	Rejected []string `json:"rejected,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <script>",
		Short: "Print the ES|QL query a script builds",
		Long: `Replay the actions of a script and print the resulting ES|QL query.

Actions that would introduce a duplicate field name are skipped and reported
on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runBuild(opts *RootOptions, path string, cmd *cobra.Command) error {
	res, err := replayScript(opts, path, cmd)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.JSON() {
		return formatter.Success(BuildResult{
			Query:    res.Query,
			Blocks:   len(res.Chain),
			Position: res.Position,
			Rejected: res.Rejected,
		})
	}
	for _, line := range res.Rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %q: field name already in use\n", line)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Query)
	return nil
}

// replayScript loads and runs the script at path, mapping failures to exit
// codes.
func replayScript(opts *RootOptions, path string, cmd *cobra.Command) (*script.Result, error) {
	s, err := script.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot load script", err)
	}
	logger := newLogger(opts, cmd.ErrOrStderr())
	defer logger.Sync()

	res, err := script.NewRunner(logger).Run(s)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "cannot run script", err)
	}
	return res, nil
}
