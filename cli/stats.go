package cli

import (
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/razeghi71/esqlchain/engine"
	"github.com/razeghi71/esqlchain/loader"
	"github.com/razeghi71/esqlchain/stats"
)

// StatsEntry is one distinct value and how often it occurs.
type StatsEntry struct {
	Value string `json:"value"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	Field   string       `json:"field"`
	Type    string       `json:"type"`
	Total   int          `json:"total"`
	Entries []StatsEntry `json:"entries"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <file> <field>",
		Short: "Count the values of a field, most frequent first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, path, field string, cmd *cobra.Command) error {
	t, err := loader.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load data", err)
	}
	st, err := engine.Stats(t, field)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot count values", err)
	}

	entries := lo.Map(stats.ByCount(stats.Entries(st)), func(e stats.Entry, _ int) StatsEntry {
		return StatsEntry{Value: e.Value.Text(), Kind: e.Value.Kind.String(), Count: e.Count}
	})

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.JSON() {
		return formatter.Success(StatsResult{
			Field:   field,
			Type:    t.ColumnType(field),
			Total:   st.Total,
			Entries: entries,
		})
	}

	rows := lo.Map(entries, func(e StatsEntry, _ int) []string {
		return []string{e.Value, strconv.Itoa(e.Count)}
	})
	printTable(cmd.OutOrStdout(), []string{field, "count"}, rows)
	return nil
}
