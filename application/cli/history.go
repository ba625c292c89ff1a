package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"stream-fetch/application/fetch/journal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded transfers, latest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	flags := cmd.Flags()
	flags.String("journal", "", "SQLite file written by get --journal")
	flags.Int("limit", 20, "how many transfers to list, 0 for all")
	flags.Bool("json", false, "print a JSON array")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("journal")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return errors.Wrap(err, "opening journal")
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing transfers")
	}

	if asJSON {
		return journal.WriteJSON(cmd.OutOrStdout(), entries)
	}
	return writeTable(cmd.OutOrStdout(), entries)
}

func writeTable(w io.Writer, entries []journal.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOUTCOME\tSTATUS\tBYTES\tDURATION\tURL\tOUTPUT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime),
			e.Outcome,
			e.StatusCode,
			byteCount(e.Received, e.Expected),
			e.Duration().Round(time.Millisecond),
			e.URL,
			e.Output,
		)
	}
	return errors.Wrap(tw.Flush(), "writing table")
}

func byteCount(received, expected int64) string {
	if expected < 0 {
		return fmt.Sprint(received)
	}
	return fmt.Sprintf("%d/%d", received, expected)
}
