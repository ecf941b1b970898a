package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bemfst/portal/internal/model"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logs",
		Aliases: []string{"activity"},
		Short:   "Inspect and prune the activity log",
	}

	cmd.AddCommand(newLogsListCmd())
	cmd.AddCommand(newLogsPurgeCmd())

	return cmd
}

// ---------- logs list ----------

func newLogsListCmd() *cobra.Command {
	var (
		page       int
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List activity log entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newAPIClient().ListActivity(cmd.Context(), page, limit)
			if err != nil {
				return sessionError(err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"data": res.Entries, "meta": res.Meta})
			}
			return printActivity(out, res.Entries, res.Meta)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Entries per page (max 100)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printActivity(out io.Writer, entries []model.ActivityLog, meta model.PageMeta) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No activity recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tACTION\tACTOR\tENTITY\tIP")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.CreatedAt.Local().Format(time.DateTime),
			e.Action,
			e.Actor,
			entityLabel(e),
			deref(e.IPAddress, "-"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nPage %d of %d (%d entries)\n", meta.Page, meta.LastPage, meta.Total)
	return nil
}

func entityLabel(e model.ActivityLog) string {
	if e.EntityType == nil {
		return "-"
	}
	label := *e.EntityType
	if e.EntityID != nil {
		label = fmt.Sprintf("%s#%d", label, *e.EntityID)
	}
	if e.EntityTitle != nil {
		label = fmt.Sprintf("%s %q", label, *e.EntityTitle)
	}
	return label
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// ---------- logs purge ----------

func newLogsPurgeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete activity older than the retention period",
		Example: `  portal logs purge            # server default (180 days)
  portal logs purge --days 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := newAPIClient().PurgeActivity(cmd.Context(), days)
			if err != nil {
				return sessionError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Delete entries older than this many days (default: server retention)")

	return cmd
}
