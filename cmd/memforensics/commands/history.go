package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
	"github.com/m00que/Memforensics-MCP/internal/validate"
)

var (
	flagHistLimit  int
	flagHistPage   int
	flagHistEngine string
	flagHistPlugin string
	flagHistStatus string
	flagHistImage  string
	flagHistDays   int
	flagHistJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded engine runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&flagHistLimit, "limit", 20, "Page size (max 100)")
	f.IntVar(&flagHistPage, "page", 1, "Page number")
	f.StringVar(&flagHistEngine, "engine", "", "Filter by engine")
	f.StringVar(&flagHistPlugin, "plugin", "", "Filter by plugin")
	f.StringVar(&flagHistStatus, "status", "", "Filter by exit status")
	f.StringVar(&flagHistImage, "image", "", "Filter by image path substring")
	f.IntVar(&flagHistDays, "summary-days", 0, "Print a summary of the last N days instead of a listing")
	f.BoolVar(&flagHistJSON, "json", false, "Print JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), withBackends)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.history == nil {
		return fmt.Errorf("run history is disabled; set history.driver in the config")
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := a.history.Get(ctx, runs.RunID(args[0]))
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run not found: %s", args[0])
		}
		return printJSON(out, run)
	}

	if cmd.Flags().Changed("summary-days") {
		days := validate.Days(flagHistDays)
		s, err := a.history.Summary(ctx, time.Now().AddDate(0, 0, -days))
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{"days": days, "summary": s})
	}

	page, err := a.history.Paginate(ctx, flagHistPage, validate.Limit(flagHistLimit), runs.Filter{
		Engine: flagHistEngine,
		Plugin: flagHistPlugin,
		Status: flagHistStatus,
		Image:  flagHistImage,
	})
	if err != nil {
		return err
	}
	if flagHistJSON {
		return printJSON(out, page)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tENGINE\tPLUGIN\tSTATUS\tRECORDS\tDURATION\tIMAGE")
	for _, r := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Engine, r.Plugin, r.Status,
			r.RecordCount, time.Duration(r.DurationMS)*time.Millisecond, r.ImagePath)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\npage %d/%d (%d runs)\n", page.Page, page.TotalPages, page.Total)
	return nil
}
