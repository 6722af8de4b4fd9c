package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m00que/Memforensics-MCP/internal/health"
)

var flagDoctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the engine toolchains and configured backends are usable",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&flagDoctorJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), withBackends)
	if err != nil {
		return err
	}
	defer a.Close()

	checkers := map[string]health.Checker{
		"legacy.interpreter": health.FileChecker{Path: a.cfg.Legacy.Interpreter},
		"legacy.script":      health.FileChecker{Path: a.cfg.Legacy.Script},
		"modern.interpreter": health.FileChecker{Path: a.cfg.Modern.Interpreter},
		"modern.script":      health.FileChecker{Path: a.cfg.Modern.Script},
		"modern.root":        health.FileChecker{Path: a.cfg.Modern.Root, Dir: true},
	}
	if a.db != nil {
		checkers["history."+a.cfg.History.Driver] = health.DBChecker{DB: a.db}
	}
	if a.cfg.Minio.Enabled {
		if a.store != nil {
			checkers["minio"] = a.store
		} else {
			checkers["minio"] = health.CheckerFunc(func(_ context.Context) error {
				return fmt.Errorf("store not initialized (see log)")
			})
		}
	}

	report := health.Run(cmd.Context(), checkers)
	if flagDoctorJSON {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHECK\tSTATUS\tMESSAGE")
		for _, name := range report.Names() {
			c := report.Checks[name]
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, c.Status, c.Message)
		}
		w.Flush()
	}
	if !report.Healthy() {
		return errUnsuccessful
	}
	return nil
}
