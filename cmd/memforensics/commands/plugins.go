package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/m00que/Memforensics-MCP/internal/application/engines"
)

var flagPluginsJSON bool

var pluginsCmd = &cobra.Command{
	Use:   "plugins [pattern]",
	Short: "List modern engine plugins matching a glob",
	Long: fmt.Sprintf(`List modern engine plugins. The pattern is a glob where '*' stops at '.'
and '**' crosses it; the default is %q.`, engines.DefaultPluginPattern),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}
		a, err := newApp(cmd.Context(), noBackends)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.svc.ListPlugins(cmd.Context(), pattern)
		if err != nil {
			return err
		}
		if flagPluginsJSON {
			if names == nil {
				names = []string{}
			}
			return printJSON(cmd.OutOrStdout(), names)
		}
		if len(names) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		}
		return nil
	},
}

func init() {
	pluginsCmd.Flags().BoolVar(&flagPluginsJSON, "json", false, "Print a JSON array")
	rootCmd.AddCommand(pluginsCmd)
}
