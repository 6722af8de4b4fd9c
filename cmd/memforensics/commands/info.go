package commands

import (
	"github.com/spf13/cobra"
)

var flagReload bool

var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Open a native session on an image and describe it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), noBackends)
		if err != nil {
			return err
		}
		defer a.Close()

		if flagReload {
			if _, err := a.cache.Acquire(cmd.Context(), args[0], true); err != nil {
				return err
			}
		}
		info, err := a.cache.Info(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), info)
	},
}

func init() {
	infoCmd.Flags().BoolVar(&flagReload, "reload", false, "Force a fresh session instead of reusing a cached one")
	rootCmd.AddCommand(infoCmd)
}
