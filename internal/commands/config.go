// internal/commands/config.go
package lvcbench

import (
	"github.com/k0kubun/pp"
	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/spf13/cobra"
)

// configCmd groups configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Group commands for inspecting the configuration",
}

// showConfigCmd implements 'config show', which displays the effective configuration.
var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly, completed with defaults and overridden by flags accordingly.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			_, _ = pp.Fprintln(cmd.OutOrStdout(), *cfg)
			return
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), cfg.ConfigPath, *cfg)
	},
}

func init() {
	showConfigCmd.Flags().Bool("raw", false, "dump the full configuration struct")
	configCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(configCmd)
}
