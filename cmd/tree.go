package cmd

import (
	"fmt"

	"hourtrim/core/library"

	"github.com/spf13/cobra"
)

var treeShowPaths bool

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "列出 trimmed_files 下的城市/电台/节目/日期目录",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cities := library.BuildTree(cfg.TrimmedDir())
		if len(cities) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No recordings under %s\n", cfg.TrimmedDir())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTree(cities, treeShowPaths))
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeShowPaths, "paths", false, "show the relative_path of each date")
	rootCmd.AddCommand(treeCmd)
}
