package cmd

import (
	"fmt"

	"hourtrim/core/audio"
	"hourtrim/core/library"
	"hourtrim/core/report"
	"hourtrim/server"

	"github.com/spf13/cobra"
)

var reportCSV bool

var reportCmd = &cobra.Command{
	Use:   "report <relative_path>",
	Short: "显示某一天每个小时文件的状态",
	Long:  `按 missing_data.json 列出每个小时文件的原始时长、是否已裁剪和状态。--csv 输出与网页导出相同的 CSV。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		durations, closeCache := server.OpenDurationCache(ctx, cfg)
		defer closeCache()

		processor := audio.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath)
		builder := report.NewBuilder(library.NewLayout(cfg.PublicDir), processor, durations, cfg.TrimSeconds)
		rows, err := builder.Build(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if reportCSV {
			return report.WriteCSV(out, rows)
		}
		if len(rows) == 0 {
			fmt.Fprintf(out, "No %s for %s\n", "missing_data.json entries", args[0])
			return nil
		}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{r.Hour, r.Duration, r.TrimmedDuration, r.Trimmed, r.Status})
		}
		fmt.Fprintln(out, renderTable(report.Header, table, shouldColorize(out)))
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportCSV, "csv", false, "write CSV instead of a table")
	rootCmd.AddCommand(reportCmd)
}
