package cli

import (
	"encoding/json"
	"fmt"

	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var flags listFlags
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save a report of the filtered contracts to object storage",
		Long: "export fetches the filtered contracts like the contracts command, stores the page,\n" +
			"statistics and filters as a JSON report in the configured bucket, and prints a\n" +
			"presigned download link.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			radar := service.NewRadarService(&cfg.API)

			view, filters, err := flags.fetchView(ctx, cmd, radar)
			if err != nil {
				return err
			}

			report := service.NewReport(view, filters, radar.BaseURL())
			out := cmd.OutOrStdout()

			if dryRun {
				fmt.Fprintf(out, "Object: %s/%s\n", cfg.Storage.Bucket, report.ObjectName())
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			snapshots, err := service.NewSnapshotService(&cfg.Storage)
			if err != nil {
				return fmt.Errorf("connect storage: %w", err)
			}
			if err := snapshots.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("prepare bucket: %w", err)
			}

			url, err := snapshots.SaveReport(ctx, report)
			if err != nil {
				return fmt.Errorf("save report: %w", err)
			}

			fmt.Fprintf(out, "Report %s saved (%s contracts on this page, %s fetched)\n",
				report.ID,
				humanize.Comma(int64(len(view.Page.Data))),
				humanize.Comma(int64(view.Stats.LocalCount)),
			)
			fmt.Fprintf(out, "Download (valid %d days): %s\n", cfg.Storage.ExpireDays, url)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the report instead of uploading it")
	return cmd
}
