package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newAnalysisCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analysis <contract_id>",
		Short: "Show the risk explanation for one contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			radar := service.NewRadarService(&cfg.API)

			detail, err := radar.FetchContractAnalysis(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get analysis: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(detail)
			}

			printAnalysis(out, detail)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the contract and analysis as JSON")
	return cmd
}

func printAnalysis(w io.Writer, d *service.ContractDetail) {
	c, a := d.Contract, d.Analysis

	fmt.Fprintf(w, "Contract: %s\n", c.ID)
	fmt.Fprintf(w, "  Title:   %s\n", c.Title)
	fmt.Fprintf(w, "  Entity:  %s\n", c.Entity)
	fmt.Fprintf(w, "  Amount:  $%s\n", humanize.Comma(c.Amount))
	fmt.Fprintf(w, "  Signed:  %s\n", formatDate(c))
	fmt.Fprintf(w, "  Risk:    %s (anomaly %d%%)\n", c.RiskLevel.Label(), c.AnomalyProbability)

	fmt.Fprintf(w, "\nSummary: %s\n", a.Summary)
	analyzed := "-"
	if !a.AnalysisDate.IsZero() {
		analyzed = fmt.Sprintf("%s (%s)", a.AnalysisDate.Format("2006-01-02"), humanize.Time(a.AnalysisDate))
	}
	fmt.Fprintf(w, "Base probability %.1f%%, confidence %.0f%%, analyzed %s\n",
		a.BaseProbability, a.Confidence, analyzed)

	if len(a.KeyFactors) > 0 {
		fmt.Fprintln(w, "\nKey factors:")
		for _, f := range a.KeyFactors {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	if len(a.ShapValues) > 0 {
		fmt.Fprintln(w, "\nFeature impact:")
		fmt.Fprintf(w, "  %-24s  %8s  %-14s  %s\n", "VARIABLE", "IMPACT", "VALUE", "DESCRIPTION")
		for _, v := range a.ShapValues {
			actual := "-"
			if v.ActualValue != nil {
				actual = fmt.Sprint(v.ActualValue)
			}
			fmt.Fprintf(w, "  %-24s  %+8.2f  %-14s  %s\n", truncate(v.Variable, 24), v.Value, truncate(actual, 14), v.Description)
		}
	}

	if len(a.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
