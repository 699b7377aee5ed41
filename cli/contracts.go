package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newContractsCmd() *cobra.Command {
	var flags listFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "List contracts matching the filters, one page at a time",
		Example: "  radarcol contracts --title vial --min-amount 1000000 --page 2\n" +
			"  radarcol contracts --date-from 2024-01-01 --page-size 25 --json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			radar := service.NewRadarService(&cfg.API)

			view, _, err := flags.fetchView(cmd.Context(), cmd, radar)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			printContracts(out, view)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page, statistics and summary as JSON")
	return cmd
}

func printContracts(w io.Writer, view *service.DashboardView) {
	page := view.Page
	if page.TotalItems == 0 {
		fmt.Fprintln(w, "No contracts found.")
		printStats(w, view.Stats)
		return
	}

	fmt.Fprintf(w, "%-22s  %-5s  %7s  %18s  %-10s  %-28s  %s\n", "ID", "RISK", "ANOMALY", "AMOUNT", "SIGNED", "ENTITY", "TITLE")
	fmt.Fprintf(w, "%-22s  %-5s  %7s  %18s  %-10s  %-28s  %s\n", "--", "----", "-------", "------", "------", "------", "-----")
	for _, c := range page.Data {
		fmt.Fprintf(w, "%-22s  %-5s  %6d%%  %18s  %-10s  %-28s  %s\n",
			truncate(c.ID, 22),
			c.RiskLevel.Label(),
			c.AnomalyProbability,
			"$"+humanize.Comma(c.Amount),
			formatDate(c),
			truncate(c.Entity, 28),
			truncate(c.Title, 60),
		)
	}

	start, end := page.Range()
	if start == 0 {
		fmt.Fprintf(w, "\nPage %d is past the last page (%d).\n", page.Page, page.TotalPages)
	} else {
		fmt.Fprintf(w, "\nShowing %d-%d of %d  (page %d of %d)\n", start, end, page.TotalItems, page.Page, page.TotalPages)
	}
	if len(view.Pages) > 1 {
		fmt.Fprintf(w, "Pages: %s\n", formatPageWindow(view.Pages, page.Page))
	}

	printStats(w, view.Stats)
	if len(view.Summary.SimulatedFields) > 0 {
		fmt.Fprintf(w, "Simulated fields: %s\n", strings.Join(view.Summary.SimulatedFields, ", "))
	}
}

func printStats(w io.Writer, s service.DashboardStats) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fetched:  %s contracts, %s high risk, $%s total, average anomaly %d%%\n",
		humanize.Comma(int64(s.LocalCount)),
		humanize.Comma(int64(s.LocalHighRiskCount)),
		humanize.Comma(s.LocalTotalAmount),
		s.LocalAverageAnomaly,
	)
	fmt.Fprintf(w, "Analyzed: %s contracts, %s high risk (%.1f%%), %s reported\n",
		humanize.Comma(int64(s.TotalAnalyzed)),
		humanize.Comma(int64(s.TotalHighRisk)),
		s.HighRiskPercent(),
		service.FormatLargeAmount(s.TotalAmountReported),
	)
}

func formatPageWindow(links []service.PageLink, current int) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		switch {
		case l.Ellipsis:
			parts = append(parts, "…")
		case l.Number == current:
			parts = append(parts, "["+strconv.Itoa(l.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(l.Number))
		}
	}
	return strings.Join(parts, " ")
}

func formatDate(c model.Contract) string {
	if c.SignedDate == nil {
		return "-"
	}
	return c.SignedDate.Format("2006-01-02")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
