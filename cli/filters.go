package cli

import (
	"context"
	"fmt"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/spf13/cobra"
)

// listFlags are the filter and paging flags shared by contracts and export
type listFlags struct {
	dateFrom   string
	dateTo     string
	minAmount  int64
	maxAmount  int64
	title      string
	contractID string
	limit      int
	page       int
	pageSize   int
}

func (f *listFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.dateFrom, "date-from", "", "Only contracts signed on or after this date (YYYY-MM-DD)")
	fs.StringVar(&f.dateTo, "date-to", "", "Only contracts signed on or before this date (YYYY-MM-DD)")
	fs.Int64Var(&f.minAmount, "min-amount", 0, "Minimum contract amount")
	fs.Int64Var(&f.maxAmount, "max-amount", 0, "Maximum contract amount")
	fs.StringVar(&f.title, "title", "", "Title substring, at least 3 characters")
	fs.StringVar(&f.contractID, "id", "", "Exact contract ID")
	fs.IntVar(&f.limit, "limit", 0, "Maximum contracts to fetch (1-100)")
	fs.IntVar(&f.page, "page", 1, "Page to show")
	fs.IntVar(&f.pageSize, "page-size", 0, "Contracts per page (10, 25, 50 or 100)")
}

// criteria converts the flags the user actually set into filters
func (f *listFlags) criteria(cmd *cobra.Command) model.FilterCriteria {
	var c model.FilterCriteria
	fs := cmd.Flags()

	if f.dateFrom != "" {
		v := f.dateFrom
		c.DateFrom = &v
	}
	if f.dateTo != "" {
		v := f.dateTo
		c.DateTo = &v
	}
	if fs.Changed("min-amount") {
		v := f.minAmount
		c.MinAmount = &v
	}
	if fs.Changed("max-amount") {
		v := f.maxAmount
		c.MaxAmount = &v
	}
	if f.title != "" {
		v := f.title
		c.TitleContains = &v
	}
	if f.contractID != "" {
		v := f.contractID
		c.ContractID = &v
	}
	return c
}

func (f *listFlags) pagination(cmd *cobra.Command, base config.PaginationConfig) config.PaginationConfig {
	if cmd.Flags().Changed("limit") {
		base.FetchLimit = f.limit
		if base.FetchLimit < 1 {
			base.FetchLimit = 1
		}
	}
	return base
}

// fetchView runs one dashboard refresh for the flags and returns the requested page
func (f *listFlags) fetchView(ctx context.Context, cmd *cobra.Command, fetcher service.ContractFetcher) (*service.DashboardView, model.FilterCriteria, error) {
	filters := f.criteria(cmd)
	if f.page < 1 {
		return nil, filters, fmt.Errorf("--page: %w: %d", service.ErrInvalidPage, f.page)
	}
	pagination := f.pagination(cmd, cfg.Pagination)

	session := service.NewDashboardSession(fetcher, &pagination)
	defer session.Close()

	session.SetFilters(filters)
	if f.pageSize != 0 {
		if err := session.SetPageSize(f.pageSize); err != nil {
			return nil, filters, fmt.Errorf("--page-size: %w (allowed: %v)", err, pagination.PageSizes)
		}
	}
	session.SetPage(f.page)

	if _, err := session.Refresh(ctx); err != nil {
		return nil, filters, fmt.Errorf("fetch contracts: %w", err)
	}

	view, err := session.View()
	if err != nil {
		return nil, filters, fmt.Errorf("--page: %w", err)
	}
	return view, filters, nil
}
