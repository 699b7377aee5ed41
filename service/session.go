package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/pkg/logger"
)

// DashboardSession holds what a dashboard viewer has selected: filters, page and
// page size, plus the latest listing fetched for those filters.
//
// Changing filters or page size sends the viewer back to page 1. Each Refresh
// starts a new generation and cancels the previous one; a fetch that completes
// after a newer Refresh began is discarded with ErrStaleResult.
type DashboardSession struct {
	fetcher    ContractFetcher
	pageSizes  []int
	fetchLimit *int

	mu         sync.Mutex
	filters    model.FilterCriteria
	page       int
	pageSize   int
	generation uint64
	cancel     context.CancelFunc
	list       *ContractList
	published  uint64
}

// DashboardView is everything needed to render one dashboard page
type DashboardView struct {
	Page       *PageResult[model.Contract] `json:"page"`
	Pages      []PageLink                  `json:"pages"`
	Stats      DashboardStats              `json:"stats"`
	Summary    model.ApiSummary            `json:"summary"`
	Query      string                      `json:"query"`
	Generation uint64                      `json:"generation"`
}

func NewDashboardSession(fetcher ContractFetcher, cfg *config.PaginationConfig) *DashboardSession {
	s := &DashboardSession{
		fetcher:   fetcher,
		pageSizes: cfg.PageSizes,
		page:      1,
		pageSize:  cfg.DefaultPageSize,
	}
	if cfg.FetchLimit > 0 {
		limit := cfg.FetchLimit
		s.fetchLimit = &limit
	}
	return s
}

// SetFilters replaces the filters and returns to page 1
func (s *DashboardSession) SetFilters(filters model.FilterCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
	s.page = 1
}

// SetPageSize changes the page size and returns to page 1
func (s *DashboardSession) SetPageSize(size int) error {
	if !s.allowsPageSize(size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = size
	s.page = 1
	return nil
}

func (s *DashboardSession) allowsPageSize(size int) bool {
	for _, allowed := range s.pageSizes {
		if allowed == size {
			return true
		}
	}
	return false
}

// SetPage moves to page as given; out of range pages render empty
func (s *DashboardSession) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

// State returns the current filters, page and page size
func (s *DashboardSession) State() (model.FilterCriteria, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters, s.page, s.pageSize
}

// Refresh fetches the listing for the current filters and publishes it unless a
// newer Refresh started in the meantime
func (s *DashboardSession) Refresh(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	filters := s.filters
	s.mu.Unlock()

	fetchCtx = context.WithValue(fetchCtx, logger.GenerationKey, gen)
	list, err := s.fetcher.FetchContracts(fetchCtx, &filters, s.fetchLimit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		cancel()
		logger.Debug(fetchCtx, "discarding superseded dashboard fetch", "latest", s.generation)
		return gen, ErrStaleResult
	}

	cancel()
	s.cancel = nil

	if err != nil {
		return gen, err
	}
	s.list = list
	s.published = gen
	return gen, nil
}

// View builds the page and statistics from the latest published listing.
// Before the first successful Refresh the collection is empty. A failed Refresh
// after SetFilters leaves the previous listing in place; Query names the
// filters the collection was fetched with.
func (s *DashboardSession) View() (*DashboardView, error) {
	s.mu.Lock()
	list := s.list
	page, pageSize, gen := s.page, s.pageSize, s.published
	s.mu.Unlock()

	var contracts []model.Contract
	var summary model.ApiSummary
	var query string
	if list != nil {
		contracts = list.Contracts
		summary = list.Summary
		query = list.Query
	}

	result, err := Paginate(contracts, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &DashboardView{
		Page:       result,
		Pages:      PageWindow(result.Page, result.TotalPages),
		Stats:      ComputeStats(contracts, summary),
		Summary:    summary,
		Query:      query,
		Generation: gen,
	}, nil
}

// Close cancels any fetch still in flight
func (s *DashboardSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
