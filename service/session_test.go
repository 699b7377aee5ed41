package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testPagination() *config.PaginationConfig {
	return &config.PaginationConfig{
		DefaultPageSize: 10,
		PageSizes:       []int{10, 25, 50, 100},
	}
}

func contractsN(n int) []model.Contract {
	out := make([]model.Contract, n)
	for i := range out {
		out[i] = model.Contract{
			ID:                 fmt.Sprintf("CO1.PCCNTR.%d", i+1),
			Amount:             1000,
			RiskLevel:          model.RiskLow,
			AnomalyProbability: 40,
		}
	}
	return out
}

func TestDashboardSessionInitialView(t *testing.T) {
	s := NewDashboardSession(&fakeFetcher{}, testPagination())

	view, err := s.View()
	require.NoError(t, err)

	assert.Equal(t, 1, view.Page.Page)
	assert.Equal(t, 10, view.Page.PageSize)
	assert.Equal(t, 0, view.Page.TotalPages)
	assert.Empty(t, view.Page.Data)
	assert.Empty(t, view.Pages)
	assert.Equal(t, uint64(0), view.Generation)
}

func TestDashboardSessionRefreshAndView(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		return &ContractList{
			Contracts: contractsN(25),
			Summary:   model.ApiSummary{TotalAnalyzed: 300, TotalHighRisk: 30},
		}, nil
	}
	s := NewDashboardSession(fetcher, testPagination())
	defer s.Close()

	gen, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	s.SetPage(3)
	view, err := s.View()
	require.NoError(t, err)

	assert.Len(t, view.Page.Data, 5)
	assert.Equal(t, "CO1.PCCNTR.21", view.Page.Data[0].ID)
	assert.False(t, view.Page.HasNextPage)
	assert.True(t, view.Page.HasPrevPage)
	assert.Len(t, view.Pages, 3)

	// statistics cover the whole collection, not the page
	assert.Equal(t, 25, view.Stats.LocalCount)
	assert.Equal(t, int64(25000), view.Stats.LocalTotalAmount)
	assert.Equal(t, 300, view.Stats.TotalAnalyzed)
	assert.Equal(t, uint64(1), view.Generation)
}

func TestDashboardSessionResetsPage(t *testing.T) {
	s := NewDashboardSession(&fakeFetcher{}, testPagination())

	s.SetPage(4)
	s.SetFilters(model.FilterCriteria{TitleContains: strPtr("vial")})
	filters, page, _ := s.State()
	assert.Equal(t, 1, page)
	assert.Equal(t, "vial", *filters.TitleContains)

	s.SetPage(4)
	require.NoError(t, s.SetPageSize(25))
	_, page, size := s.State()
	assert.Equal(t, 1, page)
	assert.Equal(t, 25, size)
}

func TestDashboardSessionRejectsPageSize(t *testing.T) {
	s := NewDashboardSession(&fakeFetcher{}, testPagination())
	s.SetPage(2)

	err := s.SetPageSize(7)
	assert.True(t, errors.Is(err, ErrInvalidPageSize))

	_, page, size := s.State()
	assert.Equal(t, 2, page)
	assert.Equal(t, 10, size)
}

func TestDashboardSessionInvalidPage(t *testing.T) {
	s := NewDashboardSession(&fakeFetcher{}, testPagination())
	s.SetPage(0)

	_, err := s.View()
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestDashboardSessionPassesFetchLimit(t *testing.T) {
	var got *int
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		got = limit
		return listOf(filters), nil
	}

	cfg := testPagination()
	cfg.FetchLimit = 100
	s := NewDashboardSession(fetcher, cfg)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, *got)
}

func TestDashboardSessionTagsGeneration(t *testing.T) {
	var got any
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		got = ctx.Value(logger.GenerationKey)
		return listOf(filters), nil
	}
	s := NewDashboardSession(fetcher, testPagination())

	s.Refresh(context.Background())
	s.Refresh(context.Background())
	assert.Equal(t, uint64(2), got)
}

func TestDashboardSessionKeepsLastGoodListOnError(t *testing.T) {
	fail := false
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		if fail {
			return nil, &NetworkError{URL: "http://api.test", Err: errors.New("connection refused")}
		}
		return &ContractList{Contracts: contractsN(3)}, nil
	}
	s := NewDashboardSession(fetcher, testPagination())

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = s.Refresh(context.Background())
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))

	view, err := s.View()
	require.NoError(t, err)
	assert.Len(t, view.Page.Data, 3)
	assert.Equal(t, uint64(1), view.Generation)
}

func TestDashboardSessionViewNamesPublishedQuery(t *testing.T) {
	fail := false
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		if fail {
			return nil, &HTTPError{URL: "http://api.test/contracts", StatusCode: 500, Status: "Internal Server Error"}
		}
		return listOf(filters), nil
	}
	s := NewDashboardSession(fetcher, testPagination())

	s.SetFilters(model.FilterCriteria{TitleContains: strPtr("vial")})
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	fail = true
	s.SetFilters(model.FilterCriteria{TitleContains: strPtr("salud")})
	_, err = s.Refresh(context.Background())
	require.Error(t, err)

	view, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, "title_contains=vial", view.Query)
	assert.Equal(t, "c-title_contains=vial", view.Page.Data[0].ID)

	filters, page, _ := s.State()
	assert.Equal(t, "salud", *filters.TitleContains)
	assert.Equal(t, 1, page)
}

func TestDashboardSessionDiscardsStaleResult(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	started := make(chan struct{})
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		if filters.TitleContains != nil && *filters.TitleContains == "lenta" {
			close(started)
			<-ctx.Done()
			return &ContractList{Contracts: contractsN(50)}, nil
		}
		return &ContractList{Contracts: contractsN(2)}, nil
	}
	s := NewDashboardSession(fetcher, testPagination())
	defer s.Close()

	s.SetFilters(model.FilterCriteria{TitleContains: strPtr("lenta")})
	slow := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		slow <- err
	}()
	<-started

	s.SetFilters(model.FilterCriteria{TitleContains: strPtr("rapida")})
	gen, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)

	assert.ErrorIs(t, <-slow, ErrStaleResult)

	view, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, 2, view.Stats.LocalCount)
	assert.Equal(t, uint64(2), view.Generation)
}

func TestDashboardSessionCloseCancelsFetch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	started := make(chan struct{})
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
		close(started)
		<-ctx.Done()
		return nil, &NetworkError{URL: "http://api.test", Err: ctx.Err()}
	}
	s := NewDashboardSession(fetcher, testPagination())

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		done <- err
	}()
	<-started

	s.Close()
	assert.ErrorIs(t, <-done, context.Canceled)
}
