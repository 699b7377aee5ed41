package handler

import (
	"net/http"
	"strings"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/middleware"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contracts  service.ContractFetcher
	analyses   service.AnalysisFetcher
	pagination *config.PaginationConfig
}

func NewContractHandler(contracts service.ContractFetcher, analyses service.AnalysisFetcher, pagination *config.PaginationConfig) *ContractHandler {
	return &ContractHandler{
		contracts:  contracts,
		analyses:   analyses,
		pagination: pagination,
	}
}

type listResponse struct {
	Contracts  []model.Contract `json:"contracts"`
	Pagination paginationInfo   `json:"pagination"`
	Stats      statsInfo        `json:"stats"`
	Metadata   metadataInfo     `json:"metadata"`
}

type paginationInfo struct {
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
	TotalItems  int                `json:"total_items"`
	TotalPages  int                `json:"total_pages"`
	HasNextPage bool               `json:"has_next_page"`
	HasPrevPage bool               `json:"has_prev_page"`
	Pages       []service.PageLink `json:"pages"`
	StartItem   int                `json:"start_item"`
	EndItem     int                `json:"end_item"`
}

type statsInfo struct {
	service.DashboardStats
	HighRiskPercent  float64 `json:"high_risk_percent"`
	TotalAmountLabel string  `json:"total_amount_label"`
}

type metadataInfo struct {
	Source          string   `json:"source"`
	SimulatedFields []string `json:"simulated_fields"`
}

// List fetches the filtered contracts and returns one page plus statistics
// over the whole filtered collection
func (h *ContractHandler) List(c *gin.Context) {
	req, err := parseListRequest(c, h.pagination.DefaultPageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	pagination := *h.pagination
	if req.Limit != nil {
		pagination.FetchLimit = *req.Limit
		if pagination.FetchLimit < 1 {
			pagination.FetchLimit = 1
		}
	}

	session := service.NewDashboardSession(h.contracts, &pagination)
	defer session.Close()

	session.SetFilters(req.Filters)
	if err := session.SetPageSize(req.PageSize); err != nil {
		writeError(c, err)
		return
	}
	session.SetPage(req.Page)

	if _, err := session.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	view, err := session.View()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(view))
}

func newListResponse(view *service.DashboardView) listResponse {
	start, end := view.Page.Range()
	simulated := view.Summary.SimulatedFields
	if simulated == nil {
		simulated = []string{}
	}

	return listResponse{
		Contracts: view.Page.Data,
		Pagination: paginationInfo{
			Page:        view.Page.Page,
			PageSize:    view.Page.PageSize,
			TotalItems:  view.Page.TotalItems,
			TotalPages:  view.Page.TotalPages,
			HasNextPage: view.Page.HasNextPage,
			HasPrevPage: view.Page.HasPrevPage,
			Pages:       view.Pages,
			StartItem:   start,
			EndItem:     end,
		},
		Stats: statsInfo{
			DashboardStats:   view.Stats,
			HighRiskPercent:  view.Stats.HighRiskPercent(),
			TotalAmountLabel: service.FormatLargeAmount(view.Stats.TotalAmountReported),
		},
		Metadata: metadataInfo{
			Source:          view.Summary.Source,
			SimulatedFields: simulated,
		},
	}
}

// Analysis returns one contract with its risk explanation
func (h *ContractHandler) Analysis(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, middleware.CodeBadRequest, "Contract ID is required")
		return
	}

	detail, err := h.analyses.FetchContractAnalysis(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
