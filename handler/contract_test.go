package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubFetcher answers both listing and analysis calls from fixed data
type stubFetcher struct {
	list       *service.ContractList
	detail     *service.ContractDetail
	err        error
	gotFilters *model.FilterCriteria
	gotLimit   *int
	gotID      string
}

func (s *stubFetcher) FetchContracts(ctx context.Context, filters *model.FilterCriteria, limit *int) (*service.ContractList, error) {
	s.gotFilters = filters
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func (s *stubFetcher) FetchContractAnalysis(ctx context.Context, id string) (*service.ContractDetail, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func testContracts(n int) []model.Contract {
	out := make([]model.Contract, n)
	for i := range out {
		level := model.RiskLow
		if i%5 == 0 {
			level = model.RiskHigh
		}
		out[i] = model.Contract{
			ID:                 fmt.Sprintf("CO1.PCCNTR.%d", i+1),
			Title:              "Contrato",
			Entity:             "Alcaldía",
			Amount:             1000,
			RiskLevel:          level,
			AnomalyProbability: 50,
		}
	}
	return out
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Server.RateLimit = 0
	return cfg
}

func newTestRouter(stub *stubFetcher) *gin.Engine {
	return NewRouter(testConfig(), stub, stub)
}

func TestContractHandlerList(t *testing.T) {
	stub := &stubFetcher{list: &service.ContractList{
		Contracts: testContracts(25),
		Summary: model.ApiSummary{
			Source:          "SECOP II",
			SimulatedFields: []string{"anomaly"},
			TotalAnalyzed:   1500,
			TotalHighRisk:   120,
			TotalAmount:     9.85e10,
		},
	}}
	router := newTestRouter(stub)

	req := httptest.NewRequest("GET", "/api/contracts?page=3&page_size=10", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-cache, no-store, must-revalidate" {
		t.Errorf("Expected no-cache header, got '%s'", w.Header().Get("Cache-Control"))
	}

	var response listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(response.Contracts) != 5 {
		t.Fatalf("Expected 5 contracts on page 3, got %d", len(response.Contracts))
	}
	if response.Contracts[0].ID != "CO1.PCCNTR.21" {
		t.Errorf("Expected first item CO1.PCCNTR.21, got %s", response.Contracts[0].ID)
	}

	p := response.Pagination
	if p.Page != 3 || p.TotalPages != 3 || p.TotalItems != 25 {
		t.Errorf("Unexpected pagination: %+v", p)
	}
	if p.HasNextPage || !p.HasPrevPage {
		t.Errorf("Expected prev but no next, got %+v", p)
	}
	if p.StartItem != 21 || p.EndItem != 25 {
		t.Errorf("Expected items 21-25, got %d-%d", p.StartItem, p.EndItem)
	}
	if len(p.Pages) != 3 {
		t.Errorf("Expected 3 page links, got %d", len(p.Pages))
	}

	s := response.Stats
	if s.LocalCount != 25 || s.LocalHighRiskCount != 5 || s.LocalTotalAmount != 25000 {
		t.Errorf("Unexpected local stats: %+v", s.DashboardStats)
	}
	if s.TotalAnalyzed != 1500 || s.TotalHighRisk != 120 {
		t.Errorf("Expected server figures passed through, got %+v", s.DashboardStats)
	}
	if s.HighRiskPercent != 8 {
		t.Errorf("Expected 8%% high risk, got %v", s.HighRiskPercent)
	}
	if s.TotalAmountLabel != "$98.5B" {
		t.Errorf("Expected $98.5B, got %s", s.TotalAmountLabel)
	}

	if response.Metadata.Source != "SECOP II" || len(response.Metadata.SimulatedFields) != 1 {
		t.Errorf("Unexpected metadata: %+v", response.Metadata)
	}
}

func TestContractHandlerListPassesFilters(t *testing.T) {
	stub := &stubFetcher{list: &service.ContractList{Contracts: testContracts(3)}}
	router := newTestRouter(stub)

	req := httptest.NewRequest("GET",
		"/api/contracts?date_from=2024-01-01&min_amount=0&max_amount=5000000&title_contains=vial&contract_id=%20&limit=40", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	f := stub.gotFilters
	if f == nil {
		t.Fatal("Expected filters to be passed")
	}
	if f.DateFrom == nil || *f.DateFrom != "2024-01-01" {
		t.Errorf("Unexpected date_from %v", f.DateFrom)
	}
	if f.DateTo != nil {
		t.Errorf("Expected absent date_to, got %v", *f.DateTo)
	}
	if f.MinAmount == nil || *f.MinAmount != 0 {
		t.Error("Expected zero minimum to be kept")
	}
	if f.ContractID != nil {
		t.Error("Expected blank contract_id to be absent")
	}
	if stub.gotLimit == nil || *stub.gotLimit != 40 {
		t.Errorf("Expected limit 40, got %v", stub.gotLimit)
	}
}

func TestContractHandlerListBadRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"page zero", "page=0"},
		{"page text", "page=abc"},
		{"negative page size", "page_size=-10"},
		{"page size not offered", "page_size=7"},
		{"amount text", "min_amount=mucho"},
		{"bad date", "date_to=31/12/2024"},
		{"limit text", "limit=all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubFetcher{list: &service.ContractList{}}
			router := newTestRouter(stub)

			req := httptest.NewRequest("GET", "/api/contracts?"+tt.query, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}

			var body map[string]string
			json.Unmarshal(w.Body.Bytes(), &body)
			if body["code"] != "bad_request" {
				t.Errorf("Expected code bad_request, got '%s'", body["code"])
			}
			if stub.gotFilters != nil {
				t.Error("Expected no upstream call for a bad request")
			}
		})
	}
}

func TestContractHandlerListPastEnd(t *testing.T) {
	stub := &stubFetcher{list: &service.ContractList{Contracts: testContracts(5)}}
	router := newTestRouter(stub)

	req := httptest.NewRequest("GET", "/api/contracts?page=9", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response listResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	if len(response.Contracts) != 0 || response.Pagination.Page != 9 {
		t.Errorf("Expected empty page 9, got %d items on page %d", len(response.Contracts), response.Pagination.Page)
	}
	if response.Stats.LocalCount != 5 {
		t.Errorf("Expected stats over all 5 contracts, got %d", response.Stats.LocalCount)
	}
}

func TestContractHandlerListHugePage(t *testing.T) {
	stub := &stubFetcher{list: &service.ContractList{Contracts: testContracts(25)}}
	router := newTestRouter(stub)

	req := httptest.NewRequest("GET", "/api/contracts?page=922337203685477582", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response listResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	if len(response.Contracts) != 0 {
		t.Errorf("Expected empty page, got %d items", len(response.Contracts))
	}
	if response.Pagination.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", response.Pagination.TotalPages)
	}
}

func TestContractHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"network", &service.NetworkError{URL: "http://api", Err: errors.New("connection refused")}, http.StatusServiceUnavailable, "upstream_unavailable"},
		{"http", &service.HTTPError{URL: "http://api", StatusCode: 500, Status: "Internal Server Error"}, http.StatusBadGateway, "upstream_error"},
		{"schema", &service.SchemaError{Reason: "missing contracts array"}, http.StatusBadGateway, "upstream_error"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubFetcher{err: tt.err})

			req := httptest.NewRequest("GET", "/api/contracts", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if body["code"] != tt.expectedCode {
				t.Errorf("Expected code %s, got '%s'", tt.expectedCode, body["code"])
			}
			if body["request_id"] == "" {
				t.Error("Expected request_id in error body")
			}
		})
	}
}

func TestContractHandlerAnalysis(t *testing.T) {
	stub := &stubFetcher{detail: &service.ContractDetail{
		Contract: model.Contract{ID: "CO1.PCCNTR.1370606", RiskLevel: model.RiskHigh},
		Analysis: model.ContractAnalysis{
			ContractID: "CO1.PCCNTR.1370606",
			Summary:    "Duración atípica",
			ShapValues: []model.ShapValue{{Variable: "oferentes", Value: -11.5}},
		},
	}}
	router := newTestRouter(stub)

	req := httptest.NewRequest("GET", "/api/contracts/CO1.PCCNTR.1370606/analysis", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if stub.gotID != "CO1.PCCNTR.1370606" {
		t.Errorf("Expected ID to be passed, got '%s'", stub.gotID)
	}

	var response service.ContractDetail
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Analysis.Summary != "Duración atípica" {
		t.Errorf("Unexpected summary '%s'", response.Analysis.Summary)
	}
	if len(response.Analysis.ShapValues) != 1 {
		t.Errorf("Expected 1 SHAP value, got %d", len(response.Analysis.ShapValues))
	}
}

func TestContractHandlerAnalysisNotFound(t *testing.T) {
	notFound := &service.NotFoundError{
		ContractID: "CO1.MISSING.1",
		HTTP:       &service.HTTPError{StatusCode: 404, Status: "Not Found"},
	}
	router := newTestRouter(&stubFetcher{err: notFound})

	req := httptest.NewRequest("GET", "/api/contracts/CO1.MISSING.1/analysis", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != `contract with ID "CO1.MISSING.1" not found` {
		t.Errorf("Unexpected error message '%s'", body["error"])
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubFetcher{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got '%s'", body["status"])
	}
}
