package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/pkg/logger"
	"github.com/shopspring/decimal"
)

// ContractFetcher retrieves filtered contract listings
type ContractFetcher interface {
	FetchContracts(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error)
}

// AnalysisFetcher retrieves the explanation for one contract
type AnalysisFetcher interface {
	FetchContractAnalysis(ctx context.Context, contractID string) (*ContractDetail, error)
}

// ContractList is a normalized listing with the server-wide summary
type ContractList struct {
	Contracts []model.Contract `json:"contracts"`
	Summary   model.ApiSummary `json:"summary"`
	Query     string           `json:"query"`
}

// ContractDetail is a normalized single-contract analysis
type ContractDetail struct {
	Contract model.Contract         `json:"contract"`
	Analysis model.ContractAnalysis `json:"analysis"`
}

// RadarService talks to the RadarCol scoring API
type RadarService struct {
	config     *config.APIConfig
	httpClient *http.Client
}

// apiContractsResponse is the envelope returned by the contracts endpoint
type apiContractsResponse struct {
	Metadata struct {
		Source          string   `json:"source"`
		SimulatedFields []string `json:"simulatedFields"`
	} `json:"metadata"`
	TotalAnalyzed int            `json:"totalAnalyzed"`
	TotalHighRisk int            `json:"totalHighRisk"`
	TotalAmount   float64        `json:"totalAmount"`
	Contracts     *[]apiContract `json:"contracts"`
}

type apiContract struct {
	Contract struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"contract"`
	Entity     string    `json:"entity"`
	Amount     apiAmount `json:"amount"`
	StartDate  *string   `json:"startDate"`
	RiskLevel  string    `json:"riskLevel"`
	Anomaly    float64   `json:"anomaly"`
	Contractor *string   `json:"contractor,omitempty"`
	Object     *string   `json:"object,omitempty"`
}

// apiAnalysisResponse is the envelope returned by the analysis endpoint
type apiAnalysisResponse struct {
	Contract *struct {
		ID          string    `json:"id"`
		Code        string    `json:"code"`
		Description string    `json:"description"`
		Entity      string    `json:"entity"`
		Amount      apiAmount `json:"amount"`
		StartDate   *string   `json:"startDate"`
		RiskLevel   string    `json:"riskLevel"`
		Anomaly     float64   `json:"anomaly"`
	} `json:"contract"`
	Analysis *struct {
		ContractID      string   `json:"contractId"`
		Summary         string   `json:"summary"`
		KeyFactors      []string `json:"keyFactors"`
		Recommendations []string `json:"recommendations"`
		ShapValues      []struct {
			Variable    string  `json:"variable"`
			Value       float64 `json:"value"`
			Description string  `json:"description"`
			ActualValue any     `json:"actualValue"`
		} `json:"shapValues"`
		BaseProbability float64 `json:"baseProbability"`
		Confidence      float64 `json:"confidence"`
		AnalysisDate    string  `json:"analysisDate"`
	} `json:"analysis"`
}

// apiAmount accepts the amount as a JSON string ("$ 1.250.000") or number
type apiAmount string

func (a *apiAmount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = apiAmount(s)
		return nil
	}
	*a = apiAmount(data)
	return nil
}

func NewRadarService(cfg *config.APIConfig) *RadarService {
	return NewRadarServiceWithClient(cfg, &http.Client{
		Timeout: cfg.Timeout(),
	})
}

// NewRadarServiceWithClient uses client for every call, so callers can supply
// their own transport
func NewRadarServiceWithClient(cfg *config.APIConfig, client *http.Client) *RadarService {
	return &RadarService{
		config:     cfg,
		httpClient: client,
	}
}

// BaseURL returns the API root this service calls
func (s *RadarService) BaseURL() string {
	return s.config.BaseURL
}

// FetchContracts lists contracts matching filters. limit is optional.
func (s *RadarService) FetchContracts(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
	query := BuildQuery(filters, limit).Encode()

	endpoint := s.config.BaseURL + s.config.ContractsPath
	if query != "" {
		endpoint += "?" + query
	}

	body, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var envelope apiContractsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &SchemaError{Reason: "failed to parse contracts response", Err: err}
	}
	if envelope.Contracts == nil {
		return nil, &SchemaError{Reason: "missing contracts array"}
	}

	contracts := make([]model.Contract, 0, len(*envelope.Contracts))
	for i, raw := range *envelope.Contracts {
		contract, err := s.normalizeContract(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", i, err)
		}
		contracts = append(contracts, contract)
	}

	simulated := envelope.Metadata.SimulatedFields
	if simulated == nil {
		simulated = []string{}
	}

	logger.Debug(ctx, "contracts fetched",
		"query", query,
		"count", len(contracts),
		"total_analyzed", envelope.TotalAnalyzed,
	)

	return &ContractList{
		Contracts: contracts,
		Summary: model.ApiSummary{
			Source:          envelope.Metadata.Source,
			SimulatedFields: simulated,
			TotalAnalyzed:   envelope.TotalAnalyzed,
			TotalHighRisk:   envelope.TotalHighRisk,
			TotalAmount:     envelope.TotalAmount,
		},
		Query: query,
	}, nil
}

// FetchContractAnalysis returns the contract and its AI explanation.
// An unknown ID fails with *NotFoundError.
func (s *RadarService) FetchContractAnalysis(ctx context.Context, contractID string) (*ContractDetail, error) {
	endpoint := s.config.BaseURL + fmt.Sprintf(s.config.AnalysisPath, url.PathEscape(contractID))

	body, err := s.get(ctx, endpoint)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{ContractID: contractID, HTTP: httpErr}
		}
		return nil, err
	}

	var envelope apiAnalysisResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &SchemaError{Reason: "failed to parse analysis response", Err: err}
	}
	if envelope.Contract == nil || envelope.Analysis == nil {
		return nil, &SchemaError{Reason: "missing contract or analysis data"}
	}

	c := envelope.Contract
	id := c.Code
	if id == "" {
		id = c.ID
	}

	raw := apiContract{
		Entity:    c.Entity,
		Amount:    c.Amount,
		StartDate: c.StartDate,
		RiskLevel: c.RiskLevel,
		Anomaly:   c.Anomaly,
	}
	raw.Contract.Code = id
	raw.Contract.Description = c.Description

	contract, err := s.normalizeContract(ctx, raw)
	if err != nil {
		return nil, err
	}

	a := envelope.Analysis
	// zero when absent or unparseable
	var analysisDate time.Time
	if strings.TrimSpace(a.AnalysisDate) != "" {
		if t, err := parseAPITime(a.AnalysisDate); err == nil {
			analysisDate = t
		} else {
			logger.Warn(ctx, "unparseable analysis date, leaving it empty",
				"contract_id", contract.ID,
				"analysis_date", a.AnalysisDate,
			)
		}
	}

	shap := make([]model.ShapValue, 0, len(a.ShapValues))
	for _, v := range a.ShapValues {
		shap = append(shap, model.ShapValue{
			Variable:    v.Variable,
			Value:       v.Value,
			Description: v.Description,
			ActualValue: v.ActualValue,
		})
	}
	model.SortShapValues(shap)

	logger.Debug(ctx, "contract analysis fetched",
		"contract_id", contract.ID,
		"risk_level", contract.RiskLevel,
		"shap_values", len(shap),
	)

	return &ContractDetail{
		Contract: contract,
		Analysis: model.ContractAnalysis{
			ContractID:      a.ContractID,
			Summary:         a.Summary,
			KeyFactors:      nonNilStrings(a.KeyFactors),
			Recommendations: nonNilStrings(a.Recommendations),
			ShapValues:      shap,
			BaseProbability: a.BaseProbability,
			Confidence:      a.Confidence,
			AnalysisDate:    analysisDate,
		},
	}, nil
}

// get performs a GET and returns the body of a 2xx response
func (s *RadarService) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	logger.Debug(ctx, "calling radar API", "url", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	return body, nil
}

func (s *RadarService) normalizeContract(ctx context.Context, raw apiContract) (model.Contract, error) {
	level, ok := model.ParseRiskLevel(raw.RiskLevel)
	if !ok {
		if s.config.StrictRiskLevels {
			return model.Contract{}, &SchemaError{
				Reason: fmt.Sprintf("unknown risk level %q for contract %s", raw.RiskLevel, raw.Contract.Code),
			}
		}
		logger.Warn(ctx, "unknown risk level, treating as low",
			"contract_id", raw.Contract.Code,
			"risk_level", raw.RiskLevel,
		)
	}

	amount, err := ParseAmount(string(raw.Amount))
	if err != nil {
		return model.Contract{}, &SchemaError{Reason: "invalid amount for contract " + raw.Contract.Code, Err: err}
	}

	var signed *time.Time
	if raw.StartDate != nil && strings.TrimSpace(*raw.StartDate) != "" {
		t, err := parseAPITime(*raw.StartDate)
		if err != nil {
			logger.Warn(ctx, "unparseable start date, leaving it empty",
				"contract_id", raw.Contract.Code,
				"start_date", *raw.StartDate,
			)
		} else {
			signed = &t
		}
	}

	return model.Contract{
		ID:                 raw.Contract.Code,
		Title:              raw.Contract.Description,
		Entity:             raw.Entity,
		Amount:             amount,
		SignedDate:         signed,
		RiskLevel:          level,
		AnomalyProbability: int(math.Round(raw.Anomaly)),
		Contractor:         raw.Contractor,
		Description:        raw.Object,
	}, nil
}

// ParseAmount reads a whole currency amount from API text such as "1250000",
// "$ 1,250,000.00" or "1.250.000". Fractional units are truncated and negative
// amounts are rejected.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	// more than one dot means dots are thousands separators
	if strings.Count(cleaned, ".") > 1 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	return d.IntPart(), nil
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseAPITime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range apiTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
