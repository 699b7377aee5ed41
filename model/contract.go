package model

import (
	"strings"
	"time"
)

// RiskLevel is the coarse risk tier assigned by the scoring model
type RiskLevel string

// RiskLevel constants
const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// ParseRiskLevel maps the API's localized tier names onto RiskLevel.
// ok is false when the value is not recognized.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alto", "high":
		return RiskHigh, true
	case "medio", "medium":
		return RiskMedium, true
	case "bajo", "low":
		return RiskLow, true
	}
	return RiskLow, false
}

// Label returns the display label used by the dashboard
func (r RiskLevel) Label() string {
	switch r {
	case RiskHigh:
		return "Alto"
	case RiskMedium:
		return "Medio"
	default:
		return "Bajo"
	}
}

// Contract is a public procurement contract normalized from the scoring API
type Contract struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Entity             string     `json:"entity"`
	Amount             int64      `json:"amount"`
	SignedDate         *time.Time `json:"signed_date"`
	RiskLevel          RiskLevel  `json:"risk_level"`
	AnomalyProbability int        `json:"anomaly_probability"`
	Contractor         *string    `json:"contractor,omitempty"`
	Description        *string    `json:"description,omitempty"`
}

// FilterCriteria narrows a contract listing. Nil fields mean "no constraint".
type FilterCriteria struct {
	DateFrom      *string `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo        *string `json:"date_to,omitempty"`   // YYYY-MM-DD
	MinAmount     *int64  `json:"min_amount,omitempty"`
	MaxAmount     *int64  `json:"max_amount,omitempty"`
	TitleContains *string `json:"title_contains,omitempty"` // at least 3 characters
	ContractID    *string `json:"contract_id,omitempty"`
}

// ApiSummary carries the server-wide figures reported alongside a listing
type ApiSummary struct {
	Source          string   `json:"source"`
	SimulatedFields []string `json:"simulated_fields"`
	TotalAnalyzed   int      `json:"total_analyzed"`
	TotalHighRisk   int      `json:"total_high_risk"`
	TotalAmount     float64  `json:"total_amount"`
}
