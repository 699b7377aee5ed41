package service

import (
	"fmt"
	"math"

	"github.com/JairPrada/radarcol-tfm/model"
)

// DashboardStats keeps the figures for the locally held contracts apart from the
// figures the server reports for its whole population. The two are never mixed.
type DashboardStats struct {
	LocalCount          int   `json:"local_count"`
	LocalHighRiskCount  int   `json:"local_high_risk_count"`
	LocalTotalAmount    int64 `json:"local_total_amount"`
	LocalAverageAnomaly int   `json:"local_average_anomaly"`

	TotalAnalyzed       int     `json:"total_analyzed"`
	TotalHighRisk       int     `json:"total_high_risk"`
	TotalAmountReported float64 `json:"total_amount_reported"`
}

// ComputeStats aggregates the full, unpaginated collection and passes the
// server summary through unchanged
func ComputeStats(contracts []model.Contract, summary model.ApiSummary) DashboardStats {
	stats := DashboardStats{
		LocalCount:          len(contracts),
		TotalAnalyzed:       summary.TotalAnalyzed,
		TotalHighRisk:       summary.TotalHighRisk,
		TotalAmountReported: summary.TotalAmount,
	}

	for _, c := range contracts {
		if c.RiskLevel == model.RiskHigh {
			stats.LocalHighRiskCount++
		}
		stats.LocalTotalAmount += c.Amount
	}

	stats.LocalAverageAnomaly = AverageAnomaly(contracts)
	return stats
}

// AverageAnomaly is the mean anomaly probability rounded to the nearest integer, 0 for no contracts
func AverageAnomaly(contracts []model.Contract) int {
	if len(contracts) == 0 {
		return 0
	}
	sum := 0
	for _, c := range contracts {
		sum += c.AnomalyProbability
	}
	return int(math.Round(float64(sum) / float64(len(contracts))))
}

// HighRiskPercent is the server-wide share of high risk contracts, 0 when nothing was analyzed
func (s DashboardStats) HighRiskPercent() float64 {
	if s.TotalAnalyzed == 0 {
		return 0
	}
	return float64(s.TotalHighRisk) / float64(s.TotalAnalyzed) * 100
}

// FormatLargeAmount abbreviates an amount to trillions, billions or millions
func FormatLargeAmount(amount float64) string {
	switch {
	case amount >= 1e12:
		return fmt.Sprintf("$%.1fT", amount/1e12)
	case amount >= 1e9:
		return fmt.Sprintf("$%.1fB", amount/1e9)
	default:
		return fmt.Sprintf("$%.0fM", amount/1e6)
	}
}
