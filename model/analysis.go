package model

import (
	"math"
	"sort"
	"time"
)

// ShapValue is one feature's contribution to the anomaly probability, in percentage points.
// Positive values push the probability up.
type ShapValue struct {
	Variable    string  `json:"variable"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	ActualValue any     `json:"actual_value,omitempty"` // string or number
}

// ContractAnalysis is the AI explanation for a single contract
type ContractAnalysis struct {
	ContractID      string      `json:"contract_id"`
	Summary         string      `json:"summary"`
	KeyFactors      []string    `json:"key_factors"`
	Recommendations []string    `json:"recommendations"`
	ShapValues      []ShapValue `json:"shap_values"`
	BaseProbability float64     `json:"base_probability"`
	Confidence      float64     `json:"confidence"`
	AnalysisDate    time.Time   `json:"analysis_date"`
}

// SortShapValues orders values by absolute impact, largest first.
// Ties keep their original order.
func SortShapValues(values []ShapValue) {
	sort.SliceStable(values, func(i, j int) bool {
		return math.Abs(values[i].Value) > math.Abs(values[j].Value)
	})
}
