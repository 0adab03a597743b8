package model

import "time"

// ClusterLabel is the LISA cluster category assigned to a spatial unit.
type ClusterLabel string

const (
	LabelHighHigh       ClusterLabel = "High-High"
	LabelLowLow         ClusterLabel = "Low-Low"
	LabelHighLow        ClusterLabel = "High-Low"
	LabelLowHigh        ClusterLabel = "Low-High"
	LabelNotSignificant ClusterLabel = "Not Significant"
)

// LocalStatistics holds the local Moran's I result for one spatial unit.
// ZValue is the standardized attribute value and Lag its spatial lag; the
// (ZValue, Lag) pair is what Moran scatter plots render.
type LocalStatistics struct {
	UnitID string  `json:"unit_id"`
	ZValue float64 `json:"z_value"`
	Lag    float64 `json:"lag"`
	I      float64 `json:"local_i"`
	ZScore float64 `json:"z_score"`
	P      float64 `json:"p_value"`
}

// GlobalStatistic holds the global Moran's I result for one variable.
type GlobalStatistic struct {
	Variable   string  `json:"variable"`
	N          int     `json:"n"`
	I          float64 `json:"i"`
	Expected   float64 `json:"expected_i"`
	Variance   float64 `json:"variance"`
	ZScore     float64 `json:"z_score"`
	P          float64 `json:"p_value"`
	Assumption string  `json:"assumption"`
}

// UnitResult is the per-unit output row appended to the attribute table:
// the raw value, the local statistics, and the assigned cluster label.
type UnitResult struct {
	UnitID string          `json:"unit_id"`
	Name   string          `json:"name,omitempty"`
	Value  float64         `json:"value"`
	Local  LocalStatistics `json:"local"`
	Label  ClusterLabel    `json:"label"`
}

// Significant reports whether the unit was assigned a directional cluster.
func (r UnitResult) Significant() bool {
	return r.Label != LabelNotSignificant
}

// AnalysisRun records one pipeline invocation for one variable.
type AnalysisRun struct {
	ID        string           `json:"id"`
	Variable  string           `json:"variable"`
	Alpha     float64          `json:"alpha"`
	Config    string           `json:"config"` // JSON snapshot of the pipeline configuration
	Global    *GlobalStatistic `json:"global,omitempty"`
	Units     []UnitResult     `json:"units,omitempty"`
	N         int              `json:"n"`
	Islands   int              `json:"islands"`
	CreatedAt time.Time        `json:"created_at"`
}
