package entity

import (
	"time"

	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
)

// Synergy represents a potential synergy opportunity between two companies
// in a deal. Its workflow status is never stored on the row; it is derived
// from the latest workflow transition and surfaced on reads.
type Synergy struct {
	ID              int64          `json:"id"`
	Company1ID      int64          `json:"company1_id"`
	Company2ID      int64          `json:"company2_id"`
	DealID          *int64         `json:"deal_id,omitempty"`
	SynergyType     string         `json:"synergy_type"`
	Description     string         `json:"description"`
	ValueLow        *int64         `json:"value_low,omitempty"`
	ValueHigh       *int64         `json:"value_high,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	Status          workflow.State `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SynergyMetric is one line item of the value breakdown behind a synergy
// estimate
type SynergyMetric struct {
	ID          int64     `json:"id"`
	SynergyID   int64     `json:"synergy_id"`
	Category    string    `json:"category"`
	LineItem    string    `json:"line_item"`
	Value       int64     `json:"value"`
	Unit        string    `json:"unit"`
	Description string    `json:"description,omitempty"`
	Confidence  string    `json:"confidence,omitempty"`
	Assumption  string    `json:"assumption,omitempty"`
	DataSource  string    `json:"data_source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
