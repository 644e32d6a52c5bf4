// Package report renders audit artifacts for external consumers.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const auditSheet = "Audit Trail"

// AuditExporter renders the workflow transition history of a synergy as an
// Excel workbook
type AuditExporter struct {
	logger *zap.Logger
}

// NewAuditExporter creates a new audit exporter
func NewAuditExporter(logger *zap.Logger) *AuditExporter {
	return &AuditExporter{logger: logger}
}

// Export renders the synergy header and its ordered transition list into a
// workbook and returns the serialized bytes
func (e *AuditExporter) Export(synergy *entity.Synergy, transitions []*entity.WorkflowTransition) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	e.setCell(f, "A1", "Synergy")
	e.setCell(f, "B1", fmt.Sprintf("#%d %s", synergy.ID, synergy.SynergyType))
	e.setCell(f, "A2", "Current State")
	e.setCell(f, "B2", synergy.Status.String())
	e.setCell(f, "A3", "Exported At")
	e.setCell(f, "B3", time.Now().UTC().Format(time.RFC3339))

	headers := []string{"Seq", "From", "To", "Action", "Actor", "Comment", "Recorded At"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		e.setCell(f, cell, header)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(auditSheet, "A5", "G5", style)
	}

	for i, t := range transitions {
		row := i + 6
		values := []interface{}{
			t.Sequence,
			t.FromState.String(),
			t.ToState.String(),
			t.Action.String(),
			actorDisplay(t),
			t.Comment,
			t.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(auditSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(auditSheet, "B", "G", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Audit trail exported",
		zap.Int64("synergy_id", synergy.ID),
		zap.Int("transitions", len(transitions)))
	return buf, nil
}

func (e *AuditExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(auditSheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell", zap.String("cell", cell), zap.Error(err))
	}
}

func actorDisplay(t *entity.WorkflowTransition) string {
	if t.ActorLabel != "" {
		return t.ActorLabel
	}
	return t.ActorID
}
