package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

const sheet = "Tickets"

// Service produces XLSX bytes for a user's ticket records.
type Service struct {
	records repository.RecordRepository
	fields  []string
	logger  *slog.Logger
}

// NewService builds an exporter. fields selects and orders the field columns.
func NewService(records repository.RecordRepository, fields []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, fields: fields, logger: logger}
}

// ExportRecordsXLSX returns a workbook of every record the user owns, newest first.
func (s *Service) ExportRecordsXLSX(ctx context.Context, userID string) ([]byte, error) {
	start := time.Now()
	recs, err := s.records.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	b, err := s.Write(recs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// Write renders recs without touching storage.
func (s *Service) Write(recs []*entity.TicketRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	headers := append([]string{}, s.fields...)
	headers = append(headers, "source", "file", "confidence", "created_at")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		for j, name := range s.fields {
			write(j+1, r.Field(name))
		}
		base := len(s.fields)
		write(base+1, string(r.Source))
		write(base+2, r.FileName)
		write(base+3, fmt.Sprintf("%.2f", r.Confidence))
		write(base+4, r.CreatedAt.Format(time.RFC3339))
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", last, 18)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
