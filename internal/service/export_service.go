package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ExportQuery describes a reporting request: either a duration preset
// (all, day, month) or an explicit start/end pair with an inclusive end date.
type ExportQuery struct {
	Duration string
	Start    *time.Time
	End      *time.Time
	Format   string
}

// ExportResult carries the rendered report.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders ticket reports over a date range.
type ExportService struct {
	tickets repository.TicketRepository
}

// NewExportService constructs the service.
func NewExportService(tickets repository.TicketRepository) *ExportService {
	return &ExportService{tickets: tickets}
}

var exportHeader = []string{
	"createdAt", "companyName", "name", "email", "phoneNumber", "landlineNumber",
	"department", "issue", "priority", "Problem", "AMC", "partName", "ServiceType",
	"resolved", "assignedEngineer", "solvedAt", "remarks",
}

// Export produces a report of tickets created within the requested range.
// Admin only.
func (s *ExportService) Export(ctx context.Context, caller Caller, query ExportQuery) (*ExportResult, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	start, end, label, err := resolveExportRange(time.Now(), query)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	switch query.Format {
	case ExportFormatXLSX:
		data, err := renderXLSX(tickets)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("tickets_%s.xlsx", label),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case ExportFormatCSV, "":
		data, err := renderCSV(tickets)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("tickets_%s.csv", label),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
	return nil, apperrors.NewValidationError("unsupported export format", map[string]any{"format": query.Format})
}

// resolveExportRange maps a query to a concrete [start, end] window. Zero
// times mean unbounded. The explicit end date is inclusive: it is extended to
// the end of its day.
func resolveExportRange(now time.Time, query ExportQuery) (start, end time.Time, label string, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch query.Duration {
	case "all":
		return time.Time{}, time.Time{}, "all", nil
	case "day":
		return today, endOfDay(today), "day", nil
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return first, endOfDay(last), "month", nil
	case "":
		if query.Start == nil || query.End == nil {
			return time.Time{}, time.Time{}, "", apperrors.NewValidationError("start and end are required without a duration", nil)
		}
		if query.End.Before(*query.Start) {
			return time.Time{}, time.Time{}, "", apperrors.NewValidationError("end precedes start", nil)
		}
		label = fmt.Sprintf("%s_to_%s", query.Start.Format("2006-01-02"), query.End.Format("2006-01-02"))
		return *query.Start, endOfDay(*query.End), label, nil
	}
	return time.Time{}, time.Time{}, "", apperrors.NewValidationError("invalid duration", map[string]any{"duration": query.Duration})
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func renderCSV(tickets []domain.Ticket) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range tickets {
		if err := w.Write(exportRow(&tickets[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(tickets []domain.Ticket) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(exportHeader))
	for i, col := range exportHeader {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i := range tickets {
		row := exportRow(&tickets[i])
		cells := make([]interface{}, len(row))
		for j, val := range row {
			cells[j] = val
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRow(t *domain.Ticket) []string {
	assigned := ""
	if t.AssignedEngineer != nil {
		assigned = *t.AssignedEngineer
	}
	solvedAt := ""
	if t.SolvedAt != nil {
		solvedAt = t.SolvedAt.Format(time.RFC3339)
	}
	return []string{
		t.CreatedAt.Format(time.RFC3339),
		t.CompanyName,
		t.Name,
		t.Email,
		t.PhoneNumber,
		t.LandlineNumber,
		t.Department,
		t.Issue,
		string(t.Priority),
		t.Problem,
		string(t.AMC),
		t.PartName,
		string(t.ServiceType),
		strconv.FormatBool(t.Resolved),
		assigned,
		solvedAt,
		t.Remarks,
	}
}
