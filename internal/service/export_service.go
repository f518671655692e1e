package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

var ErrExportGenerateFail = errors.New("failed to generate export file")

const statisticsSheet = "Statistics"

// ExportService renders statistics reports as downloadable files. Columns are
// identity first, then the counters, then one column per grade label.
type ExportService struct {
	log zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(log zerolog.Logger) *ExportService {
	return &ExportService{log: log.With().Str("component", "export_service").Logger()}
}

// StatisticsHeader returns the column titles of a report export.
func StatisticsHeader(report *StatisticsReport) []string {
	header := []string{
		"login", "firstname", "lastname", "matriculation",
		"count", "final", "not_attended", "passed", "not_passed",
		"not_passed_quota", "average_points",
	}
	return append(header, report.GradeLabels...)
}

// StatisticsRecords returns one record per participant row, formatted as text.
// Missing ratios and averages are empty; untracked attendance is 0.
func StatisticsRecords(report *StatisticsReport) [][]string {
	records := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		st := row.Statistics
		notAttended := 0
		if st.NotAttendedCount != nil {
			notAttended = *st.NotAttendedCount
		}

		rec := []string{
			row.Login, row.Firstname, row.Lastname, row.Matriculation,
			strconv.Itoa(st.Count),
			strconv.Itoa(st.FinalCount),
			strconv.Itoa(notAttended),
			strconv.Itoa(st.PassedCount),
			strconv.Itoa(st.NotPassedCount),
			formatOptional(st.NotPassedQuota),
			formatOptional(st.AveragePoints),
		}

		counts := make(map[string]int, len(row.Grades))
		for _, g := range row.Grades {
			counts[g.Grade] = g.Count
		}
		for _, label := range report.GradeLabels {
			rec = append(rec, strconv.Itoa(counts[label]))
		}
		records = append(records, rec)
	}
	return records
}

// WriterStatisticsCSV renders the report as ';' separated CSV.
func (s *ExportService) WriterStatisticsCSV(report *StatisticsReport) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	w.Comma = ';'

	if err := w.Write(StatisticsHeader(report)); err != nil {
		s.log.Error().Err(err).Msg("failed to write csv header")
		return nil, "", ErrExportGenerateFail
	}
	if err := w.WriteAll(StatisticsRecords(report)); err != nil {
		s.log.Error().Err(err).Msg("failed to write csv records")
		return nil, "", ErrExportGenerateFail
	}

	return buf, exportFilename(report, "csv"), nil
}

// WriterStatisticsXLSX renders the report as an Excel workbook with one sheet.
// Counters are written as numbers so the sheet can be summed.
func (s *ExportService) WriterStatisticsXLSX(report *StatisticsReport) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(statisticsSheet)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create sheet")
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	header := StatisticsHeader(report)
	for i, title := range header {
		_ = f.SetCellValue(statisticsSheet, cellName(i, 1), title)
	}
	_ = f.SetCellStyle(statisticsSheet, cellName(0, 1), cellName(len(header)-1, 1), headerStyle)
	_ = f.SetColWidth(statisticsSheet, colName(0), colName(3), 18)

	for r, row := range report.Rows {
		line := r + 2
		st := row.Statistics
		values := []any{
			row.Login, row.Firstname, row.Lastname, row.Matriculation,
			st.Count, st.FinalCount, optionalInt(st.NotAttendedCount), st.PassedCount, st.NotPassedCount,
			optionalRounded(st.NotPassedQuota), optionalRounded(st.AveragePoints),
		}
		counts := make(map[string]int, len(row.Grades))
		for _, g := range row.Grades {
			counts[g.Grade] = g.Count
		}
		for _, label := range report.GradeLabels {
			values = append(values, counts[label])
		}
		for c, v := range values {
			if err := f.SetCellValue(statisticsSheet, cellName(c, line), v); err != nil {
				s.log.Error().Err(err).Int("row", line).Msg("failed to write cell")
				return nil, "", ErrExportGenerateFail
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.log.Error().Err(err).Msg("failed to write xlsx")
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(report, "xlsx"), nil
}

func exportFilename(report *StatisticsReport, ext string) string {
	return fmt.Sprintf("statistics_%s_%s.%s",
		report.GeneratedAt.Format("20060102-150405"), uuid.NewString()[:8], ext)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func optionalInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// optionalRounded returns "" for a missing value so the cell stays empty.
func optionalRounded(v *float64) any {
	if v == nil {
		return ""
	}
	r, _ := strconv.ParseFloat(fmt.Sprintf("%.2f", *v), 64)
	return r
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
