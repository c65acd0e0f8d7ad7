package begehung

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the worksheet name of XLSX exports.
	SheetName = "Inspections"

	FilteredCSVName  = "begehungen_gefiltert.csv"
	FilteredXLSXName = "begehungen_gefiltert.xlsx"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVContentType  = "text/csv"
)

// TemplateColumns is the header of template CSV files.
var TemplateColumns = []string{"group", "text", "unit", "default-status"}

// ExportCSV writes a header row and one line per record. Output depends only on
// the records and their order.
func ExportCSV(records []InspectionRecord) ([]byte, error) {
	header := headerFor(records)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	line := make([]string, len(header))
	for _, r := range records {
		for i, c := range header {
			line[i] = r.Field(c)
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX writes the records to a single-sheet workbook with the same
// columns as ExportCSV and no index column.
func ExportXLSX(records []InspectionRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}
	header := headerFor(records)
	if err := sw.SetRow("A1", stringCells(header)); err != nil {
		return nil, err
	}
	line := make([]string, len(header))
	for i, r := range records {
		for j, c := range header {
			line[j] = r.Field(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, stringCells(line)); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ExportTemplateCSV writes one line per template item.
func ExportTemplateCSV(items []ChecklistItemTemplate) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(TemplateColumns); err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := w.Write([]string{it.Group, it.Text, it.Unit, string(it.DefaultStatus)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TemplateFileName is the download name of a variant's template CSV.
func TemplateFileName(variant string) string {
	return fmt.Sprintf("vorlage_%s.csv", strings.ToLower(strings.TrimSpace(variant)))
}

// InspectionFileName is the download name of a single saved inspection.
func InspectionFileName(inspectionID string) string {
	return inspectionID + ".csv"
}
