package begehung

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrMalformedImport is returned when an uploaded file is not a readable table.
var ErrMalformedImport = errors.New("malformed import")

// ImportWarning is a row-level problem that did not abort the import.
type ImportWarning struct {
	Row     int    `json:"row"` // 1-based data row, header excluded
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (w ImportWarning) String() string {
	return fmt.Sprintf("row %d, %s=%q: %s", w.Row, w.Column, w.Value, w.Message)
}

// ImportResult is a parsed upload ready to be merged.
type ImportResult struct {
	Header   []string
	Records  []InspectionRecord
	Warnings []ImportWarning
}

// Preview returns up to n leading records.
func (r *ImportResult) Preview(n int) []InspectionRecord {
	if n < 0 || n > len(r.Records) {
		n = len(r.Records)
	}
	return cloneRecords(r.Records[:n])
}

// ImportCSV parses an uploaded inspection table. Columns are matched by header
// name; missing columns stay empty and unknown columns are carried in Extra.
// Unparsable dates become null dates and unrecognized statuses are kept as
// given, each with a warning. Any structural problem fails the whole import.
func ImportCSV(r io.Reader) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedImport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrMalformedImport, i+1)
		}
		if _, ok := seen[h]; ok {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedImport, h)
		}
		seen[h] = struct{}{}
		header[i] = h
	}

	res := &ImportResult{Header: header}
	for n := 1; ; n++ {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		if len(line) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrMalformedImport, n, len(line), len(header))
		}
		rec, warnings := recordFromLine(n, header, line)
		res.Records = append(res.Records, rec)
		res.Warnings = append(res.Warnings, warnings...)
	}
	return res, nil
}

func recordFromLine(row int, header, line []string) (InspectionRecord, []ImportWarning) {
	var rec InspectionRecord
	var warnings []ImportWarning
	for i, col := range header {
		if i >= len(line) {
			break
		}
		v := line[i]
		switch col {
		case "inspection_id":
			rec.InspectionID = v
		case "date":
			if strings.TrimSpace(v) == "" {
				continue
			}
			d, ok := ParseDate(v)
			if !ok {
				warnings = append(warnings, ImportWarning{Row: row, Column: col, Value: v, Message: "unparsable date, stored as empty"})
				continue
			}
			rec.Date = d
		case "technician":
			rec.Technician = v
		case "customer_name":
			rec.Customer.Name = v
		case "customer_email":
			rec.Customer.Email = v
		case "customer_phone":
			rec.Customer.Phone = v
		case "address":
			rec.Site.Address = v
		case "city":
			rec.Site.City = v
		case "plz":
			rec.Site.PostalCode = v
		case "bundesland":
			rec.Site.Region = v
		case "liegenschaftsnummer":
			rec.Site.PropertyNumber = v
		case "variant_combo":
			rec.VariantCombo = v
		case "item_id":
			rec.ItemID = v
		case "item_group":
			rec.ItemGroup = v
		case "item_text":
			rec.ItemText = v
		case "status":
			if strings.TrimSpace(v) == "" {
				continue
			}
			st, err := ParseStatus(v)
			if err != nil {
				// Raw value stays part of the row digest.
				warnings = append(warnings, ImportWarning{Row: row, Column: col, Value: v, Message: "unrecognized status, stored as given"})
				rec.Status = Status(strings.TrimSpace(v))
				continue
			}
			rec.Status = st
		case "value":
			rec.Value = v
		case "unit":
			rec.Unit = v
		case "notes":
			rec.Notes = v
		default:
			if v == "" {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[col] = v
		}
	}
	return rec, warnings
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
}

// ParseDate reads a calendar day in the formats found in exports of this tool
// and the common spreadsheet tools. The time of day is dropped.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOnly(ts), true
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return DateOnly(ts), true
		}
	}
	return time.Time{}, false
}

// ImportTemplateCSV reads a template file written by ExportTemplateCSV. The
// default status of every row must be one of the recognized statuses.
func ImportTemplateCSV(r io.Reader) ([]ChecklistItemTemplate, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedImport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "item_group", "group":
			idx["group"] = i
		case "item_text", "text":
			idx["text"] = i
		case "unit":
			idx["unit"] = i
		case "default", "default_status", "default-status":
			idx["default"] = i
		}
	}
	if _, ok := idx["text"]; !ok {
		return nil, fmt.Errorf("%w: missing item_text column", ErrMalformedImport)
	}
	get := func(line []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(line) {
			return ""
		}
		return strings.TrimSpace(line[i])
	}

	items := make([]ChecklistItemTemplate, 0)
	for n := 1; ; n++ {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		st := StatusOpen
		if v := get(line, "default"); v != "" {
			if st, err = ParseStatus(v); err != nil {
				return nil, &InvalidRowError{Row: n, Err: err}
			}
		}
		items = append(items, ChecklistItemTemplate{
			Group:         get(line, "group"),
			Text:          get(line, "text"),
			Unit:          get(line, "unit"),
			DefaultStatus: st,
		})
	}
	return items, nil
}
