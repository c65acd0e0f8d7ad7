package begehung

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ChecklistColumns is the header of checklist files handed to an editor.
var ChecklistColumns = []string{"item_group", "item_text", "status", "value", "unit", "notes"}

func ExportChecklistCSV(rows []ChecklistRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ChecklistColumns); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Group, r.Text, string(r.Status), r.Value, r.Unit, r.Notes}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportChecklistCSV reads an edited checklist back. Rows keep file order;
// statuses are validated later by Composer.Materialize.
func ImportChecklistCSV(r io.Reader) ([]ChecklistRow, error) {
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
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(line []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(line) {
			return ""
		}
		return line[i]
	}

	rows := make([]ChecklistRow, 0)
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		rows = append(rows, ChecklistRow{
			Group:  get(line, "item_group"),
			Text:   get(line, "item_text"),
			Status: Status(get(line, "status")),
			Value:  get(line, "value"),
			Unit:   get(line, "unit"),
			Notes:  get(line, "notes"),
		})
	}
	return rows, nil
}
