package begehung

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportCSV_Header(t *testing.T) {
	recs := sampleRecords()
	recs[2].Extra = map[string]string{"zz_photo": "p.jpg", "aa_ref": "R1"}
	out, err := ExportCSV(recs)
	if err != nil {
		t.Fatal(err)
	}
	lines, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]string{}, Columns...), "aa_ref", "zz_photo")
	if !reflect.DeepEqual(lines[0], want) {
		t.Fatalf("header = %v, want %v", lines[0], want)
	}
	if len(lines) != len(recs)+1 {
		t.Fatalf("expected %d lines, got %d", len(recs)+1, len(lines))
	}
	if lines[1][1] != "2025-03-04" {
		t.Fatalf("date not exported as calendar day: %q", lines[1][1])
	}
	if lines[4][1] != "" {
		t.Fatalf("null date must export empty, got %q", lines[4][1])
	}
	if lines[3][len(Columns)] != "R1" || lines[1][len(Columns)] != "" {
		t.Fatalf("extra columns misplaced: %v / %v", lines[3], lines[1])
	}
}

func TestExportCSV_EmptyHasHeaderOnly(t *testing.T) {
	out, err := ExportCSV(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(out)); got != strings.Join(Columns, ",") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestExportCSV_Deterministic(t *testing.T) {
	recs := sampleRecords()
	recs[0].Extra = map[string]string{"b": "1", "a": "2", "c": "3"}
	first, err := ExportCSV(recs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := ExportCSV(recs)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("export is not deterministic")
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	recs := sampleRecords()
	recs[0].Notes = "Riss, \"sichtbar\"\nzweite Zeile"
	recs[0].Customer = Customer{Name: "Müller GmbH", Email: "info@example.com", Phone: "+49 431 123"}
	recs[1].Site = Site{Address: "Hafenstr. 1", City: "Kiel", PostalCode: "24103", Region: "SH", PropertyNumber: "L-7"}
	recs[3].Extra = map[string]string{"foto_url": "http://example.com/x.jpg"}
	recs[2].Status = ""

	out, err := ExportCSV(recs)
	if err != nil {
		t.Fatal(err)
	}
	res, err := ImportCSV(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	tbl := NewInspectionTable(nil)
	tbl.Merge(res.Records)
	got := tbl.Records()
	if len(got) != len(recs) {
		t.Fatalf("expected %d rows, got %d", len(recs), len(got))
	}
	for i := range recs {
		if RowDigest(got[i], 0) != RowDigest(recs[i], 0) {
			t.Fatalf("row %d differs after round trip:\n got  %+v\n want %+v", i, got[i], recs[i])
		}
	}

	// Re-importing the same export changes nothing.
	res2, err := ImportCSV(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if r := tbl.Merge(res2.Records); r.Total != len(recs) {
		t.Fatalf("re-import grew the table: %+v", r)
	}
}

func TestExportXLSX(t *testing.T) {
	recs := sampleRecords()
	recs[1].Extra = map[string]string{"foto_url": "x.jpg"}
	out, err := ExportXLSX(recs)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(recs)+1 {
		t.Fatalf("expected %d rows, got %d", len(recs)+1, len(rows))
	}
	header := append(append([]string{}, Columns...), "foto_url")
	if !reflect.DeepEqual(rows[0], header) {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != recs[0].InspectionID || rows[1][1] != "2025-03-04" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[2][len(Columns)] != "x.jpg" {
		t.Fatalf("extra column value missing: %v", rows[2])
	}
}

func TestTemplateCSVRoundTrip(t *testing.T) {
	items, _ := NewDefaultRegistry().GetItems("Gold")
	items[0].Unit = "kWp"
	items[1].DefaultStatus = StatusNotApplicable

	out, err := ExportTemplateCSV(items)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "group,text,unit,default-status\n") {
		t.Fatalf("unexpected header in %q", out)
	}
	got, err := ImportTemplateCSV(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, items) {
		t.Fatalf("template changed after round trip:\n got  %+v\n want %+v", got, items)
	}
}

func TestImportTemplateCSV_RejectsUnknownDefault(t *testing.T) {
	in := "item_group,item_text,unit,default\nG,a,,ok\nG,b,,maybe\n"
	_, err := ImportTemplateCSV(strings.NewReader(in))
	rowErr, ok := err.(*InvalidRowError)
	if !ok {
		t.Fatalf("expected *InvalidRowError, got %v", err)
	}
	if rowErr.Row != 2 {
		t.Fatalf("expected row 2, got %d", rowErr.Row)
	}
}

func TestImportTemplateCSV_BlankDefaultIsOpen(t *testing.T) {
	in := "group,text\nDach,Neigung\n"
	got, err := ImportTemplateCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].DefaultStatus != StatusOpen || got[0].Group != "Dach" {
		t.Fatalf("unexpected items %+v", got)
	}
}

func TestFileNames(t *testing.T) {
	if got := TemplateFileName("Gold"); got != "vorlage_gold.csv" {
		t.Fatalf("unexpected template file name %q", got)
	}
	if got := InspectionFileName("INS-20250101000000"); got != "INS-20250101000000.csv" {
		t.Fatalf("unexpected inspection file name %q", got)
	}
}

func TestChecklistCSVRoundTrip(t *testing.T) {
	rows, err := Compose([]string{"Bronze"}, NewDefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	rows[0].Status = StatusCritical
	rows[0].Notes = "Geländer fehlt"
	out, err := ExportChecklistCSV(rows)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ImportChecklistCSV(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("checklist changed after round trip:\n got  %+v\n want %+v", got, rows)
	}
}
