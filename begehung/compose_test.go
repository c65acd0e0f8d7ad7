package begehung

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"
)

func fixedClock(ts string) func() time.Time {
	tm, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return tm }
}

func TestCompose_BronzeGold(t *testing.T) {
	r := NewDefaultRegistry()
	rows, err := Compose([]string{"Bronze", "Gold"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	bronze, _ := r.GetItems("Bronze")
	gold, _ := r.GetItems("Gold")
	want := append(append([]ChecklistItemTemplate{}, bronze...), gold...)
	for i, row := range rows {
		if row.Group != want[i].Group || row.Text != want[i].Text {
			t.Fatalf("row %d = %s/%s, want %s/%s", i, row.Group, row.Text, want[i].Group, want[i].Text)
		}
		if row.Status != StatusOpen || row.Value != "" || row.Notes != "" {
			t.Fatalf("row %d not blank: %+v", i, row)
		}
	}
}

func TestCompose_Empty(t *testing.T) {
	rows, err := Compose(nil, NewDefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil checklist, got %#v", rows)
	}
}

func TestCompose_UnknownVariant(t *testing.T) {
	_, err := Compose([]string{"Bronze", "Nope"}, NewDefaultRegistry())
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestCompose_OverlapFirstSelectedWins(t *testing.T) {
	r := NewRegistry([]VariantTemplate{
		{Name: "A", Items: []ChecklistItemTemplate{
			{Group: "G", Text: "shared", Unit: "kW", DefaultStatus: StatusOpen},
			{Group: "G", Text: "only-a", DefaultStatus: StatusOpen},
		}},
		{Name: "B", Items: []ChecklistItemTemplate{
			{Group: "G", Text: "only-b", DefaultStatus: StatusOK},
			{Group: "G", Text: "shared", Unit: "kWp", DefaultStatus: StatusCritical},
		}},
	})

	ab, err := Compose([]string{"A", "B"}, r)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Compose([]string{"B", "A"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(ab) != 3 || len(ba) != 3 {
		t.Fatalf("expected 3 distinct keys in both orders, got %d and %d", len(ab), len(ba))
	}

	find := func(rows []ChecklistRow, text string) ChecklistRow {
		for _, r := range rows {
			if r.Text == text {
				return r
			}
		}
		t.Fatalf("row %q missing", text)
		return ChecklistRow{}
	}
	if got := find(ab, "shared"); got.Unit != "kW" || got.Status != StatusOpen {
		t.Fatalf("A first: expected A's copy, got %+v", got)
	}
	if got := find(ba, "shared"); got.Unit != "kWp" || got.Status != StatusCritical {
		t.Fatalf("B first: expected B's copy, got %+v", got)
	}
	if ba[0].Text != "only-b" || ba[1].Text != "shared" || ba[2].Text != "only-a" {
		t.Fatalf("unexpected order: %+v", ba)
	}
}

func TestCompose_SameTextDifferentGroupIsDistinct(t *testing.T) {
	r := NewRegistry([]VariantTemplate{{Name: "A", Items: []ChecklistItemTemplate{
		{Group: "G1", Text: "same"},
		{Group: "G2", Text: "same"},
		{Group: "G1", Text: "same"},
	}}})
	rows, err := Compose([]string{"A", "A"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestMaterialize_ThreeRows(t *testing.T) {
	c := Composer{Now: fixedClock("2025-06-01 15:30:07")}
	rows := []ChecklistRow{
		{Group: "PV/Elektrik", Text: "Zählerschrank", Status: "ok", Value: "63", Unit: "A"},
		{Group: "Gebäude", Text: "Dach", Status: "kritisch", Notes: " Riss "},
		{Group: "Dokumente", Text: "Fotos", Status: StatusNotApplicable},
	}
	meta := InspectionMeta{
		Date:       time.Date(2025, 6, 1, 15, 30, 0, 0, time.Local),
		Technician: "Team Nord",
		Customer:   Customer{Name: "Müller", Email: "m@example.com"},
		Site:       Site{City: "Kiel", PostalCode: "24103"},
		Variants:   []string{"Bronze", "Gold"},
	}
	id, recs, err := c.Materialize(rows, meta)
	if err != nil {
		t.Fatal(err)
	}
	if id != "INS-20250601153007" {
		t.Fatalf("unexpected id %q", id)
	}
	if !regexp.MustCompile(`^INS-\d{14}$`).MatchString(id) {
		t.Fatalf("id %q does not match INS-<14 digits>", id)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, r := range recs {
		if r.InspectionID != id {
			t.Fatalf("record %d has id %q", i, r.InspectionID)
		}
		if want := fmt.Sprintf("ITM-%03d", i+1); r.ItemID != want {
			t.Fatalf("record %d item_id = %q, want %q", i, r.ItemID, want)
		}
		if r.VariantCombo != "Bronze+Gold" {
			t.Fatalf("variant_combo = %q", r.VariantCombo)
		}
		if r.Technician != "Team Nord" || r.Site.City != "Kiel" || r.Customer.Name != "Müller" {
			t.Fatalf("metadata not copied: %+v", r)
		}
		if !r.Date.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("date not normalized to day: %v", r.Date)
		}
	}
	if recs[1].Status != StatusCritical || recs[1].Notes != "Riss" {
		t.Fatalf("row 2 not sanitized: %+v", recs[1])
	}
}

func TestMaterialize_ItemIDFollowsEditedOrder(t *testing.T) {
	c := Composer{Now: fixedClock("2025-06-01 10:00:00")}
	rows := make([]ChecklistRow, 12)
	for i := range rows {
		rows[i] = ChecklistRow{Group: "G", Text: fmt.Sprintf("t%d", 12-i), Status: StatusOK}
	}
	_, recs, err := c.Materialize(rows, InspectionMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if recs[11].ItemID != "ITM-012" || recs[11].ItemText != "t1" {
		t.Fatalf("unexpected last record: %+v", recs[11])
	}
	if recs[0].VariantCombo != NoVariants {
		t.Fatalf("expected %q combo, got %q", NoVariants, recs[0].VariantCombo)
	}
}

func TestMaterialize_EmptyIsNoop(t *testing.T) {
	id, recs, err := Composer{}.Materialize(nil, InspectionMeta{Variants: []string{"Bronze"}})
	if err != nil || id != "" || recs != nil {
		t.Fatalf("expected no-op, got id=%q recs=%v err=%v", id, recs, err)
	}
}

func TestMaterialize_RejectsUnknownStatus(t *testing.T) {
	rows := []ChecklistRow{
		{Group: "G", Text: "a", Status: StatusOK},
		{Group: "G", Text: "b", Status: "done"},
	}
	_, _, err := Composer{}.Materialize(rows, InspectionMeta{})
	var rowErr *InvalidRowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected InvalidRowError, got %v", err)
	}
	if rowErr.Row != 2 {
		t.Fatalf("expected row 2, got %d", rowErr.Row)
	}
}

func TestMaterialize_BlankStatusIsOpen(t *testing.T) {
	_, recs, err := Composer{}.Materialize([]ChecklistRow{{Group: "G", Text: "added"}}, InspectionMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Status != StatusOpen {
		t.Fatalf("expected open, got %q", recs[0].Status)
	}
}

func TestNewInspectionID_SameSecondCollides(t *testing.T) {
	c := Composer{Prefix: "BEG", Now: fixedClock("2025-01-02 03:04:05")}
	a, b := c.NewInspectionID(), c.NewInspectionID()
	if a != b || a != "BEG-20250102030405" {
		t.Fatalf("expected identical ids within one second, got %q and %q", a, b)
	}
}
