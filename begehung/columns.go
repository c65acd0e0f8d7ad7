package begehung

import (
	"sort"
	"time"
)

// Columns is the canonical column order of the inspection table.
var Columns = []string{
	"inspection_id",
	"date",
	"technician",
	"customer_name",
	"customer_email",
	"customer_phone",
	"address",
	"city",
	"plz",
	"bundesland",
	"liegenschaftsnummer",
	"variant_combo",
	"item_id",
	"item_group",
	"item_text",
	"status",
	"value",
	"unit",
	"notes",
}

// DateLayout is the calendar-day format used in exports.
const DateLayout = "2006-01-02"

func isCanonicalColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Field returns the textual value of a column. Unknown names are looked up in Extra.
func (r InspectionRecord) Field(col string) string {
	switch col {
	case "inspection_id":
		return r.InspectionID
	case "date":
		if r.Date.IsZero() {
			return ""
		}
		return r.Date.UTC().Format(DateLayout)
	case "technician":
		return r.Technician
	case "customer_name":
		return r.Customer.Name
	case "customer_email":
		return r.Customer.Email
	case "customer_phone":
		return r.Customer.Phone
	case "address":
		return r.Site.Address
	case "city":
		return r.Site.City
	case "plz":
		return r.Site.PostalCode
	case "bundesland":
		return r.Site.Region
	case "liegenschaftsnummer":
		return r.Site.PropertyNumber
	case "variant_combo":
		return r.VariantCombo
	case "item_id":
		return r.ItemID
	case "item_group":
		return r.ItemGroup
	case "item_text":
		return r.ItemText
	case "status":
		return string(r.Status)
	case "value":
		return r.Value
	case "unit":
		return r.Unit
	case "notes":
		return r.Notes
	default:
		return r.Extra[col]
	}
}

// Fields returns the record as a column -> value map including extra columns.
func (r InspectionRecord) Fields() map[string]string {
	out := make(map[string]string, len(Columns)+len(r.Extra))
	for _, c := range Columns {
		out[c] = r.Field(c)
	}
	for k, v := range r.Extra {
		out[k] = v
	}
	return out
}

func (r InspectionRecord) clone() InspectionRecord {
	if r.Extra != nil {
		extra := make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			extra[k] = v
		}
		r.Extra = extra
	}
	return r
}

// extraColumns returns the sorted union of pass-through column names.
func extraColumns(records []InspectionRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Extra {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// headerFor is the export header for a record sequence.
func headerFor(records []InspectionRecord) []string {
	extra := extraColumns(records)
	header := make([]string, 0, len(Columns)+len(extra))
	header = append(header, Columns...)
	return append(header, extra...)
}

// DateOnly truncates t to its calendar day at midnight UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
