package begehung

import (
	"sort"
	"strings"
)

// Criteria selects records. Empty fields match everything; set fields are ANDed.
type Criteria struct {
	TechnicianContains   string `form:"technician" json:"technician"`
	CityContains         string `form:"city" json:"city"`
	Status               Status `form:"status" json:"status"`
	VariantComboContains string `form:"variant" json:"variant"`
}

func (c Criteria) Match(r InspectionRecord) bool {
	if !containsFold(r.Technician, c.TechnicianContains) {
		return false
	}
	if !containsFold(r.Site.City, c.CityContains) {
		return false
	}
	if c.Status != "" && r.Status != c.Status {
		return false
	}
	return containsFold(r.VariantCombo, c.VariantComboContains)
}

// FilterRecords returns the records matching c, stably sorted by date, then
// inspection_id, then item_id. Null dates sort last.
func FilterRecords(records []InspectionRecord, c Criteria) []InspectionRecord {
	out := make([]InspectionRecord, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r.clone())
		}
	}
	SortRecords(out)
	return out
}

func SortRecords(records []InspectionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			switch {
			case a.Date.IsZero():
				return false
			case b.Date.IsZero():
				return true
			default:
				return a.Date.Before(b.Date)
			}
		}
		if a.InspectionID != b.InspectionID {
			return a.InspectionID < b.InspectionID
		}
		return a.ItemID < b.ItemID
	})
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
