package begehung

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultIDPrefix = "INS"
	// NoVariants is the variant_combo of an inspection saved without a variant.
	NoVariants = "none"

	inspectionIDLayout = "20060102150405"
)

// TemplateSource is the read side of the template registry.
type TemplateSource interface {
	GetItems(name string) ([]ChecklistItemTemplate, error)
}

// Compose builds a blank checklist for the selected variants. Rows are emitted
// in selection order, then template order; a (group, text) pair seen before is
// skipped, so the first selected variant decides its unit and default status.
func Compose(variants []string, src TemplateSource) ([]ChecklistRow, error) {
	type key struct{ group, text string }
	seen := make(map[key]struct{})
	rows := make([]ChecklistRow, 0)
	for _, name := range variants {
		items, err := src.GetItems(name)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			k := key{it.Group, it.Text}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			rows = append(rows, ChecklistRow{
				Group:  it.Group,
				Text:   it.Text,
				Status: it.DefaultStatus,
				Unit:   it.Unit,
			})
		}
	}
	return rows, nil
}

// VariantCombo joins the selected variant names with "+".
func VariantCombo(variants []string) string {
	if len(variants) == 0 {
		return NoVariants
	}
	return strings.Join(variants, "+")
}

// InvalidRowError reports an edited checklist row that cannot be saved.
type InvalidRowError struct {
	Row int // 1-based
	Err error
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("checklist row %d: %v", e.Row, e.Err)
}

func (e *InvalidRowError) Unwrap() error { return e.Err }

// Composer turns edited checklists into inspection records.
type Composer struct {
	// Prefix of generated inspection ids. Defaults to DefaultIDPrefix.
	Prefix string
	// Now is the clock used for inspection ids. Defaults to time.Now.
	Now func() time.Time
}

// NewInspectionID returns Prefix-YYYYMMDDhhmmss. Two calls within the same
// second return the same id.
func (c Composer) NewInspectionID() string {
	prefix := c.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultIDPrefix
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return prefix + "-" + now().Format(inspectionIDLayout)
}

// Materialize normalizes an edited checklist into one record per row. An empty
// checklist yields no id and no records.
func (c Composer) Materialize(rows []ChecklistRow, meta InspectionMeta) (string, []InspectionRecord, error) {
	if len(rows) == 0 {
		return "", nil, nil
	}
	clean := make([]ChecklistRow, len(rows))
	for i, row := range rows {
		r, err := sanitizeRow(row)
		if err != nil {
			return "", nil, &InvalidRowError{Row: i + 1, Err: err}
		}
		clean[i] = r
	}

	id := c.NewInspectionID()
	combo := VariantCombo(meta.Variants)
	date := DateOnly(meta.Date)
	records := make([]InspectionRecord, 0, len(clean))
	for i, row := range clean {
		records = append(records, InspectionRecord{
			InspectionID: id,
			Date:         date,
			Technician:   meta.Technician,
			Customer:     meta.Customer,
			Site:         meta.Site,
			VariantCombo: combo,
			ItemID:       fmt.Sprintf("ITM-%03d", i+1),
			ItemGroup:    row.Group,
			ItemText:     row.Text,
			Status:       row.Status,
			Value:        row.Value,
			Unit:         row.Unit,
			Notes:        row.Notes,
		})
	}
	return id, records, nil
}

// sanitizeRow trims free text and normalizes the status. Rows added in an
// editor without a status count as open.
func sanitizeRow(row ChecklistRow) (ChecklistRow, error) {
	st := StatusOpen
	if strings.TrimSpace(string(row.Status)) != "" {
		var err error
		if st, err = ParseStatus(string(row.Status)); err != nil {
			return ChecklistRow{}, err
		}
	}
	return ChecklistRow{
		Group:  strings.TrimSpace(row.Group),
		Text:   strings.TrimSpace(row.Text),
		Status: st,
		Value:  strings.TrimSpace(row.Value),
		Unit:   strings.TrimSpace(row.Unit),
		Notes:  strings.TrimSpace(row.Notes),
	}, nil
}
