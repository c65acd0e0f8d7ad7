package begehung

import "time"

// ChecklistItemTemplate is one entry of a variant's checklist template.
type ChecklistItemTemplate struct {
	Group         string `json:"item_group" yaml:"item_group"`
	Text          string `json:"item_text" yaml:"item_text"`
	Unit          string `json:"unit" yaml:"unit"`
	DefaultStatus Status `json:"default" yaml:"default"`
}

// ChecklistRow is one line of a composed checklist as handed to an editor.
type ChecklistRow struct {
	Group  string `json:"item_group"`
	Text   string `json:"item_text"`
	Status Status `json:"status"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
	Notes  string `json:"notes"`
}

// Customer identifies the contact person of a site.
type Customer struct {
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

// Site identifies the inspected property.
type Site struct {
	Address        string `json:"address"`
	City           string `json:"city"`
	PostalCode     string `json:"plz"`
	Region         string `json:"bundesland"`
	PropertyNumber string `json:"liegenschaftsnummer"`
}

// InspectionMeta is the survey metadata shared by all records of one inspection.
type InspectionMeta struct {
	Date       time.Time `json:"date"`
	Technician string    `json:"technician"`
	Customer   Customer  `json:"customer"`
	Site       Site      `json:"site"`
	Variants   []string  `json:"variants"`
}

// InspectionRecord is one row of the inspection table. A zero Date is a null date.
// Extra holds pass-through columns from imported files.
type InspectionRecord struct {
	InspectionID string
	Date         time.Time
	Technician   string
	Customer     Customer
	Site         Site
	VariantCombo string
	ItemID       string
	ItemGroup    string
	ItemText     string
	Status       Status
	Value        string
	Unit         string
	Notes        string
	Extra        map[string]string
}

// InspectionRow is the persisted form of an InspectionRecord.
type InspectionRow struct {
	ID             uint              `gorm:"primaryKey"`
	Position       int               `gorm:"index"`
	InspectionID   string            `gorm:"index;size:64"`
	Date           *time.Time        `gorm:"index"`
	Technician     string            `gorm:"size:255"`
	CustomerName   string            `gorm:"size:255"`
	CustomerEmail  string            `gorm:"size:255"`
	CustomerPhone  string            `gorm:"size:64"`
	Address        string            `gorm:"size:512"`
	City           string            `gorm:"index;size:255"`
	PostalCode     string            `gorm:"column:plz;size:16"`
	Region         string            `gorm:"column:bundesland;size:64"`
	PropertyNumber string            `gorm:"column:liegenschaftsnummer;size:64"`
	VariantCombo   string            `gorm:"size:255"`
	ItemID         string            `gorm:"size:16"`
	ItemGroup      string            `gorm:"size:255"`
	ItemText       string            `gorm:"type:text"`
	Status         string            `gorm:"index;size:16"`
	Value          string            `gorm:"type:text"`
	Unit           string            `gorm:"size:32"`
	Notes          string            `gorm:"type:text"`
	Extra          map[string]string `gorm:"serializer:json;type:text"`
}

// TemplateItemRow is the persisted form of a ChecklistItemTemplate.
type TemplateItemRow struct {
	ID            uint   `gorm:"primaryKey"`
	Variant       string `gorm:"index;size:128"`
	VariantOrder  int
	Position      int
	Group         string `gorm:"column:item_group;size:255"`
	Text          string `gorm:"column:item_text;type:text"`
	Unit          string `gorm:"size:32"`
	DefaultStatus string `gorm:"column:default_status;size:16"`
}

// VariantRow keeps a variant's place in the name order even when its item list is empty.
type VariantRow struct {
	Name     string `gorm:"primaryKey;size:128"`
	Position int
}

func toInspectionRow(rec InspectionRecord, pos int) InspectionRow {
	row := InspectionRow{
		Position:       pos,
		InspectionID:   rec.InspectionID,
		Technician:     rec.Technician,
		CustomerName:   rec.Customer.Name,
		CustomerEmail:  rec.Customer.Email,
		CustomerPhone:  rec.Customer.Phone,
		Address:        rec.Site.Address,
		City:           rec.Site.City,
		PostalCode:     rec.Site.PostalCode,
		Region:         rec.Site.Region,
		PropertyNumber: rec.Site.PropertyNumber,
		VariantCombo:   rec.VariantCombo,
		ItemID:         rec.ItemID,
		ItemGroup:      rec.ItemGroup,
		ItemText:       rec.ItemText,
		Status:         string(rec.Status),
		Value:          rec.Value,
		Unit:           rec.Unit,
		Notes:          rec.Notes,
		Extra:          rec.Extra,
	}
	if !rec.Date.IsZero() {
		d := rec.Date.UTC()
		row.Date = &d
	}
	return row
}

func (row InspectionRow) record() InspectionRecord {
	rec := InspectionRecord{
		InspectionID: row.InspectionID,
		Technician:   row.Technician,
		Customer: Customer{
			Name:  row.CustomerName,
			Email: row.CustomerEmail,
			Phone: row.CustomerPhone,
		},
		Site: Site{
			Address:        row.Address,
			City:           row.City,
			PostalCode:     row.PostalCode,
			Region:         row.Region,
			PropertyNumber: row.PropertyNumber,
		},
		VariantCombo: row.VariantCombo,
		ItemID:       row.ItemID,
		ItemGroup:    row.ItemGroup,
		ItemText:     row.ItemText,
		Status:       Status(row.Status),
		Value:        row.Value,
		Unit:         row.Unit,
		Notes:        row.Notes,
	}
	if row.Date != nil {
		rec.Date = row.Date.UTC()
	}
	if len(row.Extra) > 0 {
		rec.Extra = row.Extra
	}
	return rec
}
