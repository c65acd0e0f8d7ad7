package begehung

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const insertBatchSize = 200

func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&VariantRow{}, &TemplateItemRow{}, &InspectionRow{}); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenQueryDB opens an existing session DB for reading without touching its schema.
func OpenQueryDB(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
}

// LoadVariants reads all persisted variants in order. ok is false when the DB
// holds no variants yet.
func LoadVariants(db *gorm.DB) (variants []VariantTemplate, ok bool, err error) {
	var names []VariantRow
	if err := db.Order("position asc").Find(&names).Error; err != nil {
		return nil, false, err
	}
	if len(names) == 0 {
		return nil, false, nil
	}
	var items []TemplateItemRow
	if err := db.Order("variant_order asc, position asc").Find(&items).Error; err != nil {
		return nil, false, err
	}
	byName := make(map[string][]ChecklistItemTemplate, len(names))
	for _, it := range items {
		byName[it.Variant] = append(byName[it.Variant], ChecklistItemTemplate{
			Group:         it.Group,
			Text:          it.Text,
			Unit:          it.Unit,
			DefaultStatus: Status(it.DefaultStatus),
		})
	}
	variants = make([]VariantTemplate, 0, len(names))
	for _, n := range names {
		variants = append(variants, VariantTemplate{Name: n.Name, Items: byName[n.Name]})
	}
	return variants, true, nil
}

// SaveVariant replaces the persisted item list of one variant.
func SaveVariant(db *gorm.DB, name string, order int, items []ChecklistItemTemplate) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return saveVariantTx(tx, name, order, items)
	})
}

// SaveVariants replaces all persisted variants.
func SaveVariants(db *gorm.DB, variants []VariantTemplate) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&TemplateItemRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&VariantRow{}).Error; err != nil {
			return err
		}
		for i, v := range variants {
			if err := saveVariantTx(tx, v.Name, i, v.Items); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveVariantTx(tx *gorm.DB, name string, order int, items []ChecklistItemTemplate) error {
	if err := tx.Save(&VariantRow{Name: name, Position: order}).Error; err != nil {
		return err
	}
	if err := tx.Where("variant = ?", name).Delete(&TemplateItemRow{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]TemplateItemRow, 0, len(items))
	for i, it := range items {
		rows = append(rows, TemplateItemRow{
			Variant:       name,
			VariantOrder:  order,
			Position:      i,
			Group:         it.Group,
			Text:          it.Text,
			Unit:          it.Unit,
			DefaultStatus: string(it.DefaultStatus),
		})
	}
	return tx.Create(&rows).Error
}

// LoadRecords reads the inspection table in insertion order.
func LoadRecords(db *gorm.DB) ([]InspectionRecord, error) {
	var rows []InspectionRow
	if err := db.Order("position asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]InspectionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// AppendRecords persists records after the first offset rows of the table.
func AppendRecords(db *gorm.DB, offset int, records []InspectionRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]InspectionRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, toInspectionRow(r, offset+i))
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
}

// ReplaceRecords rewrites the whole persisted table.
func ReplaceRecords(db *gorm.DB, records []InspectionRecord) error {
	rows := make([]InspectionRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, toInspectionRow(r, i))
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&InspectionRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
}
