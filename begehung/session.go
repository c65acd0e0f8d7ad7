package begehung

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SessionConfig struct {
	// Session DB path. Empty keeps everything in memory for the life of the process.
	DBPath string
	// Open the DB without migrating it and reject every mutation.
	ReadOnly bool
	IDPrefix string
	// Template seed used when the DB holds no variants. Defaults to DefaultVariants.
	Seed []VariantTemplate
	// Clock for inspection ids. Defaults to time.Now.
	Now func() time.Time
}

// ErrReadOnly is returned by mutating calls on a read-only session.
var ErrReadOnly = errors.New("session is read-only")

// Session owns the template registry and the inspection table of one running
// tool and keeps them in sync with the session DB. Mutations are serialized.
type Session struct {
	cfg      SessionConfig
	mu       sync.Mutex
	db       *gorm.DB
	registry *Registry
	table    *InspectionTable
	composer Composer
	log      *zap.SugaredLogger
}

// SaveResult describes one saved inspection. An empty InspectionID means the
// checklist was empty and nothing was recorded.
type SaveResult struct {
	InspectionID string             `json:"inspection_id"`
	Records      []InspectionRecord `json:"-"`
}

func OpenSession(cfg SessionConfig, log *zap.SugaredLogger) (*Session, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.ReadOnly && strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("read-only session requires DBPath")
	}
	s := &Session{
		cfg:      cfg,
		composer: Composer{Prefix: cfg.IDPrefix, Now: cfg.Now},
		log:      log,
	}
	seed := cfg.Seed
	if len(seed) == 0 {
		seed = DefaultVariants()
	}

	if strings.TrimSpace(cfg.DBPath) == "" {
		s.registry = NewRegistry(seed)
		s.table = NewInspectionTable(nil)
		return s, nil
	}

	var err error
	if cfg.ReadOnly {
		s.db, err = OpenQueryDB(cfg.DBPath)
	} else {
		s.db, err = OpenDB(cfg.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open session db %q: %w", cfg.DBPath, err)
	}

	variants, ok, err := LoadVariants(s.db)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("load variants: %w", err)
	}
	if !ok {
		variants = seed
		if !cfg.ReadOnly {
			if err := SaveVariants(s.db, seed); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("seed variants: %w", err)
			}
			log.Debugw("seeded variants", "count", len(seed))
		}
	}
	s.registry = NewRegistry(variants)

	records, err := LoadRecords(s.db)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("load inspections: %w", err)
	}
	s.table = NewInspectionTable(records)
	TableRows.Set(float64(len(records)))
	log.Debugw("session opened", "db", cfg.DBPath, "variants", len(variants), "rows", len(records))
	return s, nil
}

func (s *Session) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	s.db = nil
	return err
}

func (s *Session) Registry() *Registry { return s.registry }

func (s *Session) Table() *InspectionTable { return s.table }

// Compose builds the blank checklist for the selected variants.
func (s *Session) Compose(variants []string) ([]ChecklistRow, error) {
	return Compose(variants, s.registry)
}

// SaveInspection materializes an edited checklist and appends it to the table.
// An empty checklist is a silent no-op.
func (s *Session) SaveInspection(rows []ChecklistRow, meta InspectionMeta) (SaveResult, error) {
	if s.cfg.ReadOnly {
		return SaveResult{}, ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, records, err := s.composer.Materialize(rows, meta)
	if err != nil {
		return SaveResult{}, err
	}
	if len(records) == 0 {
		s.log.Debugw("empty checklist, nothing saved", "technician", meta.Technician)
		return SaveResult{}, nil
	}
	if s.db != nil {
		if err := AppendRecords(s.db, s.table.Len(), records); err != nil {
			return SaveResult{}, fmt.Errorf("persist inspection %s: %w", id, err)
		}
	}
	s.table.Append(records)

	InspectionsSaved.Inc()
	RecordsAppended.WithLabelValues("save").Add(float64(len(records)))
	TableRows.Set(float64(s.table.Len()))
	s.log.Infow("inspection saved", "inspection_id", id, "rows", len(records), "variant_combo", records[0].VariantCombo)
	return SaveResult{InspectionID: id, Records: records}, nil
}

// ImportCSV parses an upload without touching the table.
func (s *Session) ImportCSV(r io.Reader) (*ImportResult, error) {
	res, err := ImportCSV(r)
	if err != nil {
		ImportsRejected.Inc()
		s.log.Warnw("import rejected", "error", err)
		return nil, err
	}
	for _, w := range res.Warnings {
		ImportWarnings.WithLabelValues(w.Column).Inc()
		s.log.Warnw("import warning", "row", w.Row, "column", w.Column, "value", w.Value, "message", w.Message)
	}
	return res, nil
}

// Merge adds imported rows to the table and drops exact duplicates. On a
// persistence error the table is left unchanged.
func (s *Session) Merge(records []InspectionRecord) (MergeResult, error) {
	if s.cfg.ReadOnly {
		return MergeResult{}, ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		merged := DedupRecords(append(s.table.Records(), records...))
		if err := ReplaceRecords(s.db, merged); err != nil {
			return MergeResult{}, fmt.Errorf("persist merge: %w", err)
		}
	}
	res := s.table.Merge(records)

	RecordsAppended.WithLabelValues("merge").Add(float64(res.Incoming))
	DuplicatesRemoved.Add(float64(res.Removed))
	TableRows.Set(float64(res.Total))
	s.log.Infow("rows merged", "incoming", res.Incoming, "duplicates_removed", res.Removed, "total", res.Total)
	return res, nil
}

// ImportAndMerge parses an upload and merges it in one step. A malformed file
// leaves the table unchanged.
func (s *Session) ImportAndMerge(r io.Reader) (*ImportResult, MergeResult, error) {
	res, err := s.ImportCSV(r)
	if err != nil {
		return nil, MergeResult{}, err
	}
	merged, err := s.Merge(res.Records)
	if err != nil {
		return res, MergeResult{}, err
	}
	return res, merged, nil
}

// ReplaceTemplate swaps the item list of a variant in the registry and the DB.
func (s *Session) ReplaceTemplate(name string, items []ChecklistItemTemplate) error {
	if s.cfg.ReadOnly {
		return ErrReadOnly
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("variant name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		order := len(s.registry.ListVariants())
		for i, n := range s.registry.ListVariants() {
			if n == name {
				order = i
				break
			}
		}
		if err := SaveVariant(s.db, name, order, items); err != nil {
			return fmt.Errorf("persist template %q: %w", name, err)
		}
	}
	s.registry.ReplaceItems(name, items)

	TemplatesReplaced.WithLabelValues(name).Inc()
	s.log.Infow("template replaced", "variant", name, "items", len(items))
	return nil
}

// Filter returns the sorted view used for reporting.
func (s *Session) Filter(c Criteria) []InspectionRecord {
	return s.table.Filter(c)
}

func (s *Session) ExportCSV(c Criteria) ([]byte, error) {
	b, err := ExportCSV(s.Filter(c))
	if err != nil {
		return nil, err
	}
	Exports.WithLabelValues("csv").Inc()
	return b, nil
}

func (s *Session) ExportXLSX(c Criteria) ([]byte, error) {
	b, err := ExportXLSX(s.Filter(c))
	if err != nil {
		return nil, err
	}
	Exports.WithLabelValues("xlsx").Inc()
	return b, nil
}

func (s *Session) ExportTemplateCSV(variant string) ([]byte, error) {
	items, err := s.registry.GetItems(variant)
	if err != nil {
		return nil, err
	}
	b, err := ExportTemplateCSV(items)
	if err != nil {
		return nil, err
	}
	Exports.WithLabelValues("template").Inc()
	return b, nil
}
