package begehung

import "sync"

// InspectionTable is the ordered, append-only table of inspection records.
type InspectionTable struct {
	mu      sync.RWMutex
	records []InspectionRecord
}

// MergeResult summarizes one Merge call.
type MergeResult struct {
	Incoming int `json:"incoming"` // rows offered
	Removed  int `json:"removed"`  // duplicate rows dropped from the combined table
	Total    int `json:"total"`    // table length afterwards
}

// NewInspectionTable returns a table holding a copy of records.
func NewInspectionTable(records []InspectionRecord) *InspectionTable {
	t := &InspectionTable{}
	t.records = cloneRecords(records)
	return t
}

// Append adds records to the end of the table in the given order. Metadata
// consistency within an inspection is the caller's concern.
func (t *InspectionTable) Append(records []InspectionRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, cloneRecords(records)...)
}

// Merge appends incoming and then drops every row that is an exact duplicate
// of an earlier row anywhere in the table.
func (t *InspectionTable) Merge(incoming []InspectionRecord) MergeResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	combined := append(t.records, cloneRecords(incoming)...)
	deduped := DedupRecords(combined)
	t.records = deduped
	return MergeResult{
		Incoming: len(incoming),
		Removed:  len(combined) - len(deduped),
		Total:    len(deduped),
	}
}

// Records returns a copy of the table in insertion order.
func (t *InspectionTable) Records() []InspectionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneRecords(t.records)
}

func (t *InspectionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Filter returns the matching records sorted by (date, inspection_id, item_id).
func (t *InspectionTable) Filter(c Criteria) []InspectionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return FilterRecords(t.records, c)
}

// DedupRecords keeps the first occurrence of every distinct row.
func DedupRecords(records []InspectionRecord) []InspectionRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]InspectionRecord, 0, len(records))
	for _, r := range records {
		k := RowDigest(r, 0)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func cloneRecords(records []InspectionRecord) []InspectionRecord {
	out := make([]InspectionRecord, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}
