package begehung

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownVariant is returned when a variant name is not in the registry.
var ErrUnknownVariant = errors.New("unknown variant")

// VariantTemplate is a named, ordered checklist template.
type VariantTemplate struct {
	Name  string                  `json:"name" yaml:"name"`
	Items []ChecklistItemTemplate `json:"items" yaml:"items"`
}

// Registry holds the checklist templates of all variants in insertion order.
type Registry struct {
	mu    sync.RWMutex
	names []string
	items map[string][]ChecklistItemTemplate
}

// NewRegistry returns a registry holding the given variants. Later entries with
// a name already seen replace the earlier item list but keep its position.
func NewRegistry(variants []VariantTemplate) *Registry {
	r := &Registry{items: make(map[string][]ChecklistItemTemplate, len(variants))}
	for _, v := range variants {
		r.set(v.Name, v.Items)
	}
	return r
}

// NewDefaultRegistry returns a registry seeded with Bronze, Silver and Gold.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultVariants())
}

func (r *Registry) ListVariants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) GetItems(name string) ([]ChecklistItemTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return copyItems(items), nil
}

// ReplaceItems swaps the whole item list of a variant. Unknown names are
// appended to the variant order.
func (r *Registry) ReplaceItems(name string, items []ChecklistItemTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(name, items)
}

// Snapshot returns all variants in order.
func (r *Registry) Snapshot() []VariantTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]VariantTemplate, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, VariantTemplate{Name: n, Items: copyItems(r.items[n])})
	}
	return out
}

func (r *Registry) set(name string, items []ChecklistItemTemplate) {
	if _, ok := r.items[name]; !ok {
		r.names = append(r.names, name)
	}
	r.items[name] = copyItems(items)
}

func copyItems(items []ChecklistItemTemplate) []ChecklistItemTemplate {
	out := make([]ChecklistItemTemplate, len(items))
	copy(out, items)
	return out
}

// DefaultVariants is the built-in template seed.
func DefaultVariants() []VariantTemplate {
	open := func(group, text string) ChecklistItemTemplate {
		return ChecklistItemTemplate{Group: group, Text: text, DefaultStatus: StatusOpen}
	}
	return []VariantTemplate{
		{Name: "Bronze", Items: []ChecklistItemTemplate{
			open("Allgemein", "Zugang Dachflächen / Sicherheit (Geländer, Anschlagpunkte)"),
			open("PV/Elektrik", "Zählerschrank Zustand & Reserven"),
			open("PV/Elektrik", "Netzverknüpfungspunkt (Hausanschluss, NH, SLS)"),
			open("Gebäude", "Dachaufbau / Statik plausibel (Sichtprüfung)"),
			open("Dokumente", "Fotos/Skizze Dach (Ausrichtung, Hindernisse)"),
		}},
		{Name: "Silver", Items: []ChecklistItemTemplate{
			open("PV/Elektrik", "Einspeisepunkt / Messkonzept (Vorprüfung)"),
			open("PV/Elektrik", "Leitungswege (Dach → Zählerschrank)"),
			open("Gebäude", "Dachhaut / Abdichtung (Material, Alter, Zustand)"),
			open("Gebäude", "Blitz-/Potenzialausgleich (Bestand)"),
			open("Dokumente", "Planauszüge, Fotos, Maße (Beleg)"),
		}},
		{Name: "Gold", Items: []ChecklistItemTemplate{
			open("PV/Elektrik", "String-Layout & Wechselrichter-Standort (Vorplanung)"),
			open("PV/Elektrik", "Lastgänge / Verbrauchsstruktur (sofern vorhanden)"),
			open("Systeme", "Speicher / Ladeinfrastruktur / WP: Machbarkeit & Schnittstellen"),
			open("Regulatorik", "Messkonzept (GGV/Mieterstrom) – Detailaufnahme"),
			open("Risiken", "Sonderpunkte: Statik-Red Flags, Brandschutz, Denkmalschutz"),
		}},
	}
}
