package begehung

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// VariantsConfig accepts either:
//  1. mapping form (preferred, keeps file order):
//     variants:
//     Bronze:
//     - {item_group: Allgemein, item_text: ..., default: open}
//  2. list form:
//     variants:
//     - name: Bronze
//     items: [...]
type VariantsConfig struct {
	Items []VariantTemplate
}

type templateItemConfig struct {
	Group   string `yaml:"item_group"`
	Text    string `yaml:"item_text"`
	Unit    string `yaml:"unit"`
	Default string `yaml:"default"`
}

func (c templateItemConfig) item() (ChecklistItemTemplate, error) {
	st := StatusOpen
	if strings.TrimSpace(c.Default) != "" {
		var err error
		if st, err = ParseStatus(c.Default); err != nil {
			return ChecklistItemTemplate{}, err
		}
	}
	return ChecklistItemTemplate{
		Group:         strings.TrimSpace(c.Group),
		Text:          strings.TrimSpace(c.Text),
		Unit:          strings.TrimSpace(c.Unit),
		DefaultStatus: st,
	}, nil
}

func decodeItems(name string, node *yaml.Node) ([]ChecklistItemTemplate, error) {
	var raw []templateItemConfig
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("variant %q: %w", name, err)
	}
	items := make([]ChecklistItemTemplate, 0, len(raw))
	for i, r := range raw {
		it, err := r.item()
		if err != nil {
			return nil, fmt.Errorf("variant %q item %d: %w", name, i+1, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func (v *VariantsConfig) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.MappingNode:
		out := make([]VariantTemplate, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			name := strings.TrimSpace(value.Content[i].Value)
			if name == "" {
				continue
			}
			items, err := decodeItems(name, value.Content[i+1])
			if err != nil {
				return err
			}
			out = append(out, VariantTemplate{Name: name, Items: items})
		}
		v.Items = out
		return nil
	case yaml.SequenceNode:
		out := make([]VariantTemplate, 0, len(value.Content))
		for _, n := range value.Content {
			var tmp struct {
				Name  string    `yaml:"name"`
				Items yaml.Node `yaml:"items"`
			}
			if err := n.Decode(&tmp); err != nil {
				return err
			}
			name := strings.TrimSpace(tmp.Name)
			if name == "" {
				continue
			}
			var items []ChecklistItemTemplate
			if tmp.Items.Kind != 0 {
				var err error
				if items, err = decodeItems(name, &tmp.Items); err != nil {
					return err
				}
			}
			out = append(out, VariantTemplate{Name: name, Items: items})
		}
		v.Items = out
		return nil
	default:
		// ignore other kinds
		return nil
	}
}

type FileConfig struct {
	// Session DB path. The registry and the inspection table live here between runs.
	DB string `yaml:"db"`

	Debug   bool   `yaml:"debug"`
	LogMode string `yaml:"log_mode"` // dev, prod

	ListenAddr string `yaml:"listen_addr"`
	IDPrefix   string `yaml:"id_prefix"`

	// Imported files are moved here after a successful merge.
	ArchiveDir string `yaml:"archive_dir"`
	// Malformed uploads are moved here.
	ErrorDir string `yaml:"error_dir"`

	// Template seed used when the session DB holds no variants yet.
	Variants VariantsConfig `yaml:"variants"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
