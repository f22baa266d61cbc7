// Package data holds static game data tables loaded from embedded YAML.
package data

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed yaml/yaku_list.yaml
var yakuFS embed.FS

// YakuEntry is one row of the yaku table.
type YakuEntry struct {
	Name    string `yaml:"name"`
	Fan     int    `yaml:"fan"`
	Yakuman bool   `yaml:"yakuman"`
}

// YakuTable maps yaku names to their fan value and yakuman status.
type YakuTable struct {
	entries map[string]YakuEntry
}

type yakuFile struct {
	Yaku []YakuEntry `yaml:"yaku"`
}

// LoadYakuTable parses the embedded yaku list.
func LoadYakuTable() (*YakuTable, error) {
	raw, err := yakuFS.ReadFile("yaml/yaku_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read yaku list: %w", err)
	}
	var f yakuFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse yaku list: %w", err)
	}
	t := &YakuTable{entries: make(map[string]YakuEntry, len(f.Yaku))}
	for _, e := range f.Yaku {
		if e.Name == "" {
			return nil, fmt.Errorf("yaku entry with empty name")
		}
		if _, dup := t.entries[e.Name]; dup {
			return nil, fmt.Errorf("duplicate yaku %q", e.Name)
		}
		t.entries[e.Name] = e
	}
	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *YakuTable
)

// DefaultYakuTable returns the embedded table. The embed is part of the
// binary, so a parse failure here is a build defect and panics.
func DefaultYakuTable() *YakuTable {
	defaultOnce.Do(func() {
		t, err := LoadYakuTable()
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Fan returns the fan value of a yaku. Unknown names count zero.
func (t *YakuTable) Fan(name string) int {
	return t.entries[name].Fan
}

// Yakuman reports whether the yaku is a yakuman.
func (t *YakuTable) Yakuman(name string) bool {
	return t.entries[name].Yakuman
}

// Count returns the number of entries.
func (t *YakuTable) Count() int {
	return len(t.entries)
}
