// Package codemap translates local project codes into the codes the MEM
// API knows them by.
package codemap

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// knownRenames lists projects whose MEM slug differs from the local code.
var knownRenames = map[string]string{
	"brule":                  "brule-dillon",
	"copper-mountain":        "copper-mountain-similco",
	"highland-valley-copper": "highland-valley-copper-hvc",
}

// Mapper resolves local codes to external codes. The zero value uses the
// built-in table only.
type Mapper struct {
	table map[string]string
}

// New returns a Mapper seeded with the built-in table. Entries in extra
// are added on top and win over the built-in ones.
func New(extra map[string]string) *Mapper {
	table := make(map[string]string, len(knownRenames)+len(extra))
	for k, v := range knownRenames {
		table[k] = v
	}
	for k, v := range extra {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		table[k] = v
	}
	return &Mapper{table: table}
}

type fileFormat struct {
	Mappings map[string]string `yaml:"mappings"`
}

// LoadFile reads extra mappings from a YAML file of the form
//
//	mappings:
//	  local-code: external-code
func LoadFile(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read code map: %w", err)
	}
	var parsed fileFormat
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse code map %s: %w", path, err)
	}
	return New(parsed.Mappings), nil
}

// ToExternalCode returns the external code for localCode, or localCode
// itself when no rename is known.
func (m *Mapper) ToExternalCode(localCode string) string {
	table := knownRenames
	if m != nil && m.table != nil {
		table = m.table
	}
	if ext, ok := table[localCode]; ok {
		return ext
	}
	return localCode
}

// ToExternalCode resolves localCode with the built-in table.
func ToExternalCode(localCode string) string {
	return (*Mapper)(nil).ToExternalCode(localCode)
}
