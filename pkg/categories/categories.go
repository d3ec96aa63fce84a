// Package categories maps canonical industry and stage labels to the synonyms
// investors use for them.
package categories

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultTables []byte

type tables struct {
	Industries map[string][]string `yaml:"industries"`
	Stages     map[string][]string `yaml:"stages"`
}

// Mapper is read-only after construction and safe for concurrent use.
type Mapper struct {
	industries map[string][]string
	stages     map[string][]string
}

// Default returns the built-in tables.
func Default() (*Mapper, error) {
	return Parse(defaultTables)
}

// MustDefault panics if the embedded tables are malformed.
func MustDefault() *Mapper {
	m, err := Default()
	if err != nil {
		panic(err)
	}
	return m
}

// LoadFile reads tables from a YAML file, or the built-in tables when path is empty.
func LoadFile(path string) (*Mapper, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Mapper, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Mapper, error) {
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(t.Industries) == 0 && len(t.Stages) == 0 {
		return nil, fmt.Errorf("parse categories: no industries or stages defined")
	}
	return &Mapper{
		industries: copyTable(t.Industries),
		stages:     copyTable(t.Stages),
	}, nil
}

func copyTable(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for label, synonyms := range in {
		out[label] = append([]string(nil), synonyms...)
	}
	return out
}

func lookup(table map[string][]string, label string) []string {
	synonyms, ok := table[label]
	if !ok {
		return nil
	}
	return append([]string(nil), synonyms...)
}

// IndustrySynonyms returns the synonyms for an exact industry label, or nil.
func (m *Mapper) IndustrySynonyms(label string) []string {
	return lookup(m.industries, label)
}

// StageSynonyms returns the synonyms for an exact stage label, or nil.
func (m *Mapper) StageSynonyms(label string) []string {
	return lookup(m.stages, label)
}
