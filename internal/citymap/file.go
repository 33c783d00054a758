package citymap

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// mapFile fixes the key order and writes each row on one line
type mapFile struct {
	Seed           int64     `yaml:"seed"`
	Dimensions     int       `yaml:"dimensions"`
	Tileset        string    `yaml:"tileset"`
	Policy         string    `yaml:"policy"`
	Status         string    `yaml:"status"`
	Steps          int       `yaml:"steps"`
	Contradictions int       `yaml:"contradictions"`
	Digest         string    `yaml:"digest"`
	GeneratedAt    time.Time `yaml:"generated_at"`
	Rows           yaml.Node `yaml:"rows"`
}

// Save writes the map as YAML to path, creating parent directories.
func (m *Map) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create map directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# %dx%d %s map\n", m.Dimensions, m.Dimensions, m.Tileset)
	fmt.Fprintf(f, "# Generated with seed: %d\n\n", m.Seed)

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(m.file()); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return f.Close()
}

func (m *Map) file() *mapFile {
	rows := yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range m.Rows {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, id := range row {
			seq.Content = append(seq.Content, &yaml.Node{
				Kind:  yaml.ScalarNode,
				Tag:   "!!str",
				Value: string(id),
			})
		}
		rows.Content = append(rows.Content, seq)
	}

	return &mapFile{
		Seed:           m.Seed,
		Dimensions:     m.Dimensions,
		Tileset:        m.Tileset,
		Policy:         m.Policy,
		Status:         m.Status,
		Steps:          m.Steps,
		Contradictions: m.Contradictions,
		Digest:         m.Digest,
		GeneratedAt:    m.GeneratedAt,
		Rows:           rows,
	}
}

// Load reads a map written by Save and verifies its digest.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map: %w", err)
	}

	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse map %s: %w", path, err)
	}
	if err := m.Verify(); err != nil {
		return nil, err
	}
	return &m, nil
}
