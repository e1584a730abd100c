package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Dataset is a flat list of entity instances as stored on disk.
type Dataset struct {
	TemplateID string   `json:"template_id" yaml:"template_id"`
	Entities   []Entity `json:"entities" yaml:"entities"`
}

// LoadDataset reads a dataset file. The format follows the extension: .yaml
// and .yml parse as YAML, anything else as JSON.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var ds Dataset
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &ds); err != nil {
			return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &ds); err != nil {
			return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
		}
	}
	return &ds, nil
}

// StoreOf loads every entity of the dataset into a fresh MemStore, in file
// order.
func (ds *Dataset) StoreOf() *MemStore {
	store := NewMemStore()
	for i := range ds.Entities {
		store.Put(&ds.Entities[i])
	}
	return store
}
