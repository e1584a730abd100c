package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTemplate reads and parses a template JSON document.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse template JSON: %w", err)
	}

	return &tpl, nil
}
