package cases

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	// Sheet selects the worksheet of an .xlsx file. Empty means the first.
	Sheet string
}

// Load reads the case file once and returns the records in file order.
// The format is picked by extension: .json, .yaml/.yml or .xlsx.
func Load(path string, opts LoadOptions) ([]Case, error) {
	var (
		cs  []Case
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		cs, err = loadJSON(path)
	case ".yaml", ".yml":
		cs, err = loadYAML(path)
	case ".xlsx":
		cs, err = loadXLSX(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("unsupported case file %s: want .json, .yaml or .xlsx", path)
	}
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: %s has no records", ErrInvalid, path)
	}
	normalizeModes(cs)
	if err := Validate(cs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	normalizeNames(cs)
	return cs, nil
}

func loadJSON(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var cs []Case
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cs, nil
}

func loadYAML(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var cs []Case
	if err := yaml.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cs, nil
}
