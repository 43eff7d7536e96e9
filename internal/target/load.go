package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caesium-cloud/cimon/internal/models"
	"gopkg.in/yaml.v3"
)

type file struct {
	Targets models.Targets `yaml:"targets" toml:"targets"`
}

// Load reads targets from a YAML or TOML file, chosen by extension.
func Load(path string) (models.Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported targets file %q", path)
	}

	for i, t := range f.Targets {
		if t == nil {
			return nil, fmt.Errorf("%s: target %d is empty", path, i)
		}
		p, err := models.ParseProvider(string(t.Provider))
		if err != nil {
			return nil, fmt.Errorf("%s: target %d: %w", path, i, err)
		}
		t.Provider = p
		if err := Validate(t); err != nil {
			return nil, fmt.Errorf("%s: target %d: %w", path, i, err)
		}
	}

	return f.Targets, nil
}
