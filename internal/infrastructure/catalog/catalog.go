package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"chamado.backend/internal/domain/entities"
)

//go:embed missions.yaml
var defaultCatalog []byte

type file struct {
	Missions []*entities.Mission `yaml:"missions"`
}

// MissionCatalog is the read-only mission list loaded from YAML.
type MissionCatalog struct {
	missions []*entities.Mission
}

var readFile = os.ReadFile

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*MissionCatalog, error) {
	data := defaultCatalog
	source := "built-in catalog"
	if strings.TrimSpace(path) != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		data, source = raw, path
	}
	return parse(data, source)
}

func parse(data []byte, source string) (*MissionCatalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", source, err)
	}
	seen := map[string]bool{}
	for i, m := range f.Missions {
		if m == nil || strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("catalog: mission %d: missing id", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("catalog: duplicate mission id %q", m.ID)
		}
		seen[m.ID] = true
		if !m.Status.IsValid() {
			return nil, fmt.Errorf("catalog: mission %s: unknown status %q", m.ID, m.Status)
		}
		if m.Capacity < 0 || m.Enrolled < 0 {
			return nil, fmt.Errorf("catalog: mission %s: negative capacity or enrollment", m.ID)
		}
	}
	return &MissionCatalog{missions: f.Missions}, nil
}

// List returns copies of the missions in catalog order.
func (c *MissionCatalog) List(_ context.Context) ([]*entities.Mission, error) {
	out := make([]*entities.Mission, len(c.missions))
	for i, m := range c.missions {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}
