package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds world-generation and sync knobs that operators may override
// with a YAML file. Zero values mean "keep the default".
type Tuning struct {
	NumNodes    int     `yaml:"num_nodes"`
	MapWidth    float64 `yaml:"map_width"`
	MapHeight   float64 `yaml:"map_height"`
	MinDistance float64 `yaml:"min_distance"`

	NodeRadius    float64 `yaml:"node_radius"`
	CorridorWidth float64 `yaml:"corridor_width"`

	MoveBroadcastMs int `yaml:"move_broadcast_ms"`
}

func LoadTuning(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("world tuning: %w", err)
	}
	return t, nil
}
