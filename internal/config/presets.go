package config

import (
	"sort"

	"github.com/san-kum/windtunnel/internal/geometry"
	"github.com/san-kum/windtunnel/internal/smoke"
)

func sources(x int, ys ...int) []smoke.Source {
	out := make([]smoke.Source, len(ys))
	for i, y := range ys {
		out[i] = smoke.Source{X: x, Y: y, Intensity: 1}
	}
	return out
}

var Presets = map[string]*Config{
	"empty": {
		Name: "empty", Width: 200, Height: 80, Tau: 0.6, InletSpeed: 0.08,
		Substeps: 10, Ticks: 1000, History: 200, ReferenceLength: 10,
		Smoke: SmokeConfig{Enabled: true, Sources: sources(2, 20, 40, 60)},
	},
	"cylinder": {
		Name: "cylinder", Width: 200, Height: 80, Tau: 0.6, InletSpeed: 0.08,
		Substeps: 10, Ticks: 4000, History: 200, ReferenceLength: 16,
		Obstacles: []ObstacleConfig{
			{Shape: "circle", Params: geometry.Params{"x": 50, "y": 40, "radius": 8}},
		},
		Smoke: SmokeConfig{Enabled: true, Sources: sources(2, 30, 36, 44, 50)},
	},
	"airfoil": {
		Name: "airfoil", Width: 240, Height: 100, Tau: 0.58, InletSpeed: 0.08,
		Substeps: 10, Ticks: 4000, History: 200, ReferenceLength: 60,
		Obstacles: []ObstacleConfig{
			{Shape: "airfoil", Params: geometry.Params{
				"x": 60, "y": 50, "chord": 60, "camber": 0.02,
				"camber_pos": 0.4, "thickness": 0.12, "angle": 8,
			}},
		},
		Smoke: SmokeConfig{Enabled: true, Sources: sources(2, 40, 46, 52, 58)},
	},
	"plate": {
		Name: "plate", Width: 200, Height: 80, Tau: 0.6, InletSpeed: 0.06,
		Substeps: 10, Ticks: 4000, History: 200, ReferenceLength: 24,
		Obstacles: []ObstacleConfig{
			{Shape: "plate", Params: geometry.Params{"x": 50, "y": 40, "length": 24, "thickness": 2, "angle": 90}},
		},
		Smoke: SmokeConfig{Enabled: true, Sources: sources(2, 32, 40, 48)},
	},
	"channel": {
		Name: "channel", Width: 240, Height: 60, Tau: 0.65, InletSpeed: 0.06,
		Substeps: 10, Ticks: 3000, History: 200, ReferenceLength: 20,
		Obstacles: []ObstacleConfig{
			{Shape: "rect", Params: geometry.Params{"x": 0, "y": 40, "width": 40, "height": 20}},
		},
		Smoke: SmokeConfig{Enabled: true, Sources: sources(2, 10, 20, 30)},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := p.Clone()
	c.LogLevel = "info"
	return c
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
