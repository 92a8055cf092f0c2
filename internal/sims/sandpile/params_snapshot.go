package sandpile

import (
	"strconv"

	"sandpile/internal/core"
)

// Parameters reports the tunables and counters shown on the HUD.
func (m *Model) Parameters() core.ParameterSnapshot {
	ext := m.FindExtent()
	groups := []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				intParam("w", "Width", m.lattice.W),
				intParam("h", "Height", m.lattice.H),
				intParam("margin", "Extent margin", m.cfg.Margin),
				counterParam("extent_w", "Extent width", ext.W),
				counterParam("extent_h", "Extent height", ext.H),
			},
		},
		{
			Name: "Injection",
			Params: []core.Parameter{
				intParam("interval", "Interval", m.interval),
				counterParam("sources", "Sandpiles", m.sources.Len()),
				intParam("grain_limit", "Grain limit", m.cfg.GrainLimit),
			},
		},
		{
			Name: "Grains",
			Params: []core.Parameter{
				counterParam("total_grains", "Total", m.totalGrains),
				counterParam("lost_grains", "Lost", m.lostGrains),
				counterParam("avalanche", "Avalanche", m.avalanche),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the HUD-adjustable parameters.
func (m *Model) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "interval", Label: "Interval", Factor: 4, Min: 1, Max: MaxInterval},
	}
}

// SetIntParameter updates an adjustable parameter, clamping to its bounds.
func (m *Model) SetIntParameter(key string, value int) bool {
	switch key {
	case "interval":
		m.SetInterval(value)
		return true
	}
	return false
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func counterParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeCounter,
		Value: strconv.Itoa(value),
	}
}
