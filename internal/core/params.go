package core

// ParamType enumerates supported parameter value kinds.
type ParamType string

const (
	// ParamTypeInt denotes integer-valued parameters.
	ParamTypeInt ParamType = "int"
	// ParamTypeCounter denotes read-only integer statistics.
	ParamTypeCounter ParamType = "counter"
)

// Parameter describes a single value exposed by a simulation.
type Parameter struct {
	Key   string
	Label string
	Type  ParamType
	Value string
}

// ParameterGroup clusters related parameters for presentation purposes.
type ParameterGroup struct {
	Name   string
	Params []Parameter
}

// ParameterSnapshot captures the current set of values exposed by a sim.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// Lookup finds a parameter by key across all groups.
func (s ParameterSnapshot) Lookup(key string) (Parameter, bool) {
	for _, g := range s.Groups {
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// ParameterControl describes an adjustable integer parameter that should be
// exposed on the HUD. Adjustments multiply or divide by Factor within
// [Min, Max].
type ParameterControl struct {
	Key    string
	Label  string
	Factor int
	Min    int
	Max    int
}

// ParameterProvider exposes the sim's current parameter snapshot.
type ParameterProvider interface {
	Parameters() ParameterSnapshot
}

// ParameterControlsProvider exposes the list of HUD-adjustable controls.
type ParameterControlsProvider interface {
	ParameterControls() []ParameterControl
}

// IntParameterSetter allows HUD interactions to update integer parameters.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// Adjust returns the value one step in direction (positive multiplies,
// negative divides) clamped to the control's bounds. ok is false when the
// value is already at the bound.
func (c ParameterControl) Adjust(value, direction int) (target int, ok bool) {
	factor := max(c.Factor, 2)
	switch {
	case direction > 0:
		target = min(value*factor, c.Max)
	case direction < 0:
		target = max(value/factor, c.Min)
	default:
		return value, false
	}
	return target, target != value
}
