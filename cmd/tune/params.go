package main

import (
	"github.com/pthm-cable/pbd/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable fluid parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "relaxation", Path: "fluid.relaxation", Min: 50, Max: 2000, Default: 600},
			{Name: "tensile_k", Path: "fluid.tensile_k", Min: 0, Max: 0.01, Default: 0.0001},
			{Name: "viscosity", Path: "fluid.viscosity", Min: 0, Max: 0.1, Default: 0.01},
			{Name: "vorticity", Path: "fluid.vorticity", Min: 0, Max: 0.005, Default: 0.0005},
			{Name: "distance_stiffness", Path: "distance.stiffness", Min: 0.1, Max: 1, Default: 0.9},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Fluid.Relaxation = clamped[0]
	cfg.Fluid.TensileK = clamped[1]
	cfg.Fluid.Viscosity = clamped[2]
	cfg.Fluid.Vorticity = clamped[3]
	cfg.Distance.Stiffness = clamped[4]
	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Fluid.Relaxation,
		cfg.Fluid.TensileK,
		cfg.Fluid.Viscosity,
		cfg.Fluid.Vorticity,
		cfg.Distance.Stiffness,
	}
}
