package util

import (
	"math"
	"strconv"
)

// Float is a float64 that marshals NaN and ±Inf as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Floats converts a series for JSON output.
func Floats(in []float64) []Float {
	out := make([]Float, len(in))
	for i, v := range in {
		out[i] = Float(v)
	}
	return out
}

// FloatPtr converts an optional value; nil stays nil and marshals as null.
func FloatPtr(p *float64) *Float {
	if p == nil {
		return nil
	}
	f := Float(*p)
	return &f
}
