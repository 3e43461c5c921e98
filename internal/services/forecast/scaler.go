package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrScalerNotFitted  = errors.New("forecast: scaler is not fitted")
	ErrDegenerateScaler = errors.New("forecast: scaler produced a non-finite value")
)

// MinMaxScaler maps each column linearly onto [0,1] using the bounds seen in
// Fit. A column whose min equals its max gets scale 1, so it maps to 0.
type MinMaxScaler struct {
	min   []float64
	scale []float64
}

// Fit learns per-column bounds from rows. All rows must share one width.
func (s *MinMaxScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("%w: no rows to fit", ErrDegenerateScaler)
	}
	width := len(rows[0])
	col := make([]float64, len(rows))
	s.min = make([]float64, width)
	s.scale = make([]float64, width)
	for c := 0; c < width; c++ {
		for r, row := range rows {
			if len(row) != width {
				return fmt.Errorf("forecast: scaler row %d has %d columns, want %d", r, len(row), width)
			}
			col[r] = row[c]
		}
		lo, hi := floats.Min(col), floats.Max(col)
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: column %d bounds [%v, %v]", ErrDegenerateScaler, c, lo, hi)
		}
		s.min[c] = lo
		s.scale[c] = 1
		if span := hi - lo; span > 0 {
			s.scale[c] = 1 / span
		}
	}
	return nil
}

// Width returns the number of fitted columns.
func (s *MinMaxScaler) Width() int { return len(s.min) }

// Transform returns scaled copies of rows.
func (s *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	if s.min == nil {
		return nil, ErrScalerNotFitted
	}
	out := make([][]float64, len(rows))
	for r, row := range rows {
		if len(row) != len(s.min) {
			return nil, fmt.Errorf("forecast: row %d has %d columns, scaler fitted on %d", r, len(row), len(s.min))
		}
		scaled := make([]float64, len(row))
		for c, v := range row {
			scaled[c] = (v - s.min[c]) * s.scale[c]
		}
		if !allFinite(scaled) {
			return nil, fmt.Errorf("%w: row %d", ErrDegenerateScaler, r)
		}
		out[r] = scaled
	}
	return out, nil
}

// FitTransform fits on rows and returns them scaled.
func (s *MinMaxScaler) FitTransform(rows [][]float64) ([][]float64, error) {
	if err := s.Fit(rows); err != nil {
		return nil, err
	}
	return s.Transform(rows)
}

// InverseTransform maps one scaled row back to original units.
func (s *MinMaxScaler) InverseTransform(row []float64) ([]float64, error) {
	if s.min == nil {
		return nil, ErrScalerNotFitted
	}
	if len(row) != len(s.min) {
		return nil, fmt.Errorf("forecast: inverse row has %d columns, scaler fitted on %d", len(row), len(s.min))
	}
	out := make([]float64, len(row))
	for c, v := range row {
		out[c] = v/s.scale[c] + s.min[c]
	}
	if !allFinite(out) {
		return nil, ErrDegenerateScaler
	}
	return out, nil
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
