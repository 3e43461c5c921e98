package forecast

import (
	"fmt"
	"math"
)

// TargetMode selects what the regressor learns for each window.
//
// TargetLevel is the textbook setup: the label is the next scaled close
// itself. Forest predictions are averages of training labels, so a level
// forecast never leaves the range of closes seen in training and trails any
// trend. TargetDelta, the default, labels each window with the scaled change
// from its last close to the next one and adds the prediction back onto the
// window's last close. Both modes report the result in price units.
type TargetMode int

const (
	// TargetDelta learns the scaled change from the window's last close to the next one.
	TargetDelta TargetMode = iota
	// TargetLevel learns the next scaled close directly.
	TargetLevel
)

func (m TargetMode) String() string {
	switch m {
	case TargetDelta:
		return "delta"
	case TargetLevel:
		return "level"
	default:
		return fmt.Sprintf("TargetMode(%d)", int(m))
	}
}

// ParseTargetMode accepts "delta" or "level".
func ParseTargetMode(s string) (TargetMode, error) {
	switch s {
	case "delta", "":
		return TargetDelta, nil
	case "level":
		return TargetLevel, nil
	}
	return 0, fmt.Errorf("forecast: unknown target mode %q", s)
}

// Dataset holds windowed examples. Base[i] is the scaled close of the last row
// inside window i; Level(i, y) turns a model output into a scaled close.
type Dataset struct {
	X    [][]float64
	Y    []float64
	Base []float64
	mode TargetMode
}

func (d *Dataset) Len() int { return len(d.X) }

// Level converts a model output for example i into a scaled close.
func (d *Dataset) Level(i int, y float64) float64 {
	if d.mode == TargetDelta {
		return d.Base[i] + y
	}
	return y
}

// Slice returns the examples in [from, to).
func (d *Dataset) Slice(from, to int) Dataset {
	return Dataset{X: d.X[from:to], Y: d.Y[from:to], Base: d.Base[from:to], mode: d.mode}
}

// BuildWindows flattens every run of window consecutive rows into one example
// whose target comes from the row right after it. closeCol is the column
// holding the scaled close.
func BuildWindows(rows [][]float64, window, closeCol int, mode TargetMode) (Dataset, error) {
	if window <= 0 {
		return Dataset{}, fmt.Errorf("forecast: window must be positive, got %d", window)
	}
	if len(rows) <= window {
		return Dataset{}, fmt.Errorf("%w: %d rows, window %d", ErrInsufficientData, len(rows), window)
	}
	width := len(rows[0])
	n := len(rows) - window
	ds := Dataset{
		X:    make([][]float64, n),
		Y:    make([]float64, n),
		Base: make([]float64, n),
		mode: mode,
	}
	for i := 0; i < n; i++ {
		flat := make([]float64, 0, window*width)
		for _, row := range rows[i : i+window] {
			flat = append(flat, row...)
		}
		next := rows[i+window][closeCol]
		base := rows[i+window-1][closeCol]
		ds.X[i] = flat
		ds.Base[i] = base
		if mode == TargetDelta {
			ds.Y[i] = next - base
		} else {
			ds.Y[i] = next
		}
	}
	return ds, nil
}

// SplitSizes returns positional train/test sizes with test = ceil(n*testFraction).
// Both partitions must be non-empty.
func SplitSizes(n int, testFraction float64) (train, test int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return 0, 0, fmt.Errorf("forecast: test fraction must be in (0,1), got %v", testFraction)
	}
	test = int(math.Ceil(float64(n) * testFraction))
	train = n - test
	if train < 1 || test < 1 {
		return 0, 0, fmt.Errorf("%w: %d examples cannot be split into train and test", ErrInsufficientData, n)
	}
	return train, test, nil
}
