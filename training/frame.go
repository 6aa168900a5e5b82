package training

import "fmt"

// Frame is a column-major table of numeric data. Categorical inputs are
// encoded as level indices at parse time, so every column is float64 here.
type Frame struct {
	Names []string
	Cols  [][]float64
}

// NumRows returns the row count
func (f *Frame) NumRows() int {
	if len(f.Cols) == 0 {
		return 0
	}
	return len(f.Cols[0])
}

// NumCols returns the column count
func (f *Frame) NumCols() int {
	return len(f.Cols)
}

// Column returns the column with the given name
func (f *Frame) Column(name string) ([]float64, error) {
	for i, n := range f.Names {
		if n == name {
			return f.Cols[i], nil
		}
	}
	return nil, fmt.Errorf("frame has no column %q", name)
}

// Predictors returns every column except the target, with its name
func (f *Frame) Predictors(target string) ([]string, [][]float64) {
	var names []string
	var cols [][]float64
	for i, n := range f.Names {
		if n == target {
			continue
		}
		names = append(names, n)
		cols = append(cols, f.Cols[i])
	}
	return names, cols
}
