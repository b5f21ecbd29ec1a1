package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// singularPivotTolerance is the smallest pivot magnitude InvertMatrix accepts.
const singularPivotTolerance = 1e-10

// InvertMatrix inverts a square matrix by Gauss-Jordan elimination with
// partial pivoting on the augmented matrix [A|I]. A pivot smaller than 1e-10
// in magnitude yields ErrSingularMatrix.
func InvertMatrix(a mat.Matrix) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: cannot invert %dx%d matrix", ErrDimensionMismatch, n, c)
	}

	aug := mat.NewDense(n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, a.At(i, j))
		}
		aug.Set(i, n+i, 1)
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug.At(r, col)) > math.Abs(aug.At(pivotRow, col)) {
				pivotRow = r
			}
		}
		if pivotRow != col {
			x, y := aug.RawRowView(pivotRow), aug.RawRowView(col)
			for k := range x {
				x[k], y[k] = y[k], x[k]
			}
		}

		pivot := aug.At(col, col)
		if math.Abs(pivot) < singularPivotTolerance {
			return nil, fmt.Errorf("%w: pivot %.3g in column %d", ErrSingularMatrix, pivot, col)
		}

		pivotVals := aug.RawRowView(col)
		floats.Scale(1/pivot, pivotVals)

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug.At(r, col)
			if factor == 0 {
				continue
			}
			floats.AddScaled(aug.RawRowView(r), -factor, pivotVals)
		}
	}

	return mat.DenseCopyOf(aug.Slice(0, n, n, 2*n)), nil
}

// MultiplyMatrixVector returns a·v.
func MultiplyMatrixVector(a mat.Matrix, v []float64) ([]float64, error) {
	r, c := a.Dims()
	if c != len(v) {
		return nil, fmt.Errorf("%w: %dx%d matrix times vector of length %d", ErrDimensionMismatch, r, c, len(v))
	}

	var out mat.VecDense
	out.MulVec(a, mat.NewVecDense(len(v), v))
	return out.RawVector().Data, nil
}

// denseFromRows copies a validated square [][]float64 into a gonum matrix.
func denseFromRows(rows [][]float64) *mat.Dense {
	n := len(rows)
	m := mat.NewDense(n, n, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
