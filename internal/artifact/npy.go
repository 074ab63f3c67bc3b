package artifact

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sbinet/npyio"
)

// WriteEmbeddings writes vectors as a flat float32 npy array.
// The row length is recorded in the run manifest.
func WriteEmbeddings(path string, vectors [][]float32) error {
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}

	flat := make([]float32, 0, len(vectors)*dims)
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("embedding row %d has %d dimensions, want %d", i, len(v), dims)
		}
		flat = append(flat, v...)
	}

	return writeAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := npyio.Write(w, flat); err != nil {
			return fmt.Errorf("writing npy: %w", err)
		}
		return w.Flush()
	})
}

// ReadEmbeddings reads an embedding matrix from an npy file.
//
// Two-dimensional arrays carry their own shape. One-dimensional arrays are
// split into rows of dims values; dims is ignored for 2-D files.
// Both float32 and float64 arrays are accepted.
func ReadEmbeddings(path string, dims int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading npy header: %w", err)
	}

	if r.Header.Descr.Fortran {
		return nil, fmt.Errorf("%s: fortran-ordered arrays are not supported", path)
	}

	shape := r.Header.Descr.Shape
	var rows, cols int
	switch len(shape) {
	case 2:
		rows, cols = shape[0], shape[1]
	case 1:
		if dims <= 0 {
			return nil, fmt.Errorf("%s: 1-D array needs a known dimension", path)
		}
		if shape[0]%dims != 0 {
			return nil, fmt.Errorf("%s: %d values do not divide into rows of %d", path, shape[0], dims)
		}
		rows, cols = shape[0]/dims, dims
	default:
		return nil, fmt.Errorf("%s: expected 1-D or 2-D array, got shape %v", path, shape)
	}

	var flat []float32
	switch r.Header.Descr.Type {
	case "<f4", "float32":
		if err := r.Read(&flat); err != nil {
			return nil, fmt.Errorf("reading npy data: %w", err)
		}
	case "<f8", "float64":
		var wide []float64
		if err := r.Read(&wide); err != nil {
			return nil, fmt.Errorf("reading npy data: %w", err)
		}
		flat = make([]float32, len(wide))
		for i, x := range wide {
			flat[i] = float32(x)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", path, r.Header.Descr.Type)
	}

	if len(flat) != rows*cols {
		return nil, fmt.Errorf("%s: read %d values, want %d", path, len(flat), rows*cols)
	}

	matrix := make([][]float32, rows)
	for i := range matrix {
		matrix[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return matrix, nil
}
