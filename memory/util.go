package memory

import "gonum.org/v1/gonum/mat"

// copyVec copies the elements of v into dst
func copyVec(dst []float64, v mat.Vector) {
	for i := range dst {
		dst[i] = v.AtVec(i)
	}
}
