package mem

import "golang.org/x/exp/constraints"

// AlignDown rounds v down to a multiple of a, which must be a power of two.
func AlignDown[I constraints.Integer](v, a I) I {
	return v &^ (a - 1)
}

// AlignUp rounds v up to a multiple of a, which must be a power of two.
func AlignUp[I constraints.Integer](v, a I) I {
	return (v + a - 1) &^ (a - 1)
}
