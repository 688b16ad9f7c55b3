package state

import (
	"cmp"
	"slices"
)

type Pair[Ty1, Ty2 any] struct {
	V1 Ty1
	V2 Ty2
}

func MakeSortedPair[T cmp.Ordered](a, b T) Pair[T, T] {
	if a < b {
		return Pair[T, T]{a, b}
	} else {
		return Pair[T, T]{b, a}
	}
}

// Flip returns the pair with its elements swapped
func (p Pair[Ty1, Ty2]) Flip() Pair[Ty2, Ty1] {
	return Pair[Ty2, Ty1]{p.V2, p.V1}
}

func ComparePairs[T1, T2 cmp.Ordered](a, b Pair[T1, T2]) int {
	if c := cmp.Compare(a.V1, b.V1); c != 0 {
		return c
	}
	return cmp.Compare(a.V2, b.V2)
}

func SortPairs[T1, T2 cmp.Ordered](pairs []Pair[T1, T2]) {
	slices.SortFunc(pairs, ComparePairs[T1, T2])
}
