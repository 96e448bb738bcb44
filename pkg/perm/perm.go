// Package perm enumerates permutations of small index sets.
//
// The crossing reducer uses it to try every arrangement of a crossing
// cluster's nodes over the cluster's current positions. Enumeration follows
// Heap's algorithm, so the first permutation is always the identity and each
// subsequent one differs from its predecessor by a single swap.
package perm

import "slices"

// Seq returns a slice containing the sequence [0, 1, 2, ..., n-1].
// For n <= 0, Seq returns an empty slice.
func Seq(n int) []int {
	if n <= 0 {
		return []int{}
	}
	result := make([]int, n)
	for i := range result {
		result[i] = i
	}
	return result
}

// Factorial returns n!, the number of permutations of n elements.
// For n <= 1, Factorial returns 1.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Each calls fn with every permutation of [0, 1, ..., n-1], identity first.
// The slice passed to fn is reused between calls; clone it to keep it.
// Returning false from fn stops the enumeration early.
//
// For n <= 0, fn is called once with an empty slice.
func Each(n int, fn func(p []int) bool) {
	p := Seq(n)
	if !fn(p) || n <= 1 {
		return
	}

	state := make([]int, n)
	for i := 0; i < n; {
		if state[i] < i {
			if i&1 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			if !fn(p) {
				return
			}
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
}

// Generate returns up to limit permutations of [0, 1, ..., n-1] in the same
// order as [Each]. If limit <= 0, all n! permutations are returned.
//
// Each returned slice is a separate allocation. For n >= 10 the full set
// runs into millions of slices; use a limit or [Each] instead.
func Generate(n, limit int) [][]int {
	capacity := Factorial(min(max(n, 0), 10))
	if limit > 0 && limit < capacity {
		capacity = limit
	}
	result := make([][]int, 0, capacity)
	Each(n, func(p []int) bool {
		result = append(result, slices.Clone(p))
		return limit <= 0 || len(result) < limit
	})
	return result
}
