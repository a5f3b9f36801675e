// Package numeric holds the numeric value model of objgraph: element kinds
// and their wire tags, the shortest round-trip text form of real and
// complex numbers, and the [Dense] and [Sparse] array types.
package numeric
