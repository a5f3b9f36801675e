// Package parse reads JSON text into an ordered [ir.Node] tree. Number
// literals are kept as written.
package parse
