// Package gomap maps Go object graphs to wire nodes and back.
//
// # Usage
//
//	types := gomap.NewTypes()
//	gomap.MustRegister[Scene](types, "Scene")
//	gomap.MustRegister[Channel](types, "Channel")
//
//	// Encode, in one session per document
//	enc := gomap.NewEncoder(gomap.WithTypes(types))
//	node, err := enc.Encode("scene", scene)
//
//	// Decode
//	dec := gomap.NewDecoder(gomap.WithTypes(types))
//	var got *Scene
//	err = dec.Decode("scene", node, &got)
//	warnings := dec.Finish()
//
// Pointers to registered structs and *Object values have identity: the
// first visit in a session writes the object with a _handle, later visits
// write {"_type":"handle","_value":id}. Cycles and shared substructure
// therefore survive a round trip. Fields tagged `graph:"backref"` are
// always written as references, and a field tagged `graph:"owner"` makes
// the decoder postpone a node until its owner exists.
//
// Numeric slices, numeric.Dense and numeric.Sparse are written as array
// nodes, choosing the most compact of the constant, range, base64 and
// textual encodings that reproduces the values exactly.
//
// Decoding is tolerant: a branch that does not match its declared type is
// reported as a *FormatError warning and left at its zero value, and
// references that never resolve are reported as *ReferenceError.
//
// # Related Packages
//
//   - github.com/signadot/objgraph/ir - wire node representation
//   - github.com/signadot/objgraph/numeric - element kinds and arrays
package gomap
