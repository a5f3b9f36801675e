// Package ir provides the in-memory tree for objgraph documents.
//
// A document is plain JSON. [Node] represents one JSON value with object
// keys kept in the order they were written and number literals kept as
// text, so a value written at a given width can be read back at that width
// without loss.
//
// On top of plain JSON, the wire format gives meaning to a small set of
// reserved keys (see [KeyType] and friends). [ShapeOf] classifies a node as
// one of
//
//   - scalar: a bare number, string, boolean or null
//   - typed scalar: {"_type":"int32","_value":5}
//   - array: {"_type":"double","_size":[3],"_data":[1,2,3]}
//   - object: {"_type":"Channel","_handle":1,"name":"x"}
//   - reference: {"_type":"handle","_value":1}
//
// User keys that begin with an underscore are escaped with one extra
// underscore by [EscapeKey], so they never collide with reserved keys.
package ir
