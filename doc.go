// Package objgraph saves and restores graphs of Go values as JSON
// documents.
//
// A document is one JSON object whose keys are entry names. Values are
// mapped by package gomap: shared pointers and cycles are written once
// and referenced by handle, numeric arrays choose a compact encoding, and
// callbacks are reattached after every object exists.
//
//	types := gomap.NewTypes()
//	gomap.MustRegister[Channel](types, "Channel")
//
//	path, err := objgraph.EncodeToFile("session.json", []any{scene, prefs},
//		objgraph.Names("scene", "prefs"), objgraph.WithTypes(types), objgraph.Gzip(true))
//
//	res, err := objgraph.DecodeFromFile(path, objgraph.WithTypes(types))
//	scene, _ := res.Get("scene")
//
// Decoding is tolerant: malformed branches and unresolved references are
// collected in Result.Warnings, and only unreadable input or duplicate
// requested names fail the call.
package objgraph
