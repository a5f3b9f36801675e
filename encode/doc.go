// Package encode renders [ir.Node] trees as text.
//
// The default output is indented JSON. [EncodeWire] selects the compact
// form used for files, [EncodeColors] adds terminal colors and
// EncodeFormat(format.YAMLFormat) renders a YAML view of the same tree.
package encode
