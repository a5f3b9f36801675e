package gomap

import (
	"bytes"
	"testing"

	"github.com/signadot/objgraph/encode"
	"github.com/signadot/objgraph/ir"
)

type testPoint struct {
	X, Y float64
}

type testNode struct {
	Name string
	Next *testNode
}

type testGroup struct {
	Name     string
	Channels []*testChannel
	Peer     *testGroup `graph:"backref"`
}

type testChannel struct {
	Name  string
	Group *testGroup `graph:"owner"`
	Gain  float64
}

type testWatch struct {
	Target   *testGroup
	OnChange *Callback
}

type testRenamed struct {
	N     int32 `graph:"field=n"`
	Cache []byte `graph:"-"`
}

func testTypes() *Types {
	types := NewTypes()
	MustRegister[testPoint](types, "Point")
	MustRegister[testNode](types, "Node")
	MustRegister[testGroup](types, "Group")
	MustRegister[testChannel](types, "Channel")
	MustRegister[testWatch](types, "Watch")
	MustRegister[testRenamed](types, "Renamed")
	return types
}

func wire(t *testing.T, n *ir.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := encode.Encode(n, &buf, encode.EncodeWire(true)); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

type warnings []error

func (w *warnings) collect() Option {
	return OnWarning(func(err error) { *w = append(*w, err) })
}
