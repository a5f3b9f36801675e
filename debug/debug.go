// Package debug holds environment switches for tracing the engine.
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Walk   bool
	Decode bool
	Defer  bool
	Relink bool
}

var d *debug

func init() {
	d = &debug{}
	d.Walk = boolEnv("OBJGRAPH_DEBUG_WALK")
	d.Decode = boolEnv("OBJGRAPH_DEBUG_DECODE")
	d.Defer = boolEnv("OBJGRAPH_DEBUG_DEFER")
	d.Relink = boolEnv("OBJGRAPH_DEBUG_RELINK")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Walk traces every value visited while encoding.
func Walk() bool {
	return d.Walk
}

// Decode traces every node dispatched while decoding.
func Decode() bool {
	return d.Decode
}

// Defer traces the deferred build queue.
func Defer() bool {
	return d.Defer
}

// Relink traces callback relinking.
func Relink() bool {
	return d.Relink
}

// All switches every trace on or off.
func All(v bool) {
	d.Walk, d.Decode, d.Defer, d.Relink = v, v, v, v
}
