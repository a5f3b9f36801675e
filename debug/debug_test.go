package debug

import "testing"

func TestBoolEnv(t *testing.T) {
	t.Setenv("OBJGRAPH_TEST_FLAG", "true")
	if !boolEnv("OBJGRAPH_TEST_FLAG") {
		t.Error("expected true")
	}
	t.Setenv("OBJGRAPH_TEST_FLAG", "nope")
	if boolEnv("OBJGRAPH_TEST_FLAG") {
		t.Error("expected false")
	}
}

func TestAll(t *testing.T) {
	old := *d
	defer func() { *d = old }()
	All(true)
	if !Walk() || !Decode() || !Defer() || !Relink() {
		t.Error("expected all on")
	}
	All(false)
	if Walk() || Decode() || Defer() || Relink() {
		t.Error("expected all off")
	}
}
