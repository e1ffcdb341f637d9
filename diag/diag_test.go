package diag

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Infof("worker %d started", 3)
	Warnf("free list low")
	Errorf("bad page size %d", 12)

	out := buf.String()
	for _, want := range []string{"worker 3 started", "free list low", "bad page size 12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFatalfCallsExit(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	exited := -1
	Exit = func(code int) { exited = code }
	defer func() { Exit = os.Exit }()

	Fatalf("out of memory")
	if exited != 1 {
		t.Errorf("Exit called with %d, want 1", exited)
	}
	if !strings.Contains(buf.String(), "out of memory") {
		t.Errorf("fatal message not logged: %s", buf.String())
	}
}
