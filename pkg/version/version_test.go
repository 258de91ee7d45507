package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "cg "+Version) {
		t.Errorf("banner %q should start with the version", s)
	}
	if !strings.Contains(s, runtime.Version()) {
		t.Errorf("banner %q should mention the Go version", s)
	}
}
