package test_test

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadBytes reads fixture from testdata directory of package under test. Go test runs with package directory as
// working directory so relative path is enough.
func LoadBytes(t testing.TB, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load fixture %q: %v", name, err)
	}
	return b
}

// LoadFakePort creates FakePort that serves fixture contents as device input
func LoadFakePort(t testing.TB, name string) *FakePort {
	t.Helper()
	return NewFakePort(LoadBytes(t, name))
}
