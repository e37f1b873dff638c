package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSourceFile creates a small document file under a temp directory and
// returns its path.
func WriteSourceFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	return path
}
