package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set to a
// non-empty value.
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// LoadFixtureJSON reads path, relative to the test package, into dest.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadDocs loads a JSON array of index documents, ready for MemoryIndex.Add.
func LoadDocs(t *testing.T, path string) []map[string]any {
	t.Helper()

	var docs []map[string]any
	LoadFixtureJSON(t, path, &docs)
	return docs
}

// CompareWithGolden compares actual with the golden file at path. Trailing
// newlines are ignored. A missing golden file is created from actual.
func CompareWithGolden(t *testing.T, path string, actual []byte) {
	t.Helper()

	expected, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) || os.Getenv(UpdateGoldenEnv) != "":
		t.Logf("writing golden file %s", path)
		writeGolden(t, path, actual)
		return
	case err != nil:
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if !bytes.Equal(bytes.TrimRight(actual, "\n"), bytes.TrimRight(expected, "\n")) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, actual)
	}
}

func writeGolden(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// FixturePath joins filename onto the package testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath joins filename onto testdata/golden.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}
