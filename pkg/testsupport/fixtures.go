// Package testsupport holds helpers shared by the editorial test suites.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadFixture reads a raw fixture file.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadGolden decodes a JSON golden file into v.
func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// FixturePath joins the conventional testdata directory with name.
func FixturePath(name string) string {
	return filepath.Join("testdata", name)
}
