package curated

import (
	"fmt"
	"os"
	"path/filepath"
)

func sheetPath(dir, sheet string) string {
	return filepath.Join(dir, sheet+".csv")
}

// Save writes the raw sheets to <root>/<version>/<sheet>.csv and returns the snapshot directory.
func (s Snapshot) Save(root string) (string, error) {
	dir := filepath.Join(root, s.Version)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}
	for _, sheet := range Sheets {
		err = os.WriteFile(sheetPath(dir, sheet), s.raw[sheet], 0644)
		if err != nil {
			return "", fmt.Errorf("write %s: %w", sheet, err)
		}
	}
	return dir, nil
}

// Load reads a snapshot previously written by Save. The directory name is not trusted, the version is
// always recomputed from the contents.
func Load(dir string) (Snapshot, error) {
	raw := make(map[string][]byte, len(Sheets))
	for _, sheet := range Sheets {
		payload, err := os.ReadFile(sheetPath(dir, sheet))
		if err != nil {
			return Snapshot{}, fmt.Errorf("read %s: %w", sheet, err)
		}
		raw[sheet] = payload
	}
	return Parse(raw)
}
