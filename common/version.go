package common

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// packageJSON holds the fields we need for version discovery.
type packageJSON struct {
	Version string `json:"version"`
}

// PackageVersion walks up from dir looking for a package.json and returns
// its "version" field. Returns "" when no package.json exists anywhere up
// the tree or the file has no version. Scoped class names fold this value
// in so that two consumer packages with identical file and class names
// still get distinct generated identifiers.
func PackageVersion(dir string) string {
	for {
		data, err := os.ReadFile(filepath.Join(dir, "package.json"))
		if err == nil {
			var pkg packageJSON
			if err := json.Unmarshal(data, &pkg); err == nil && pkg.Version != "" {
				return pkg.Version
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
