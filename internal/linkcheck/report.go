package linkcheck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteReport persists the report as JSON when any problems were found.
// A clean pass writes nothing and returns an empty path.
func WriteReport(path string, report Report) (string, error) {
	if report.BrokenCount == 0 {
		return "", nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create report dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
