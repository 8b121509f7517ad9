// Package report writes run artifacts: CSV tables, series, a text report and a JSON dump.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TagLayout is the run timestamp format used in artifact file names
const TagLayout = "20060102_150405"

// Dirs is the output layout of one base directory
type Dirs struct {
	Base   string
	Tables string
	Series string
}

// EnsureOutputDirs creates base, base/tables and base/series
func EnsureOutputDirs(base string) (Dirs, error) {
	d := Dirs{
		Base:   base,
		Tables: filepath.Join(base, "tables"),
		Series: filepath.Join(base, "series"),
	}
	for _, dir := range []string{d.Base, d.Tables, d.Series} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Dirs{}, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	return d, nil
}

// TimestampTag formats t as 20060102_150405
func TimestampTag(t time.Time) string {
	return t.Format(TagLayout)
}
