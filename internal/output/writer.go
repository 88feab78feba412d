// Package output writes scrape results as timestamped JSON artifacts.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/solo800/civic-stream/internal/matter"
)

const filenameStamp = "20060102_150405"

// Filename returns the artifact name for a city at a generation time,
// e.g. chicago_matters_20260823_140501.json.
func Filename(cityCode string, generated time.Time) string {
	return fmt.Sprintf("%s_matters_%s.json", cityCode, generated.UTC().Format(filenameStamp))
}

// WriteMatters serializes the batch as an indented JSON array (stable
// field order via the Matter struct) into dir, creating dir if needed.
// Returns the full path of the written file.
func WriteMatters(dir, cityCode string, matters []matter.Matter, generated time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "output: create results dir %s", dir)
	}

	if matters == nil {
		matters = []matter.Matter{}
	}

	data, err := json.MarshalIndent(matters, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "output: marshal matters")
	}
	data = append(data, '\n')

	path := filepath.Join(dir, Filename(cityCode, generated))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "output: write %s", path)
	}
	return path, nil
}
