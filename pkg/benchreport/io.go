package benchreport

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Write encodes r as indented JSON to path, creating parent directories.
// An empty path writes to w.
func Write(r Report, path string, w io.Writer) error {
	if path == "" {
		return encode(w, r)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func Load(path string) (Report, error) {
	var r Report
	f, err := os.Open(path)
	if err != nil {
		return r, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return r, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}

// Loaded is a report together with the file it came from.
type Loaded struct {
	Path   string
	Report Report
}

// LoadDir reads every *.json file under dir. Files that are not reports of
// this schema are skipped.
func LoadDir(dir string) ([]Loaded, error) {
	var out []Loaded
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		r, err := Load(path)
		if err != nil || r.Version != Version {
			return nil
		}
		out = append(out, Loaded{Path: path, Report: r})
		return nil
	}
	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, err
	}
	return out, nil
}
