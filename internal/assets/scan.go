package assets

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Asset is one decodable file found under a root.
type Asset struct {
	Name string // Slash-separated path relative to Root
	Path string
	Root string
	Kind Kind
}

// Scan lists every texture and mesh under the roots. When the same name
// exists in several roots only the highest-priority file is returned.
// Hidden files and directories are skipped. Results are sorted by name.
func (m *Manager) Scan() ([]Asset, error) {
	roots := m.Roots()
	byName := make(map[string]Asset)

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			kind := Classify(path)
			if kind == KindUnknown {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)
			// Later roots overwrite earlier ones.
			byName[name] = Asset{Name: name, Path: path, Root: root, Kind: kind}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	out := make([]Asset, 0, len(byName))
	for _, a := range byName {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// nameFor maps a file path back to its asset name under the root that
// contains it, or "" when no root does.
func (m *Manager) nameFor(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		rel, err := filepath.Rel(m.roots[i], path)
		if err == nil && filepath.IsLocal(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return ""
}
