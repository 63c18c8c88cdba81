package difftar

import (
	"iter"
	"sort"
)

// FileMap is an insertion-ordered mapping from archive-relative path to file
// content. Keys are unique; Set on an existing key replaces the content in
// place (last writer wins) without changing the key's position.
type FileMap struct {
	paths []string
	files map[string][]byte
}

func NewFileMap() *FileMap {
	return &FileMap{files: make(map[string][]byte)}
}

func (m *FileMap) Set(path string, data []byte) {
	if _, ok := m.files[path]; !ok {
		m.paths = append(m.paths, path)
	}
	m.files[path] = data
}

func (m *FileMap) Get(path string) ([]byte, bool) {
	if m == nil {
		return nil, false
	}
	data, ok := m.files[path]
	return data, ok
}

func (m *FileMap) Has(path string) bool {
	_, ok := m.Get(path)
	return ok
}

func (m *FileMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.paths)
}

// Paths returns a copy of the keys in insertion order.
func (m *FileMap) Paths() []string {
	if m == nil {
		return nil
	}
	paths := make([]string, len(m.paths))
	copy(paths, m.paths)
	return paths
}

// All iterates entries in insertion order.
func (m *FileMap) All() iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		if m == nil {
			return
		}
		for _, path := range m.paths {
			if !yield(path, m.files[path]) {
				return
			}
		}
	}
}

// sortedUnion returns the union of both maps' keys in ascending lexicographic
// order. This fixes the enumeration order of every diff output.
func sortedUnion(left, right *FileMap) []string {
	seen := make(map[string]struct{}, left.Len()+right.Len())
	union := make([]string, 0, left.Len()+right.Len())
	for _, m := range []*FileMap{left, right} {
		if m == nil {
			continue
		}
		for _, path := range m.paths {
			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				union = append(union, path)
			}
		}
	}
	sort.Strings(union)
	return union
}
