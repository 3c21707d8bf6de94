package lingva

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Registry maps extractor names and file extensions to extractors.
// It is populated at startup and read-only afterwards.
type Registry struct {
	extractors map[string]Extractor
	extensions map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
		extensions: make(map[string]string),
	}
}

// Register adds an extractor under name, replacing any previous one.
func (r *Registry) Register(name string, e Extractor) {
	r.extractors[name] = e
}

// Map routes files with the given extension (".pt") to the named
// extractor.
func (r *Registry) Map(ext, name string) error {
	if _, ok := r.extractors[name]; !ok {
		return fmt.Errorf("unknown extractor %q for extension %q", name, ext)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.extensions[strings.ToLower(ext)] = name
	return nil
}

func (r *Registry) Extractor(name string) (Extractor, bool) {
	e, ok := r.extractors[name]
	return e, ok
}

// ForFile returns the extractor responsible for filename. The longest
// matching extension wins, so ".html.pt" can override ".pt".
func (r *Registry) ForFile(filename string) (name string, e Extractor, ok bool) {
	base := strings.ToLower(filepath.Base(filename))
	best := ""
	for ext, n := range r.extensions {
		if strings.HasSuffix(base, ext) && len(ext) > len(best) {
			best, name = ext, n
		}
	}
	if best == "" {
		return "", nil, false
	}
	e, ok = r.extractors[name]
	return name, e, ok
}

// Names returns the registered extractor names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns the extensions mapped to name, sorted.
func (r *Registry) Extensions(name string) []string {
	var exts []string
	for ext, n := range r.extensions {
		if n == name {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
