package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Registry struct {
	byName map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Descriptor{}}
}

// Builtin returns a registry holding the sites supported out of the box.
func Builtin() *Registry {
	r := NewRegistry()
	for _, d := range builtins() {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds d, replacing any descriptor with the same name.
func (r *Registry) Register(d Descriptor) error {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	if err := d.Validate(); err != nil {
		return err
	}
	r.byName[d.Name] = d
	return nil
}

func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return d, nil
}

func (r *Registry) Match(novelURL string) (Descriptor, error) {
	for _, d := range r.List() {
		if d.Supports(novelURL) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: no source handles %q", ErrUnsupportedURL, novelURL)
}

func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) LoadFile(path string) (Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, err
	}

	var d Descriptor
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := r.Register(d); err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadDir registers every *.yaml / *.yml file in dir. A missing dir is
// not an error.
func (r *Registry) LoadDir(dir string) ([]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var loaded []Descriptor
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		d, err := r.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, err
		}
		loaded = append(loaded, d)
	}
	return loaded, nil
}

func MarshalYAML(d Descriptor) ([]byte, error) {
	return yaml.Marshal(d)
}
