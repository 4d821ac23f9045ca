package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile loads descriptors from a YAML file. The file holds either a
// single entity at the top level or a list under "entities".
//
//	type: Post
//	table: posts
//	fields:
//	  - {name: id, type: int}
//	  - {name: title}
//	  - {name: meta, type: json, serialized: true}
//	relations:
//	  - {name: author, kind: belongsTo, type: User}
func LoadFile(path string) ([]*Descriptor, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load schema file %s: %w", path, err)
	}

	var specs []Spec
	if k.Exists("entities") {
		var wrapper struct {
			Entities []Spec `koanf:"entities"`
		}
		if err := k.Unmarshal("", &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode schema file %s: %w", path, err)
		}
		specs = wrapper.Entities
	} else {
		var spec Spec
		if err := k.Unmarshal("", &spec); err != nil {
			return nil, fmt.Errorf("failed to decode schema file %s: %w", path, err)
		}
		specs = []Spec{spec}
	}

	out := make([]*Descriptor, 0, len(specs))
	for _, spec := range specs {
		d, err := New(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// LoadDir loads every *.yaml / *.yml file under dir, recursively.
// The result is sorted by type name; a type declared twice is an error.
func LoadDir(dir string) ([]*Descriptor, error) {
	var all []*Descriptor
	seen := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		descs, err := LoadFile(path)
		if err != nil {
			return err
		}
		for _, d := range descs {
			if prev, dup := seen[d.TypeName()]; dup {
				return fmt.Errorf("entity %s declared in both %s and %s", d.TypeName(), prev, path)
			}
			seen[d.TypeName()] = path
			all = append(all, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].TypeName() < all[j].TypeName() })
	return all, nil
}
