// Package codec encodes the values of serialized fields to their opaque
// stored form and back.
package codec

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Codec converts between the in-memory value of a serialized field and the
// text stored in its column.
type Codec interface {
	// Name returns the registry name of the codec.
	Name() string
	// Encode returns the stored form of v.
	Encode(v any) (string, error)
	// Decode returns the in-memory form of a stored value. Values that are
	// neither string nor []byte are assumed to be decoded already and are
	// returned unchanged.
	Decode(stored any) (any, error)
}

var (
	registry   = make(map[string]Codec)
	registryMu sync.RWMutex
)

func init() {
	Register(JSON{})
	Register(YAML{})
}

// Register makes a codec available by name.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(c.Name())] = c
}

// Get returns the codec registered under name.
func Get(name string) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownCodecError{Name: name, Available: listLocked()}
	}
	return c, nil
}

// List returns the registered codec names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return listLocked()
}

func listLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownCodecError is returned by Get for an unregistered name.
type UnknownCodecError struct {
	Name      string
	Available []string
}

func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("unknown codec: %s (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Default is the codec used when a model does not choose one.
var Default Codec = JSON{}

func storedBytes(stored any) ([]byte, bool) {
	switch s := stored.(type) {
	case string:
		return []byte(s), true
	case []byte:
		return s, true
	default:
		return nil, false
	}
}
