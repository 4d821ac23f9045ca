package record

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/leaprecord/pkg/adapter"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
)

// Registry holds the models of one database. Relations look up their
// related type here. Registration and lookup are safe for concurrent use.
type Registry struct {
	db     adapter.Adapter
	logger *slog.Logger

	mu     sync.RWMutex
	models map[string]*Model
}

// NewRegistry creates a registry whose models persist through db.
// If logger is nil, a discard logger is used.
func NewRegistry(db adapter.Adapter, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		db:     db,
		logger: logger,
		models: make(map[string]*Model),
	}
}

// Adapter returns the database collaborator.
func (r *Registry) Adapter() adapter.Adapter { return r.db }

// Register creates the model for desc.
func (r *Registry) Register(desc *schema.Descriptor, opts ...ModelOption) (*Model, error) {
	if desc == nil {
		return nil, fmt.Errorf("nil descriptor")
	}
	m := newModel(r, desc)
	for _, opt := range opts {
		opt(m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.models[desc.TypeName()]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, desc.TypeName())
	}
	r.models[desc.TypeName()] = m

	r.logger.Debug("registered model",
		slog.String("type", desc.TypeName()),
		slog.String("table", desc.Table()),
		slog.Int("fields", len(desc.FieldNames())),
		slog.Int("relations", len(desc.Relations())))
	return m, nil
}

// RegisterAll registers every descriptor with the same options.
func (r *Registry) RegisterAll(descs []*schema.Descriptor, opts ...ModelOption) ([]*Model, error) {
	out := make([]*Model, 0, len(descs))
	for _, d := range descs {
		m, err := r.Register(d, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Model returns the model registered for typeName.
func (r *Registry) Model(typeName string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[typeName]
	if !ok {
		return nil, &UnknownModelError{Type: typeName, Available: r.namesLocked()}
	}
	return m, nil
}

// Models returns every registered model sorted by type name.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Model, 0, len(r.models))
	for _, name := range r.namesLocked() {
		out = append(out, r.models[name])
	}
	return out
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
