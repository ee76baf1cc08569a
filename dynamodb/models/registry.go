// Package models binds declarative model definitions to a DynamoDB control
// plane.
//
// Models are defined on a Registry, which compiles them up front so that
// schema mistakes surface at definition time rather than when a table is
// first created:
//
//	reg := models.NewRegistry(client)
//	player, err := reg.Define(schema.Model{
//	    Name:     "player",
//	    HashKey:  "name",
//	    RangeKey: "age",
//	    Schema:   map[string]schema.AttrType{"name": schema.String, "age": schema.Number},
//	})
//	desc, err := player.CreateTable(ctx, models.WithWait(2*time.Minute))
//
// A Registry is an explicit object: tests create one per run and call Reset
// between cases instead of sharing process-wide state.
package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/acksell/ddbmodel/dynamodb/ddbiface"
	"github.com/acksell/ddbmodel/dynamodb/provision"
	"github.com/acksell/ddbmodel/dynamodb/schema"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

// ErrUnnamedModel is returned when a model is defined without a name.
var ErrUnnamedModel = errors.New("models: model name is required")

// ErrDuplicateModel is returned by Load when a file defines a model name twice.
var ErrDuplicateModel = errors.New("models: model defined more than once")

// Registry holds the models defined against one control plane.
// It is safe for concurrent use.
type Registry struct {
	client    ddbiface.ControlPlane
	compiler  *provision.Compiler
	logger    *slog.Logger
	tableName func(string) string

	mu     sync.RWMutex
	models map[string]*Model
	order  []string // preserves definition order
}

type RegistryOption func(*Registry)

// WithCompiler replaces the default compiler, for example to change how
// unnamed indexes are named.
func WithCompiler(c *provision.Compiler) RegistryOption {
	return func(r *Registry) { r.compiler = c }
}

func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithTableName rewrites every compiled table name, e.g. to add an
// environment prefix or a per-run suffix.
func WithTableName(fn func(table string) string) RegistryOption {
	return func(r *Registry) { r.tableName = fn }
}

func NewRegistry(client ddbiface.ControlPlane, opts ...RegistryOption) *Registry {
	r := &Registry{
		client: client,
		models: make(map[string]*Model),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.compiler == nil {
		r.compiler = provision.NewCompiler()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Client returns the control plane models are provisioned against.
func (r *Registry) Client() ddbiface.ControlPlane {
	return r.client
}

// Define compiles m and registers it under its name. Defining a name again
// replaces the earlier model but keeps its position.
func (r *Registry) Define(m schema.Model) (*Model, error) {
	if m.Name == "" {
		return nil, ErrUnnamedModel
	}
	def, err := r.compiler.Compile(m)
	if err != nil {
		return nil, err
	}
	if r.tableName != nil {
		def.Name = r.tableName(def.Name)
	}

	model := &Model{
		schema:     m,
		definition: def,
		client:     r.client,
		logger:     r.logger.With("model", m.Name, "table", def.Name),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.Name]; !exists {
		r.order = append(r.order, m.Name)
	}
	r.models[m.Name] = model
	return model, nil
}

// Load defines every model of a schema file. Nothing is registered if any
// model fails to compile.
func (r *Registry) Load(f schema.File) error {
	compiled := NewRegistry(r.client, WithCompiler(r.compiler), WithLogger(r.logger), WithTableName(r.tableName))
	for _, m := range f.Models {
		if _, ok := compiled.models[m.Name]; ok {
			return fmt.Errorf("define %s: %w", m.Name, ErrDuplicateModel)
		}
		if _, err := compiled.Define(m); err != nil {
			return fmt.Errorf("define %s: %w", m.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range compiled.order {
		if _, exists := r.models[name]; !exists {
			r.order = append(r.order, name)
		}
		r.models[name] = compiled.models[name]
	}
	return nil
}

// Get looks up a model by name.
func (r *Registry) Get(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns all models in definition order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Reset removes every model from the registry. Tables are not touched.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = make(map[string]*Model)
	r.order = nil
}

// CreateTables creates the table of every model whose table does not exist
// yet, in definition order. Existing tables are described instead. It stops
// at the first failure and returns the descriptions gathered so far.
func (r *Registry) CreateTables(ctx context.Context, opts ...TableOption) (map[string]table.Description, error) {
	out := make(map[string]table.Description)
	for _, m := range r.Models() {
		desc, err := m.DescribeTable(ctx)
		switch {
		case err == nil:
			m.logger.Debug("table already exists")
		case IsTableNotFound(err):
			desc, err = m.CreateTable(ctx, opts...)
			if err != nil {
				return out, err
			}
		default:
			return out, err
		}
		out[m.Name()] = desc
	}
	return out, nil
}
