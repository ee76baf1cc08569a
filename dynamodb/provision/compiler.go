// Package provision compiles declarative model definitions into the physical
// table definitions sent to DynamoDB, and normalizes the table descriptions
// DynamoDB sends back.
//
// Compilation is pure: it never performs I/O and returns the same definition
// for the same model. All validation happens here, so a model that compiles
// produces a request the store's structural rules accept.
package provision

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/acksell/ddbmodel/dynamodb/schema"
	"github.com/acksell/ddbmodel/dynamodb/table"
	"golang.org/x/exp/constraints"
)

// IndexNamer derives a name for an index declared without one. For local
// indexes hashKey is the table's hash key.
type IndexNamer func(typ schema.IndexType, hashKey, rangeKey string) string

// TableNamer derives a table name for a model declared without one.
type TableNamer func(model string) string

// DefaultIndexName joins the key attribute names, each with its first letter
// upper-cased, and appends "Index". Global index names are prefixed with "Global".
// A local index on name+nick becomes NameNickIndex; a global index on
// age+wins becomes GlobalAgeWinsIndex.
func DefaultIndexName(typ schema.IndexType, hashKey, rangeKey string) string {
	var b strings.Builder
	if typ == schema.GlobalIndex {
		b.WriteString("Global")
	}
	b.WriteString(upperFirst(hashKey))
	b.WriteString(upperFirst(rangeKey))
	b.WriteString("Index")
	return b.String()
}

// DefaultTableName lower-cases the model name and pluralizes it with a trailing "s".
func DefaultTableName(model string) string {
	name := strings.ToLower(model)
	if name == "" || strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Compiler turns model definitions into table definitions.
// The zero value uses the default namers. A Compiler is safe for concurrent use.
type Compiler struct {
	IndexNamer IndexNamer
	TableNamer TableNamer
}

type CompilerOption func(*Compiler)

func WithIndexNamer(n IndexNamer) CompilerOption {
	return func(c *Compiler) { c.IndexNamer = n }
}

func WithTableNamer(n TableNamer) CompilerOption {
	return func(c *Compiler) { c.TableNamer = n }
}

func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCompiler = &Compiler{}

// Compile compiles m with the default namers.
func Compile(m schema.Model) (table.TableDefinition, error) {
	return defaultCompiler.Compile(m)
}

// Compile builds the provisioning request for m.
//
// Attribute definitions list every attribute used by the table key or an
// index key exactly once: the hash key, the range key, then the attributes
// each index introduces, in declaration order.
func (c *Compiler) Compile(m schema.Model) (table.TableDefinition, error) {
	b := &builder{model: m, seen: make(map[string]bool)}

	if err := b.checkAttributeTypes(); err != nil {
		return table.TableDefinition{}, err
	}

	def := table.TableDefinition{
		Name:          m.TableName,
		TimeToLiveKey: m.TimeToLive,
	}
	if def.Name == "" {
		def.Name = c.tableNamer()(m.Name)
	}
	if def.Name == "" {
		return table.TableDefinition{}, b.errorf("", "", ErrMissingName, "")
	}

	if m.HashKey == "" {
		return table.TableDefinition{}, b.errorf("", "", ErrMissingHashKey, "")
	}
	hash, err := b.keyDef("", m.HashKey)
	if err != nil {
		return table.TableDefinition{}, err
	}
	def.KeyDefinitions.PartitionKey = hash
	if m.RangeKey != "" {
		if m.RangeKey == m.HashKey {
			return table.TableDefinition{}, b.errorf("", m.RangeKey, ErrDuplicateKeyAttribute, "")
		}
		rng, err := b.keyDef("", m.RangeKey)
		if err != nil {
			return table.TableDefinition{}, err
		}
		def.KeyDefinitions.SortKey = rng
	}

	if m.TimeToLive != "" {
		if _, ok := m.Schema[m.TimeToLive]; !ok {
			return table.TableDefinition{}, b.errorf("", m.TimeToLive, ErrUnknownAttribute, "time to live attribute")
		}
	}

	def.Throughput, err = b.throughput("", m.ReadCapacity, m.WriteCapacity)
	if err != nil {
		return table.TableDefinition{}, err
	}

	if err := b.checkIndexCounts(); err != nil {
		return table.TableDefinition{}, err
	}

	names := make(map[string]bool, len(m.Indexes))
	for i, idx := range m.Indexes {
		label := idx.Name
		if label == "" {
			label = fmt.Sprintf("indexes[%d]", i)
		}
		switch idx.Type {
		case schema.LocalIndex:
			lsi, err := c.localIndex(b, def.KeyDefinitions, label, idx)
			if err != nil {
				return table.TableDefinition{}, err
			}
			if names[lsi.Name] {
				return table.TableDefinition{}, b.errorf(lsi.Name, "", ErrDuplicateIndexName, "")
			}
			names[lsi.Name] = true
			def.LSIs = append(def.LSIs, lsi)
		case schema.GlobalIndex:
			gsi, err := c.globalIndex(b, label, idx)
			if err != nil {
				return table.TableDefinition{}, err
			}
			if names[gsi.Name] {
				return table.TableDefinition{}, b.errorf(gsi.Name, "", ErrDuplicateIndexName, "")
			}
			names[gsi.Name] = true
			def.GSIs = append(def.GSIs, gsi)
		default:
			return table.TableDefinition{}, b.errorf(label, "", ErrInvalidIndexType, fmt.Sprintf("%q", idx.Type))
		}
	}

	def.AttributeDefinitions = b.attrs
	return def, nil
}

func (c *Compiler) localIndex(b *builder, tableKey table.PrimaryKeyDefinition, label string, idx schema.Index) (table.LSIDefinition, error) {
	if !tableKey.HasSortKey() {
		return table.LSIDefinition{}, b.errorf(label, "", ErrLocalIndexWithoutRange, "")
	}
	if idx.RangeKey == "" {
		return table.LSIDefinition{}, b.errorf(label, "", ErrMissingRangeKey, "")
	}
	if idx.ReadCapacity != 0 || idx.WriteCapacity != 0 {
		return table.LSIDefinition{}, b.errorf(label, "", ErrLocalIndexThroughput, "")
	}
	if idx.RangeKey == tableKey.PartitionKey.Name {
		return table.LSIDefinition{}, b.errorf(label, idx.RangeKey, ErrDuplicateKeyAttribute, "range key is the table hash key")
	}
	rng, err := b.keyDef(label, idx.RangeKey)
	if err != nil {
		return table.LSIDefinition{}, err
	}
	proj, err := b.projection(label, idx.Projection)
	if err != nil {
		return table.LSIDefinition{}, err
	}
	name := idx.Name
	if name == "" {
		name = c.indexNamer()(schema.LocalIndex, tableKey.PartitionKey.Name, idx.RangeKey)
	}
	return table.LSIDefinition{
		Name: name,
		KeyDefinitions: table.PrimaryKeyDefinition{
			PartitionKey: tableKey.PartitionKey,
			SortKey:      rng,
		},
		Projection: proj,
	}, nil
}

func (c *Compiler) globalIndex(b *builder, label string, idx schema.Index) (table.GSIDefinition, error) {
	if idx.HashKey == "" {
		return table.GSIDefinition{}, b.errorf(label, "", ErrMissingHashKey, "")
	}
	hash, err := b.keyDef(label, idx.HashKey)
	if err != nil {
		return table.GSIDefinition{}, err
	}
	key := table.PrimaryKeyDefinition{PartitionKey: hash}
	if idx.RangeKey != "" {
		if idx.RangeKey == idx.HashKey {
			return table.GSIDefinition{}, b.errorf(label, idx.RangeKey, ErrDuplicateKeyAttribute, "")
		}
		key.SortKey, err = b.keyDef(label, idx.RangeKey)
		if err != nil {
			return table.GSIDefinition{}, err
		}
	}
	proj, err := b.projection(label, idx.Projection)
	if err != nil {
		return table.GSIDefinition{}, err
	}
	tp, err := b.throughput(label, idx.ReadCapacity, idx.WriteCapacity)
	if err != nil {
		return table.GSIDefinition{}, err
	}
	name := idx.Name
	if name == "" {
		name = c.indexNamer()(schema.GlobalIndex, idx.HashKey, idx.RangeKey)
	}
	return table.GSIDefinition{
		Name:           name,
		KeyDefinitions: key,
		Projection:     proj,
		Throughput:     tp,
	}, nil
}

func (c *Compiler) indexNamer() IndexNamer {
	if c.IndexNamer != nil {
		return c.IndexNamer
	}
	return DefaultIndexName
}

func (c *Compiler) tableNamer() TableNamer {
	if c.TableNamer != nil {
		return c.TableNamer
	}
	return DefaultTableName
}

// builder accumulates attribute definitions in first-seen order.
type builder struct {
	model schema.Model
	seen  map[string]bool
	attrs []table.KeyDef
}

func (b *builder) errorf(index, attr string, sentinel error, msg string) error {
	return &SchemaError{Model: b.model.Name, Index: index, Attribute: attr, Err: sentinel, Msg: msg}
}

// checkAttributeTypes walks the schema in name order so the reported error is stable.
func (b *builder) checkAttributeTypes() error {
	for _, name := range slices.Sorted(maps.Keys(b.model.Schema)) {
		if typ := b.model.Schema[name]; !typ.Valid() {
			return b.errorf("", name, ErrInvalidAttributeType, fmt.Sprintf("%q", typ))
		}
	}
	return nil
}

func (b *builder) checkIndexCounts() error {
	var local, global int
	for _, idx := range b.model.Indexes {
		switch idx.Type {
		case schema.LocalIndex:
			local++
		case schema.GlobalIndex:
			global++
		}
	}
	if local > table.MaxLocalIndexes {
		return b.errorf("", "", ErrTooManyIndexes, fmt.Sprintf("%d local indexes, at most %d", local, table.MaxLocalIndexes))
	}
	if global > table.MaxGlobalIndexes {
		return b.errorf("", "", ErrTooManyIndexes, fmt.Sprintf("%d global indexes, at most %d", global, table.MaxGlobalIndexes))
	}
	return nil
}

func (b *builder) keyDef(index, name string) (table.KeyDef, error) {
	typ, ok := b.model.Attribute(name)
	if !ok {
		return table.KeyDef{}, b.errorf(index, name, ErrUnknownAttribute, "")
	}
	kind, ok := typ.KeyKind()
	if !ok {
		return table.KeyDef{}, b.errorf(index, name, ErrInvalidKeyType, string(typ))
	}
	def := table.KeyDef{Name: name, Kind: kind}
	if !b.seen[name] {
		b.seen[name] = true
		b.attrs = append(b.attrs, def)
	}
	return def, nil
}

func (b *builder) projection(index string, p *table.Projection) (table.Projection, error) {
	if p == nil {
		return table.ProjectionAll(), nil
	}
	if err := p.Validate(); err != nil {
		return table.Projection{}, b.errorf(index, "", ErrInvalidProjection, err.Error())
	}
	proj := table.Projection{Kind: p.Kind}
	if len(p.NonKeyAttributes) > 0 {
		proj.NonKeyAttributes = slices.Clone(p.NonKeyAttributes)
	}
	return proj, nil
}

func (b *builder) throughput(index string, read, write int64) (table.Throughput, error) {
	if read < 0 || write < 0 {
		return table.Throughput{}, b.errorf(index, "", ErrInvalidThroughput, fmt.Sprintf("read=%d write=%d", read, write))
	}
	return table.Throughput{
		ReadCapacityUnits:  orDefault(read, table.DefaultCapacityUnits),
		WriteCapacityUnits: orDefault(write, table.DefaultCapacityUnits),
	}, nil
}

func orDefault[T constraints.Integer](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}
