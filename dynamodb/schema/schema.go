// Package schema defines declarative model definitions: the key attributes,
// the attribute types and the secondary indexes of a model. These types are
// what users write in schema files and pass to models.Registry.Define; the
// provision package compiles them into table definitions.
package schema

import (
	"github.com/acksell/ddbmodel/dynamodb/table"
)

// AttrType is the semantic type of a model attribute.
type AttrType string

const (
	String    AttrType = "string"
	Number    AttrType = "number"
	Date      AttrType = "date"
	Boolean   AttrType = "boolean"
	Binary    AttrType = "binary"
	UUID      AttrType = "uuid"
	TimeUUID  AttrType = "timeUUID"
	StringSet AttrType = "stringSet"
	NumberSet AttrType = "numberSet"
	BinarySet AttrType = "binarySet"
	Object    AttrType = "object"
	Array     AttrType = "array"
)

// Valid reports whether t is a recognized attribute type.
func (t AttrType) Valid() bool {
	switch t {
	case String, Number, Date, Boolean, Binary, UUID, TimeUUID,
		StringSet, NumberSet, BinarySet, Object, Array:
		return true
	}
	return false
}

// KeyKind reduces t to the primitive kind it is stored as when used in a key.
// The second return is false for types that cannot be key attributes.
func (t AttrType) KeyKind() (table.KeyKind, bool) {
	switch t {
	case String, Date, UUID, TimeUUID:
		return table.KeyKindS, true
	case Number:
		return table.KeyKindN, true
	case Binary:
		return table.KeyKindB, true
	}
	return "", false
}

type IndexType string

const (
	LocalIndex  IndexType = "local"
	GlobalIndex IndexType = "global"
)

// Index declares a secondary index of a model.
type Index struct {
	Type IndexType `yaml:"type" json:"type"`
	// Name is derived from the key attributes when empty.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// HashKey is ignored for local indexes, which always share the table's hash key.
	HashKey    string            `yaml:"hashKey,omitempty" json:"hashKey,omitempty"`
	RangeKey   string            `yaml:"rangeKey,omitempty" json:"rangeKey,omitempty"`
	Projection *table.Projection `yaml:"projection,omitempty" json:"projection,omitempty"`
	// Capacity units apply to global indexes only.
	ReadCapacity  int64 `yaml:"readCapacity,omitempty" json:"readCapacity,omitempty"`
	WriteCapacity int64 `yaml:"writeCapacity,omitempty" json:"writeCapacity,omitempty"`
}

// Model is a declarative model definition.
type Model struct {
	Name      string              `yaml:"name" json:"name"`
	TableName string              `yaml:"tableName,omitempty" json:"tableName,omitempty"`
	HashKey   string              `yaml:"hashKey" json:"hashKey"`
	RangeKey  string              `yaml:"rangeKey,omitempty" json:"rangeKey,omitempty"`
	Schema    map[string]AttrType `yaml:"schema" json:"schema"`
	Indexes   []Index             `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	// TimeToLive names the attribute holding item expiry times.
	TimeToLive    string `yaml:"timeToLive,omitempty" json:"timeToLive,omitempty"`
	ReadCapacity  int64  `yaml:"readCapacity,omitempty" json:"readCapacity,omitempty"`
	WriteCapacity int64  `yaml:"writeCapacity,omitempty" json:"writeCapacity,omitempty"`
}

// Attribute returns the declared type of an attribute.
func (m Model) Attribute(name string) (AttrType, bool) {
	t, ok := m.Schema[name]
	return t, ok
}

// File is the root of a schema file.
type File struct {
	Models []Model `yaml:"models" json:"models"`
}

// Model looks up a model by name.
func (f File) Model(name string) (Model, bool) {
	for _, m := range f.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}
