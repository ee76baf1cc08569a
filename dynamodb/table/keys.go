package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef
	SortKey      KeyDef // zero value means the key has no sort key
}

type KeyDef struct {
	Name string
	Kind KeyKind
}

// KeyKind is the primitive attribute type a key attribute is declared with.
type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

// Valid reports whether k is one of the kinds DynamoDB accepts for key attributes.
func (k KeyKind) Valid() bool {
	switch k {
	case KeyKindS, KeyKindN, KeyKindB:
		return true
	}
	return false
}

// KeyType is the role an attribute plays in a key schema.
type KeyType string

const (
	KeyTypeHash  KeyType = "HASH"
	KeyTypeRange KeyType = "RANGE"
)

// KeySchemaElement is one entry of a key schema, in the store's field naming.
type KeySchemaElement struct {
	AttributeName string  `json:"AttributeName" yaml:"attributeName"`
	KeyType       KeyType `json:"KeyType" yaml:"keyType"`
}

// AttributeDefinition declares the primitive type of a key attribute, in the store's field naming.
type AttributeDefinition struct {
	AttributeName string  `json:"AttributeName" yaml:"attributeName"`
	AttributeType KeyKind `json:"AttributeType" yaml:"attributeType"`
}

func (k PrimaryKeyDefinition) HasSortKey() bool {
	return k.SortKey.Name != ""
}

// KeySchema returns the ordered key schema, hash first.
func (k PrimaryKeyDefinition) KeySchema() []KeySchemaElement {
	ks := []KeySchemaElement{{AttributeName: k.PartitionKey.Name, KeyType: KeyTypeHash}}
	if k.HasSortKey() {
		ks = append(ks, KeySchemaElement{AttributeName: k.SortKey.Name, KeyType: KeyTypeRange})
	}
	return ks
}

// Validate checks that the key names a partition key and only uses key-eligible kinds.
func (k PrimaryKeyDefinition) Validate() error {
	if k.PartitionKey.Name == "" {
		return fmt.Errorf("partition key name is required")
	}
	if !k.PartitionKey.Kind.Valid() {
		return fmt.Errorf("partition key %q has invalid kind %q", k.PartitionKey.Name, k.PartitionKey.Kind)
	}
	if k.HasSortKey() && !k.SortKey.Kind.Valid() {
		return fmt.Errorf("sort key %q has invalid kind %q", k.SortKey.Name, k.SortKey.Kind)
	}
	return nil
}

func (k PrimaryKeyDefinition) ddbKeySchema() []types.KeySchemaElement {
	ks := []types.KeySchemaElement{{
		AttributeName: aws.String(k.PartitionKey.Name),
		KeyType:       types.KeyTypeHash,
	}}
	if k.HasSortKey() {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(k.SortKey.Name),
			KeyType:       types.KeyTypeRange,
		})
	}
	return ks
}

func (d KeyDef) ddbAttributeDefinition() types.AttributeDefinition {
	return types.AttributeDefinition{
		AttributeName: aws.String(d.Name),
		AttributeType: types.ScalarAttributeType(d.Kind),
	}
}
