package table

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableDefinition is the physical shape of a table as it is provisioned:
// the key schema, the types of every attribute any key references, and the
// secondary indexes.
type TableDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
	// AttributeDefinitions holds each key attribute of the table and its
	// indexes exactly once, in the order the attributes were first referenced.
	AttributeDefinitions []KeyDef
	LSIs                 []LSIDefinition
	GSIs                 []GSIDefinition

	// Throughput is ignored when BillingMode is PAY_PER_REQUEST.
	Throughput  Throughput
	BillingMode types.BillingMode
	// StreamViewType enables a stream on the table when non-empty.
	StreamViewType types.StreamViewType
	TimeToLiveKey  string
}

// GSI looks up a global secondary index by name.
func (t TableDefinition) GSI(name string) (GSIDefinition, bool) {
	for _, gsi := range t.GSIs {
		if gsi.Name == name {
			return gsi, true
		}
	}
	return GSIDefinition{}, false
}

// LSI looks up a local secondary index by name.
func (t TableDefinition) LSI(name string) (LSIDefinition, bool) {
	for _, lsi := range t.LSIs {
		if lsi.Name == name {
			return lsi, true
		}
	}
	return LSIDefinition{}, false
}

// Attribute returns the definition of a key attribute.
func (t TableDefinition) Attribute(name string) (KeyDef, bool) {
	for _, def := range t.AttributeDefinitions {
		if def.Name == name {
			return def, true
		}
	}
	return KeyDef{}, false
}

// AttributeDefinitionList returns the attribute definitions in the store's field naming.
func (t TableDefinition) AttributeDefinitionList() []AttributeDefinition {
	defs := make([]AttributeDefinition, len(t.AttributeDefinitions))
	for i, def := range t.AttributeDefinitions {
		defs[i] = AttributeDefinition{AttributeName: def.Name, AttributeType: def.Kind}
	}
	return defs
}

// CreateTableInput converts the definition into the control-plane request.
// Index lists are left nil when empty since the API rejects empty lists.
func (t TableDefinition) CreateTableInput() *dynamodb.CreateTableInput {
	billing := t.BillingMode
	if billing == "" {
		billing = types.BillingModeProvisioned
	}
	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(t.Name),
		KeySchema:   t.KeyDefinitions.ddbKeySchema(),
		BillingMode: billing,
	}
	input.AttributeDefinitions = make([]types.AttributeDefinition, len(t.AttributeDefinitions))
	for i, def := range t.AttributeDefinitions {
		input.AttributeDefinitions[i] = def.ddbAttributeDefinition()
	}
	if billing != types.BillingModePayPerRequest {
		input.ProvisionedThroughput = t.Throughput.ddb()
	}
	for _, lsi := range t.LSIs {
		input.LocalSecondaryIndexes = append(input.LocalSecondaryIndexes, lsi.ddb())
	}
	for _, gsi := range t.GSIs {
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, gsi.ddb(billing))
	}
	if t.StreamViewType != "" {
		input.StreamSpecification = &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: t.StreamViewType,
		}
	}
	return input
}

// DDBAttributeDefinitions returns the SDK attribute definitions for the named attributes.
// Unknown names are skipped.
func (t TableDefinition) DDBAttributeDefinitions(names ...string) []types.AttributeDefinition {
	var defs []types.AttributeDefinition
	for _, name := range names {
		if def, ok := t.Attribute(name); ok {
			defs = append(defs, def.ddbAttributeDefinition())
		}
	}
	return defs
}

// DDBThroughput returns the SDK form of a throughput setting.
func DDBThroughput(t Throughput) *types.ProvisionedThroughput {
	return t.ddb()
}
