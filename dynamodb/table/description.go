package table

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Description is a table description as reported by the store, with every
// count and status field present. Field names follow the store's API so the
// JSON encoding matches DescribeTable output.
type Description struct {
	TableName              string                   `json:"TableName"`
	TableStatus            types.TableStatus        `json:"TableStatus"`
	KeySchema              []KeySchemaElement       `json:"KeySchema"`
	AttributeDefinitions   []AttributeDefinition    `json:"AttributeDefinitions"`
	LocalSecondaryIndexes  []LocalIndexDescription  `json:"LocalSecondaryIndexes,omitempty"`
	GlobalSecondaryIndexes []GlobalIndexDescription `json:"GlobalSecondaryIndexes,omitempty"`
	ProvisionedThroughput  Throughput               `json:"ProvisionedThroughput"`
	BillingMode            types.BillingMode        `json:"BillingMode,omitempty"`
	ItemCount              int64                    `json:"ItemCount"`
	TableSizeBytes         int64                    `json:"TableSizeBytes"`
}

type LocalIndexDescription struct {
	IndexName      string             `json:"IndexName"`
	KeySchema      []KeySchemaElement `json:"KeySchema"`
	Projection     Projection         `json:"Projection"`
	IndexSizeBytes int64              `json:"IndexSizeBytes"`
	ItemCount      int64              `json:"ItemCount"`
}

type GlobalIndexDescription struct {
	IndexName             string             `json:"IndexName"`
	KeySchema             []KeySchemaElement `json:"KeySchema"`
	Projection            Projection         `json:"Projection"`
	ProvisionedThroughput Throughput         `json:"ProvisionedThroughput"`
	IndexSizeBytes        int64              `json:"IndexSizeBytes"`
	IndexStatus           types.IndexStatus  `json:"IndexStatus"`
	ItemCount             int64              `json:"ItemCount"`
}

// LocalIndex finds a local index by name. The store does not guarantee index order.
func (d Description) LocalIndex(name string) (LocalIndexDescription, bool) {
	for _, idx := range d.LocalSecondaryIndexes {
		if idx.IndexName == name {
			return idx, true
		}
	}
	return LocalIndexDescription{}, false
}

// GlobalIndex finds a global index by name. The store does not guarantee index order.
func (d Description) GlobalIndex(name string) (GlobalIndexDescription, bool) {
	for _, idx := range d.GlobalSecondaryIndexes {
		if idx.IndexName == name {
			return idx, true
		}
	}
	return GlobalIndexDescription{}, false
}

func KeySchemaFromDDB(ks []types.KeySchemaElement) []KeySchemaElement {
	if ks == nil {
		return nil
	}
	out := make([]KeySchemaElement, len(ks))
	for i, k := range ks {
		out[i] = KeySchemaElement{AttributeName: aws.ToString(k.AttributeName), KeyType: KeyType(k.KeyType)}
	}
	return out
}

func AttributeDefinitionsFromDDB(defs []types.AttributeDefinition) []AttributeDefinition {
	if defs == nil {
		return nil
	}
	out := make([]AttributeDefinition, len(defs))
	for i, d := range defs {
		out[i] = AttributeDefinition{AttributeName: aws.ToString(d.AttributeName), AttributeType: KeyKind(d.AttributeType)}
	}
	return out
}

// DDB converts the description back into the SDK shape, the inverse of
// normalizing a described table.
func (d Description) DDB() *types.TableDescription {
	out := &types.TableDescription{
		TableName:             aws.String(d.TableName),
		TableStatus:           d.TableStatus,
		KeySchema:             keySchemaToDDB(d.KeySchema),
		AttributeDefinitions:  attributeDefinitionsToDDB(d.AttributeDefinitions),
		ProvisionedThroughput: d.ProvisionedThroughput.ddbDescription(),
		ItemCount:             aws.Int64(d.ItemCount),
		TableSizeBytes:        aws.Int64(d.TableSizeBytes),
	}
	if d.BillingMode != "" {
		out.BillingModeSummary = &types.BillingModeSummary{BillingMode: d.BillingMode}
	}
	for _, lsi := range d.LocalSecondaryIndexes {
		out.LocalSecondaryIndexes = append(out.LocalSecondaryIndexes, types.LocalSecondaryIndexDescription{
			IndexName:      aws.String(lsi.IndexName),
			KeySchema:      keySchemaToDDB(lsi.KeySchema),
			Projection:     lsi.Projection.ddb(),
			IndexSizeBytes: aws.Int64(lsi.IndexSizeBytes),
			ItemCount:      aws.Int64(lsi.ItemCount),
		})
	}
	for _, gsi := range d.GlobalSecondaryIndexes {
		out.GlobalSecondaryIndexes = append(out.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
			IndexName:             aws.String(gsi.IndexName),
			KeySchema:             keySchemaToDDB(gsi.KeySchema),
			Projection:            gsi.Projection.ddb(),
			ProvisionedThroughput: gsi.ProvisionedThroughput.ddbDescription(),
			IndexSizeBytes:        aws.Int64(gsi.IndexSizeBytes),
			IndexStatus:           gsi.IndexStatus,
			ItemCount:             aws.Int64(gsi.ItemCount),
		})
	}
	return out
}

func keySchemaToDDB(ks []KeySchemaElement) []types.KeySchemaElement {
	if ks == nil {
		return nil
	}
	out := make([]types.KeySchemaElement, len(ks))
	for i, k := range ks {
		out[i] = types.KeySchemaElement{AttributeName: aws.String(k.AttributeName), KeyType: types.KeyType(k.KeyType)}
	}
	return out
}

func attributeDefinitionsToDDB(defs []AttributeDefinition) []types.AttributeDefinition {
	if defs == nil {
		return nil
	}
	out := make([]types.AttributeDefinition, len(defs))
	for i, d := range defs {
		out[i] = types.AttributeDefinition{AttributeName: aws.String(d.AttributeName), AttributeType: types.ScalarAttributeType(d.AttributeType)}
	}
	return out
}
