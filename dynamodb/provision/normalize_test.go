package provision

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

func TestNormalizeNil(t *testing.T) {
	assert.Equal(t, table.Description{}, Normalize(nil))
}

func TestNormalizeFillsDefaults(t *testing.T) {
	raw := &types.TableDescription{
		TableName:   aws.String("players"),
		TableStatus: types.TableStatusActive,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("name"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("age"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("name"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("age"), AttributeType: types.ScalarAttributeTypeN},
			{AttributeName: aws.String("nick"), AttributeType: types.ScalarAttributeTypeS},
		},
		LocalSecondaryIndexes: []types.LocalSecondaryIndexDescription{
			{
				IndexName: aws.String("TimeIndex"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("name"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("time"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String("NickIndex"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("name"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("nick"), KeyType: types.KeyTypeRange},
				},
				Projection:     &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
				IndexSizeBytes: aws.Int64(12),
				ItemCount:      aws.Int64(3),
			},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndexDescription{
			{
				IndexName: aws.String("GlobalNickIndex"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("nick"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{
					ProjectionType:   types.ProjectionTypeInclude,
					NonKeyAttributes: []string{"wins"},
				},
				ProvisionedThroughput: &types.ProvisionedThroughputDescription{
					ReadCapacityUnits:  aws.Int64(10),
					WriteCapacityUnits: aws.Int64(5),
				},
			},
		},
	}

	desc := Normalize(raw)
	assert.Equal(t, "players", desc.TableName)
	assert.Equal(t, []table.KeySchemaElement{
		{AttributeName: "name", KeyType: table.KeyTypeHash},
		{AttributeName: "age", KeyType: table.KeyTypeRange},
	}, desc.KeySchema)
	assert.Equal(t, []table.AttributeDefinition{
		{AttributeName: "name", AttributeType: table.KeyKindS},
		{AttributeName: "age", AttributeType: table.KeyKindN},
		{AttributeName: "nick", AttributeType: table.KeyKindS},
	}, desc.AttributeDefinitions)

	// Store order is preserved.
	require.Len(t, desc.LocalSecondaryIndexes, 2)
	assert.Equal(t, "TimeIndex", desc.LocalSecondaryIndexes[0].IndexName)

	tm, ok := desc.LocalIndex("TimeIndex")
	require.True(t, ok)
	assert.Equal(t, table.LocalIndexDescription{
		IndexName: "TimeIndex",
		KeySchema: []table.KeySchemaElement{
			{AttributeName: "name", KeyType: table.KeyTypeHash},
			{AttributeName: "time", KeyType: table.KeyTypeRange},
		},
		Projection:     table.Projection{Kind: table.ProjectAll},
		IndexSizeBytes: 0,
		ItemCount:      0,
	}, tm)

	nick, ok := desc.LocalIndex("NickIndex")
	require.True(t, ok)
	assert.Equal(t, int64(12), nick.IndexSizeBytes)
	assert.Equal(t, int64(3), nick.ItemCount)

	require.Len(t, desc.GlobalSecondaryIndexes, 1)
	assert.Equal(t, table.GlobalIndexDescription{
		IndexName: "GlobalNickIndex",
		KeySchema: []table.KeySchemaElement{{AttributeName: "nick", KeyType: table.KeyTypeHash}},
		Projection: table.Projection{
			Kind:             table.ProjectSubset,
			NonKeyAttributes: []string{"wins"},
		},
		ProvisionedThroughput: table.Throughput{ReadCapacityUnits: 10, WriteCapacityUnits: 5},
		IndexSizeBytes:        0,
		IndexStatus:           types.IndexStatusActive,
		ItemCount:             0,
	}, desc.GlobalSecondaryIndexes[0])
}

func TestNormalizeKeepsReportedStatus(t *testing.T) {
	desc := Normalize(&types.TableDescription{
		BillingModeSummary: &types.BillingModeSummary{BillingMode: types.BillingModePayPerRequest},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndexDescription{
			{IndexName: aws.String("G"), IndexStatus: types.IndexStatusCreating},
		},
	})
	assert.Equal(t, types.BillingModePayPerRequest, desc.BillingMode)
	g, ok := desc.GlobalIndex("G")
	require.True(t, ok)
	assert.Equal(t, types.IndexStatusCreating, g.IndexStatus)
	assert.Equal(t, table.Throughput{}, g.ProvisionedThroughput)
}
