package table

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB limits on the number of secondary indexes per table.
const (
	MaxLocalIndexes  = 5
	MaxGlobalIndexes = 20
)

// LSIDefinition represents a Local Secondary Index definition.
// Its partition key is always the table's partition key.
type LSIDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
	Projection     Projection
}

// GSIDefinition represents a Global Secondary Index definition.
type GSIDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
	Projection     Projection
	Throughput     Throughput
}

func (l LSIDefinition) ddb() types.LocalSecondaryIndex {
	return types.LocalSecondaryIndex{
		IndexName:  aws.String(l.Name),
		KeySchema:  l.KeyDefinitions.ddbKeySchema(),
		Projection: l.Projection.ddb(),
	}
}

// ddb omits the provisioned throughput for on-demand tables, which reject it.
func (g GSIDefinition) ddb(billing types.BillingMode) types.GlobalSecondaryIndex {
	gsi := types.GlobalSecondaryIndex{
		IndexName:  aws.String(g.Name),
		KeySchema:  g.KeyDefinitions.ddbKeySchema(),
		Projection: g.Projection.ddb(),
	}
	if billing != types.BillingModePayPerRequest {
		gsi.ProvisionedThroughput = g.Throughput.ddb()
	}
	return gsi
}

// CreateAction builds the UpdateTable action that adds this index to an existing table.
func (g GSIDefinition) CreateAction(billing types.BillingMode) *types.CreateGlobalSecondaryIndexAction {
	gsi := g.ddb(billing)
	return &types.CreateGlobalSecondaryIndexAction{
		IndexName:             gsi.IndexName,
		KeySchema:             gsi.KeySchema,
		Projection:            gsi.Projection,
		ProvisionedThroughput: gsi.ProvisionedThroughput,
	}
}
