package provision

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

// Normalize converts a raw table description into a table.Description with
// every count and status field present. Index sizes and item counts default
// to 0, global index status defaults to ACTIVE and missing throughput reads
// as zero units. Index lists keep the order the store returned them in.
func Normalize(desc *types.TableDescription) table.Description {
	if desc == nil {
		return table.Description{}
	}
	out := table.Description{
		TableName:             aws.ToString(desc.TableName),
		TableStatus:           desc.TableStatus,
		KeySchema:             table.KeySchemaFromDDB(desc.KeySchema),
		AttributeDefinitions:  table.AttributeDefinitionsFromDDB(desc.AttributeDefinitions),
		ProvisionedThroughput: table.ThroughputFromDDB(desc.ProvisionedThroughput),
		ItemCount:             aws.ToInt64(desc.ItemCount),
		TableSizeBytes:        aws.ToInt64(desc.TableSizeBytes),
	}
	if desc.BillingModeSummary != nil {
		out.BillingMode = desc.BillingModeSummary.BillingMode
	}

	for _, lsi := range desc.LocalSecondaryIndexes {
		out.LocalSecondaryIndexes = append(out.LocalSecondaryIndexes, table.LocalIndexDescription{
			IndexName:      aws.ToString(lsi.IndexName),
			KeySchema:      table.KeySchemaFromDDB(lsi.KeySchema),
			Projection:     table.ProjectionFromDDB(lsi.Projection),
			IndexSizeBytes: aws.ToInt64(lsi.IndexSizeBytes),
			ItemCount:      aws.ToInt64(lsi.ItemCount),
		})
	}

	for _, gsi := range desc.GlobalSecondaryIndexes {
		status := gsi.IndexStatus
		if status == "" {
			status = types.IndexStatusActive
		}
		out.GlobalSecondaryIndexes = append(out.GlobalSecondaryIndexes, table.GlobalIndexDescription{
			IndexName:             aws.ToString(gsi.IndexName),
			KeySchema:             table.KeySchemaFromDDB(gsi.KeySchema),
			Projection:            table.ProjectionFromDDB(gsi.Projection),
			ProvisionedThroughput: table.ThroughputFromDDB(gsi.ProvisionedThroughput),
			IndexSizeBytes:        aws.ToInt64(gsi.IndexSizeBytes),
			IndexStatus:           status,
			ItemCount:             aws.ToInt64(gsi.ItemCount),
		})
	}
	return out
}
