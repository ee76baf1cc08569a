package provision

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

// PlanUpdate computes the UpdateTable calls that bring a live table in line
// with def. It returns nil when nothing needs to change.
//
// DynamoDB accepts only one index creation per UpdateTable call, so the
// first input carries billing, table throughput and index throughput
// changes, and every missing global index gets an input of its own. Indexes
// that exist on the table but not in def are left alone, as are local
// indexes, which cannot be added after creation.
func PlanUpdate(def table.TableDefinition, desc table.Description) []*dynamodb.UpdateTableInput {
	var inputs []*dynamodb.UpdateTableInput

	billing := def.BillingMode
	if billing == "" {
		billing = types.BillingModeProvisioned
	}
	live := desc.BillingMode
	if live == "" {
		live = types.BillingModeProvisioned
	}

	base := &dynamodb.UpdateTableInput{TableName: aws.String(def.Name)}
	changed := false
	if billing != live {
		base.BillingMode = billing
		changed = true
	}
	if billing == types.BillingModeProvisioned && (billing != live || def.Throughput != desc.ProvisionedThroughput) {
		base.ProvisionedThroughput = table.DDBThroughput(def.Throughput)
		changed = true
	}

	var creates []table.GSIDefinition
	for _, gsi := range def.GSIs {
		existing, ok := desc.GlobalIndex(gsi.Name)
		if !ok {
			creates = append(creates, gsi)
			continue
		}
		if billing == types.BillingModeProvisioned && existing.ProvisionedThroughput != gsi.Throughput {
			base.GlobalSecondaryIndexUpdates = append(base.GlobalSecondaryIndexUpdates, types.GlobalSecondaryIndexUpdate{
				Update: &types.UpdateGlobalSecondaryIndexAction{
					IndexName:             aws.String(gsi.Name),
					ProvisionedThroughput: table.DDBThroughput(gsi.Throughput),
				},
			})
			changed = true
		}
	}
	if changed {
		inputs = append(inputs, base)
	}

	for _, gsi := range creates {
		names := []string{gsi.KeyDefinitions.PartitionKey.Name}
		if gsi.KeyDefinitions.HasSortKey() {
			names = append(names, gsi.KeyDefinitions.SortKey.Name)
		}
		inputs = append(inputs, &dynamodb.UpdateTableInput{
			TableName:            aws.String(def.Name),
			AttributeDefinitions: def.DDBAttributeDefinitions(names...),
			GlobalSecondaryIndexUpdates: []types.GlobalSecondaryIndexUpdate{
				{Create: gsi.CreateAction(billing)},
			},
		})
	}
	return inputs
}
