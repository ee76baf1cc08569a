package ddbstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

// UpdateTable changes billing, throughput, streams and global indexes of an
// existing table. As on DynamoDB, at most one global index may be created
// or deleted per call.
func (s *Store) UpdateTable(ctx context.Context, params *dynamodb.UpdateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTableOutput, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}
	if params == nil || aws.ToString(params.TableName) == "" {
		return nil, validationError("table name is required")
	}

	name := aws.ToString(params.TableName)
	var rec *tableRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		rec, err = s.getTable(txn, name)
		if err != nil {
			return err
		}
		if err := applyTableUpdate(rec, params); err != nil {
			return err
		}
		return s.putTable(txn, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("table updated", "table", name, "index_updates", len(params.GlobalSecondaryIndexUpdates))
	return &dynamodb.UpdateTableOutput{TableDescription: rec.ddb()}, nil
}

func applyTableUpdate(rec *tableRecord, in *dynamodb.UpdateTableInput) error {
	desc := &rec.Description
	owner := "table " + desc.TableName
	changed := false

	billing := desc.BillingMode
	if in.BillingMode != "" {
		b, err := billingMode(in.BillingMode)
		if err != nil {
			return err
		}
		if b != billing {
			changed = true
		}
		billing = b
	}

	switch {
	case in.ProvisionedThroughput != nil:
		if err := validateThroughput(owner, billing, in.ProvisionedThroughput); err != nil {
			return err
		}
		desc.ProvisionedThroughput = table.ThroughputFromInput(in.ProvisionedThroughput)
		changed = true
	case billing == types.BillingModeProvisioned && desc.BillingMode == types.BillingModePayPerRequest:
		return validationError("%s: ProvisionedThroughput is required when switching to PROVISIONED", owner)
	case billing == types.BillingModePayPerRequest:
		desc.ProvisionedThroughput = table.Throughput{}
	}
	desc.BillingMode = billing

	if in.StreamSpecification != nil {
		if aws.ToBool(in.StreamSpecification.StreamEnabled) {
			if rec.StreamViewType != "" {
				return validationError("%s: table already has an enabled stream", owner)
			}
			if in.StreamSpecification.StreamViewType == "" {
				return validationError("%s: StreamViewType is required when enabling a stream", owner)
			}
			rec.StreamViewType = in.StreamSpecification.StreamViewType
		} else {
			rec.StreamViewType = ""
		}
		changed = true
	}

	defined := make(map[string]types.ScalarAttributeType)
	for _, d := range desc.AttributeDefinitions {
		defined[d.AttributeName] = types.ScalarAttributeType(d.AttributeType)
	}
	incoming, err := attributeTypes(in.AttributeDefinitions)
	if err != nil {
		return err
	}
	for n, t := range incoming {
		if prev, ok := defined[n]; ok && prev != t {
			return validationError("attribute %s is already defined as %s", n, prev)
		}
	}

	structural := 0
	for _, upd := range in.GlobalSecondaryIndexUpdates {
		switch {
		case upd.Create != nil:
			structural++
			if err := createGlobalIndex(desc, billing, upd.Create, defined, incoming); err != nil {
				return err
			}
		case upd.Update != nil:
			if err := updateGlobalIndex(desc, billing, upd.Update); err != nil {
				return err
			}
		case upd.Delete != nil:
			structural++
			if err := deleteGlobalIndex(desc, upd.Delete); err != nil {
				return err
			}
		default:
			return validationError("%s: empty global secondary index update", owner)
		}
		changed = true
	}
	if structural > 1 {
		return validationError("%s: only one global secondary index can be created or deleted per UpdateTable call", owner)
	}

	if billing == types.BillingModePayPerRequest {
		for i := range desc.GlobalSecondaryIndexes {
			desc.GlobalSecondaryIndexes[i].ProvisionedThroughput = table.Throughput{}
		}
	}

	if !changed {
		return validationError("%s: UpdateTable requires at least one change", owner)
	}
	pruneAttributeDefinitions(desc)
	return nil
}

func createGlobalIndex(desc *table.Description, billing types.BillingMode, create *types.CreateGlobalSecondaryIndexAction, defined, incoming map[string]types.ScalarAttributeType) error {
	name := aws.ToString(create.IndexName)
	owner := "index " + name
	if err := validateName("index", name); err != nil {
		return err
	}
	if _, ok := desc.GlobalIndex(name); ok {
		return validationError("%s: global secondary index already exists", owner)
	}
	if _, ok := desc.LocalIndex(name); ok {
		return validationError("duplicate index name: %s", name)
	}
	if len(desc.GlobalSecondaryIndexes) >= maxGlobalIndexes {
		return validationError("%s: at most %d global secondary indexes are allowed", owner, maxGlobalIndexes)
	}

	known := make(map[string]types.ScalarAttributeType, len(defined)+len(incoming))
	for n, t := range defined {
		known[n] = t
	}
	for n, t := range incoming {
		known[n] = t
	}
	ks, err := parseKeySchema(owner, create.KeySchema, known)
	if err != nil {
		return err
	}
	if err := validateProjection(owner, create.Projection); err != nil {
		return err
	}
	if err := validateThroughput(owner, billing, create.ProvisionedThroughput); err != nil {
		return err
	}

	for _, a := range ks.attrs {
		if _, ok := defined[a]; ok {
			continue
		}
		defined[a] = known[a]
		desc.AttributeDefinitions = append(desc.AttributeDefinitions, table.AttributeDefinition{
			AttributeName: a,
			AttributeType: table.KeyKind(known[a]),
		})
	}
	desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes,
		globalIndexDescription(name, create.KeySchema, create.Projection, create.ProvisionedThroughput))
	return nil
}

func updateGlobalIndex(desc *table.Description, billing types.BillingMode, update *types.UpdateGlobalSecondaryIndexAction) error {
	name := aws.ToString(update.IndexName)
	owner := "index " + name
	for i := range desc.GlobalSecondaryIndexes {
		if desc.GlobalSecondaryIndexes[i].IndexName != name {
			continue
		}
		if billing == types.BillingModePayPerRequest {
			return validationError("%s: cannot update throughput of a PAY_PER_REQUEST table", owner)
		}
		if err := validateThroughput(owner, billing, update.ProvisionedThroughput); err != nil {
			return err
		}
		desc.GlobalSecondaryIndexes[i].ProvisionedThroughput = table.ThroughputFromInput(update.ProvisionedThroughput)
		return nil
	}
	return validationError("%s: global secondary index not found", owner)
}

func deleteGlobalIndex(desc *table.Description, del *types.DeleteGlobalSecondaryIndexAction) error {
	name := aws.ToString(del.IndexName)
	for i, gsi := range desc.GlobalSecondaryIndexes {
		if gsi.IndexName == name {
			desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes[:i], desc.GlobalSecondaryIndexes[i+1:]...)
			return nil
		}
	}
	return validationError("index %s: global secondary index not found", name)
}

// pruneAttributeDefinitions drops definitions no key references anymore.
func pruneAttributeDefinitions(desc *table.Description) {
	used := make(map[string]bool)
	mark := func(ks []table.KeySchemaElement) {
		for _, k := range ks {
			used[k.AttributeName] = true
		}
	}
	mark(desc.KeySchema)
	for _, lsi := range desc.LocalSecondaryIndexes {
		mark(lsi.KeySchema)
	}
	for _, gsi := range desc.GlobalSecondaryIndexes {
		mark(gsi.KeySchema)
	}
	kept := desc.AttributeDefinitions[:0]
	for _, d := range desc.AttributeDefinitions {
		if used[d.AttributeName] {
			kept = append(kept, d)
		}
	}
	desc.AttributeDefinitions = kept
}
