package ddbstore

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

const defaultListTablesLimit = 100

// CreateTable validates the request and adds the table to the catalog.
// Tables and their global indexes become ACTIVE immediately.
func (s *Store) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCreateTable(params); err != nil {
		return nil, err
	}

	rec := newTableRecord(params, s.now())
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := s.getTable(txn, rec.Description.TableName)
		if err == nil {
			return tableInUse(rec.Description.TableName)
		}
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return err
		}
		return s.putTable(txn, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("table created",
		"table", rec.Description.TableName,
		"lsis", len(rec.Description.LocalSecondaryIndexes),
		"gsis", len(rec.Description.GlobalSecondaryIndexes))
	return &dynamodb.CreateTableOutput{TableDescription: rec.ddb()}, nil
}

func newTableRecord(in *dynamodb.CreateTableInput, now time.Time) *tableRecord {
	billing, _ := billingMode(in.BillingMode)
	desc := table.Description{
		TableName:            aws.ToString(in.TableName),
		TableStatus:          types.TableStatusActive,
		KeySchema:            table.KeySchemaFromDDB(in.KeySchema),
		AttributeDefinitions: table.AttributeDefinitionsFromDDB(in.AttributeDefinitions),
		BillingMode:          billing,
	}
	if billing == types.BillingModeProvisioned {
		desc.ProvisionedThroughput = table.ThroughputFromInput(in.ProvisionedThroughput)
	}
	for _, lsi := range in.LocalSecondaryIndexes {
		desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, table.LocalIndexDescription{
			IndexName:  aws.ToString(lsi.IndexName),
			KeySchema:  table.KeySchemaFromDDB(lsi.KeySchema),
			Projection: table.ProjectionFromDDB(lsi.Projection),
		})
	}
	for _, gsi := range in.GlobalSecondaryIndexes {
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, globalIndexDescription(
			aws.ToString(gsi.IndexName), gsi.KeySchema, gsi.Projection, gsi.ProvisionedThroughput))
	}

	rec := &tableRecord{Description: desc, CreatedAt: now}
	if in.StreamSpecification != nil && aws.ToBool(in.StreamSpecification.StreamEnabled) {
		rec.StreamViewType = in.StreamSpecification.StreamViewType
	}
	return rec
}

func globalIndexDescription(name string, ks []types.KeySchemaElement, p *types.Projection, t *types.ProvisionedThroughput) table.GlobalIndexDescription {
	return table.GlobalIndexDescription{
		IndexName:             name,
		KeySchema:             table.KeySchemaFromDDB(ks),
		Projection:            table.ProjectionFromDDB(p),
		ProvisionedThroughput: table.ThroughputFromInput(t),
		IndexStatus:           types.IndexStatusActive,
	}
}

// DescribeTable returns the catalog entry for a table.
func (s *Store) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}
	if params == nil || aws.ToString(params.TableName) == "" {
		return nil, validationError("table name is required")
	}

	var rec *tableRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.getTable(txn, aws.ToString(params.TableName))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: rec.ddb()}, nil
}

// DeleteTable removes a table from the catalog.
func (s *Store) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
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
		return txn.Delete(tableKey(name))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("table deleted", "table", name)
	desc := rec.ddb()
	desc.TableStatus = types.TableStatusDeleting
	return &dynamodb.DeleteTableOutput{TableDescription: desc}, nil
}

// ListTables lists table names in order, paginated like DynamoDB.
func (s *Store) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}
	if params == nil {
		params = &dynamodb.ListTablesInput{}
	}
	limit := int(aws.ToInt32(params.Limit))
	if limit == 0 {
		limit = defaultListTablesLimit
	}
	if limit < 1 || limit > defaultListTablesLimit {
		return nil, validationError("limit must be between 1 and %d", defaultListTablesLimit)
	}

	out := &dynamodb.ListTablesOutput{TableNames: []string{}}
	more := false
	err := s.db.View(func(txn *badger.Txn) error {
		return iterateTables(txn, aws.ToString(params.ExclusiveStartTableName), func(rec *tableRecord) bool {
			if len(out.TableNames) == limit {
				more = true
				return false
			}
			out.TableNames = append(out.TableNames, rec.Description.TableName)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if more {
		out.LastEvaluatedTableName = aws.String(out.TableNames[len(out.TableNames)-1])
	}
	return out, nil
}

// UpdateTimeToLive enables or disables expiry on an attribute.
func (s *Store) UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}
	if params == nil || params.TimeToLiveSpecification == nil {
		return nil, validationError("TimeToLiveSpecification is required")
	}
	spec := params.TimeToLiveSpecification
	attr := aws.ToString(spec.AttributeName)
	if attr == "" {
		return nil, validationError("TimeToLiveSpecification.AttributeName is required")
	}
	enabled := aws.ToBool(spec.Enabled)

	name := aws.ToString(params.TableName)
	err := s.db.Update(func(txn *badger.Txn) error {
		rec, err := s.getTable(txn, name)
		if err != nil {
			return err
		}
		switch {
		case enabled && rec.TimeToLive != "":
			return validationError("TimeToLive is already enabled")
		case !enabled && rec.TimeToLive == "":
			return validationError("TimeToLive is already disabled")
		case !enabled && rec.TimeToLive != attr:
			return validationError("TimeToLive is enabled on attribute %s, not %s", rec.TimeToLive, attr)
		}
		if enabled {
			rec.TimeToLive = attr
		} else {
			rec.TimeToLive = ""
		}
		return s.putTable(txn, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("time to live updated", "table", name, "attribute", attr, "enabled", enabled)
	return &dynamodb.UpdateTimeToLiveOutput{
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(attr),
			Enabled:       aws.Bool(enabled),
		},
	}, nil
}

// DescribeTimeToLive reports the expiry attribute of a table.
func (s *Store) DescribeTimeToLive(ctx context.Context, params *dynamodb.DescribeTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTimeToLiveOutput, error) {
	if err := s.checkContext(ctx); err != nil {
		return nil, err
	}
	if params == nil || aws.ToString(params.TableName) == "" {
		return nil, validationError("table name is required")
	}

	var rec *tableRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.getTable(txn, aws.ToString(params.TableName))
		return err
	})
	if err != nil {
		return nil, err
	}

	desc := &types.TimeToLiveDescription{TimeToLiveStatus: types.TimeToLiveStatusDisabled}
	if rec.TimeToLive != "" {
		desc.TimeToLiveStatus = types.TimeToLiveStatusEnabled
		desc.AttributeName = aws.String(rec.TimeToLive)
	}
	return &dynamodb.DescribeTimeToLiveOutput{TimeToLiveDescription: desc}, nil
}
