package models

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/acksell/ddbmodel/dynamodb/ddbiface"
	"github.com/acksell/ddbmodel/dynamodb/provision"
	"github.com/acksell/ddbmodel/dynamodb/schema"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

// Model is a compiled model bound to a control plane.
type Model struct {
	schema     schema.Model
	definition table.TableDefinition
	client     ddbiface.ControlPlane
	logger     *slog.Logger
}

func (m *Model) Name() string {
	return m.schema.Name
}

// Schema returns the declaration the model was compiled from.
func (m *Model) Schema() schema.Model {
	return m.schema
}

// Definition returns the compiled table definition.
func (m *Model) Definition() table.TableDefinition {
	return m.definition
}

func (m *Model) TableName() string {
	return m.definition.Name
}

// CreateTableInput returns the request CreateTable would send.
func (m *Model) CreateTableInput(opts ...TableOption) (*dynamodb.CreateTableInput, error) {
	def, err := newTableConfig(opts).apply(m.schema.Name, m.definition)
	if err != nil {
		return nil, err
	}
	return def.CreateTableInput(), nil
}

// CreateTable creates the model's table and returns its normalized description.
//
// When the model declares a time to live attribute, expiry is enabled once
// the table is ACTIVE. On DynamoDB a new table is CREATING, so pass WithWait
// to have the attribute enabled in the same call.
func (m *Model) CreateTable(ctx context.Context, opts ...TableOption) (table.Description, error) {
	cfg := newTableConfig(opts)
	def, err := cfg.apply(m.schema.Name, m.definition)
	if err != nil {
		return table.Description{}, err
	}

	m.logger.Info("creating table",
		"lsis", len(def.LSIs),
		"gsis", len(def.GSIs),
		"billing", def.BillingMode)

	out, err := m.client.CreateTable(ctx, def.CreateTableInput())
	if err != nil {
		return table.Description{}, fmt.Errorf("create table %s: %w", def.Name, err)
	}
	raw := out.TableDescription

	if cfg.wait > 0 {
		if err := m.waitActive(ctx, cfg.wait); err != nil {
			return table.Description{}, err
		}
		described, err := m.describe(ctx)
		if err != nil {
			return table.Description{}, err
		}
		raw = described
	}

	if def.TimeToLiveKey != "" {
		if raw != nil && raw.TableStatus == types.TableStatusActive {
			if err := m.enableTimeToLive(ctx, def.TimeToLiveKey); err != nil {
				return table.Description{}, err
			}
		} else {
			m.logger.Warn("table not active yet, time to live not enabled", "attribute", def.TimeToLiveKey)
		}
	}

	return provision.Normalize(raw), nil
}

// DescribeTable returns the normalized description of the model's table.
func (m *Model) DescribeTable(ctx context.Context) (table.Description, error) {
	raw, err := m.describe(ctx)
	if err != nil {
		return table.Description{}, err
	}
	return provision.Normalize(raw), nil
}

func (m *Model) describe(ctx context.Context) (*types.TableDescription, error) {
	out, err := m.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(m.definition.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", m.definition.Name, err)
	}
	return out.Table, nil
}

// UpdateTable brings the live table in line with the model: missing global
// indexes are created and capacity changes applied. Only one index can be
// added per call to DynamoDB, so adding several needs WithWait to let each
// finish before the next starts.
func (m *Model) UpdateTable(ctx context.Context, opts ...TableOption) (table.Description, error) {
	cfg := newTableConfig(opts)
	def, err := cfg.apply(m.schema.Name, m.definition)
	if err != nil {
		return table.Description{}, err
	}

	live, err := m.DescribeTable(ctx)
	if err != nil {
		return table.Description{}, err
	}

	inputs := provision.PlanUpdate(def, live)
	if len(inputs) == 0 {
		m.logger.Debug("table up to date")
		return live, nil
	}

	for i, in := range inputs {
		if i > 0 && cfg.wait > 0 {
			if err := m.waitActive(ctx, cfg.wait); err != nil {
				return table.Description{}, err
			}
		}
		m.logger.Info("updating table", "step", i+1, "of", len(inputs))
		if _, err := m.client.UpdateTable(ctx, in); err != nil {
			return table.Description{}, fmt.Errorf("update table %s: %w", def.Name, err)
		}
	}
	if cfg.wait > 0 {
		if err := m.waitActive(ctx, cfg.wait); err != nil {
			return table.Description{}, err
		}
	}
	return m.DescribeTable(ctx)
}

// DeleteTable deletes the model's table. With WithWait it returns once the
// table is gone.
func (m *Model) DeleteTable(ctx context.Context, opts ...TableOption) error {
	cfg := newTableConfig(opts)
	name := m.definition.Name

	m.logger.Info("deleting table")
	_, err := m.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(name)})
	if err != nil {
		return fmt.Errorf("delete table %s: %w", name, err)
	}
	if cfg.wait > 0 {
		waiter := dynamodb.NewTableNotExistsWaiter(m.client)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, cfg.wait); err != nil {
			return fmt.Errorf("wait for table %s deletion: %w", name, err)
		}
	}
	return nil
}

func (m *Model) enableTimeToLive(ctx context.Context, attr string) error {
	_, err := m.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(m.definition.Name),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(attr),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("enable time to live on %s.%s: %w", m.definition.Name, attr, err)
	}
	m.logger.Info("time to live enabled", "attribute", attr)
	return nil
}

// waitActive waits until the table and all of its global indexes are ACTIVE.
func (m *Model) waitActive(ctx context.Context, max time.Duration) error {
	name := m.definition.Name
	waiter := dynamodb.NewTableExistsWaiter(m.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.Retryable = tableAndIndexesActive
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, max); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}
	return nil
}

func tableAndIndexesActive(ctx context.Context, in *dynamodb.DescribeTableInput, out *dynamodb.DescribeTableOutput, err error) (bool, error) {
	if err != nil {
		if IsTableNotFound(err) {
			return true, nil
		}
		return false, err
	}
	if out == nil || out.Table == nil || out.Table.TableStatus != types.TableStatusActive {
		return true, nil
	}
	for _, gsi := range out.Table.GlobalSecondaryIndexes {
		if gsi.IndexStatus != types.IndexStatusActive {
			return true, nil
		}
	}
	return false, nil
}
