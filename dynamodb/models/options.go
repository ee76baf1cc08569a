package models

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/acksell/ddbmodel/dynamodb/provision"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

type tableConfig struct {
	throughput *table.Throughput
	billing    types.BillingMode
	stream     types.StreamViewType
	wait       time.Duration
}

// TableOption adjusts a single table operation.
type TableOption func(*tableConfig)

// WithCapacity overrides the table's read and write capacity units. Zero
// means the default of one unit and negative values are rejected by the
// operation. Global index capacity is unchanged.
func WithCapacity(read, write int64) TableOption {
	return func(c *tableConfig) {
		c.throughput = &table.Throughput{ReadCapacityUnits: read, WriteCapacityUnits: write}
	}
}

// WithPayPerRequest provisions the table in on-demand mode.
func WithPayPerRequest() TableOption {
	return func(c *tableConfig) { c.billing = types.BillingModePayPerRequest }
}

// WithStream enables a table stream with the given view type.
func WithStream(view types.StreamViewType) TableOption {
	return func(c *tableConfig) { c.stream = view }
}

// WithWait blocks until the table (and its indexes) are ACTIVE, or gone for
// DeleteTable, for at most max.
func WithWait(max time.Duration) TableOption {
	return func(c *tableConfig) { c.wait = max }
}

func newTableConfig(opts []TableOption) tableConfig {
	var c tableConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c tableConfig) apply(model string, def table.TableDefinition) (table.TableDefinition, error) {
	if tp := c.throughput; tp != nil {
		if tp.ReadCapacityUnits < 0 || tp.WriteCapacityUnits < 0 {
			return def, &provision.SchemaError{
				Model: model,
				Err:   provision.ErrInvalidThroughput,
				Msg:   fmt.Sprintf("read=%d write=%d", tp.ReadCapacityUnits, tp.WriteCapacityUnits),
			}
		}
		def.Throughput = table.Throughput{
			ReadCapacityUnits:  unitsOrDefault(tp.ReadCapacityUnits),
			WriteCapacityUnits: unitsOrDefault(tp.WriteCapacityUnits),
		}
	}
	if c.billing != "" {
		def.BillingMode = c.billing
	}
	if c.stream != "" {
		def.StreamViewType = c.stream
	}
	return def, nil
}

func unitsOrDefault(units int64) int64 {
	if units == 0 {
		return table.DefaultCapacityUnits
	}
	return units
}
