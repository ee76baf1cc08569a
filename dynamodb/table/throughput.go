package table

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultCapacityUnits is used for reads and writes when a table or global
// index does not declare its own capacity.
const DefaultCapacityUnits int64 = 1

type Throughput struct {
	ReadCapacityUnits  int64 `json:"ReadCapacityUnits" yaml:"readCapacityUnits"`
	WriteCapacityUnits int64 `json:"WriteCapacityUnits" yaml:"writeCapacityUnits"`
}

func DefaultThroughput() Throughput {
	return Throughput{ReadCapacityUnits: DefaultCapacityUnits, WriteCapacityUnits: DefaultCapacityUnits}
}

func (t Throughput) ddb() *types.ProvisionedThroughput {
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(t.ReadCapacityUnits),
		WriteCapacityUnits: aws.Int64(t.WriteCapacityUnits),
	}
}

// ThroughputFromDDB reads the capacity units of a described table or index.
// Missing values read as zero.
func ThroughputFromDDB(t *types.ProvisionedThroughputDescription) Throughput {
	if t == nil {
		return Throughput{}
	}
	return Throughput{
		ReadCapacityUnits:  aws.ToInt64(t.ReadCapacityUnits),
		WriteCapacityUnits: aws.ToInt64(t.WriteCapacityUnits),
	}
}

// ThroughputFromInput reads the capacity units of a create or update request.
func ThroughputFromInput(t *types.ProvisionedThroughput) Throughput {
	if t == nil {
		return Throughput{}
	}
	return Throughput{
		ReadCapacityUnits:  aws.ToInt64(t.ReadCapacityUnits),
		WriteCapacityUnits: aws.ToInt64(t.WriteCapacityUnits),
	}
}

func (t Throughput) ddbDescription() *types.ProvisionedThroughputDescription {
	return &types.ProvisionedThroughputDescription{
		ReadCapacityUnits:  aws.Int64(t.ReadCapacityUnits),
		WriteCapacityUnits: aws.Int64(t.WriteCapacityUnits),
	}
}
