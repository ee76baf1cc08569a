//go:build e2e

// Package e2e provisions model tables against a real DynamoDB endpoint.
// Run with: go test -tags=e2e -v ./e2e/...
//
// DDB_E2E_PROFILE selects a shared config profile. DDB_E2E_ENDPOINT points
// the client at DynamoDB Local instead of AWS.
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acksell/ddbmodel/dynamodb/models"
	"github.com/acksell/ddbmodel/dynamodb/schema"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

const (
	tablePrefix = "ddbmodel-e2e"
	waitFor     = 5 * time.Minute
)

var (
	testID    string
	ddbClient *dynamodb.Client
	registry  *models.Registry
)

var playerSchema = map[string]schema.AttrType{
	"name":    schema.String,
	"age":     schema.Number,
	"nick":    schema.String,
	"wins":    schema.Number,
	"expires": schema.Number,
}

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	fmt.Printf("Test ID: %s\n", testID)

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv("DDB_E2E_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	endpoint := os.Getenv("DDB_E2E_ENDPOINT")
	if endpoint != "" {
		opts = append(opts,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
		)
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	registry = models.NewRegistry(ddbClient, models.WithTableName(func(name string) string {
		return fmt.Sprintf("%s-%s-%s", tablePrefix, testID, name)
	}))

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}
	os.Exit(code)
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")
	for _, m := range registry.Models() {
		err := m.DeleteTable(ctx, models.WithWait(waitFor))
		if err != nil && !models.IsTableNotFound(err) {
			return err
		}
	}
	return nil
}

func TestCreateTableWithIndexes(t *testing.T) {
	ctx := context.Background()
	m, err := registry.Define(schema.Model{
		Name:       "player",
		HashKey:    "name",
		RangeKey:   "age",
		TimeToLive: "expires",
		Schema:     playerSchema,
		Indexes: []schema.Index{
			{Type: schema.LocalIndex, Name: "NameNickIndex", HashKey: "name", RangeKey: "nick"},
			{Type: schema.LocalIndex, Name: "NameWinsIndex", HashKey: "name", RangeKey: "wins"},
			{Type: schema.GlobalIndex, Name: "GlobalNickIndex", HashKey: "nick"},
			{Type: schema.GlobalIndex, Name: "GlobalAgeWinsIndex", HashKey: "age", RangeKey: "wins"},
		},
	})
	require.NoError(t, err)

	desc, err := m.CreateTable(ctx, models.WithWait(waitFor))
	require.NoError(t, err)
	assert.Equal(t, types.TableStatusActive, desc.TableStatus)
	assert.Len(t, desc.LocalSecondaryIndexes, 2)
	assert.Len(t, desc.GlobalSecondaryIndexes, 2)

	for _, name := range []string{"GlobalNickIndex", "GlobalAgeWinsIndex"} {
		gsi, ok := desc.GlobalIndex(name)
		require.True(t, ok, name)
		assert.Equal(t, types.IndexStatusActive, gsi.IndexStatus)
		assert.Equal(t, table.DefaultThroughput(), gsi.ProvisionedThroughput)
	}

	ttl, err := ddbClient.DescribeTimeToLive(ctx, &dynamodb.DescribeTimeToLiveInput{TableName: aws.String(m.TableName())})
	require.NoError(t, err)
	assert.Contains(t, []types.TimeToLiveStatus{types.TimeToLiveStatusEnabled, types.TimeToLiveStatusEnabling},
		ttl.TimeToLiveDescription.TimeToLiveStatus)
}

func TestUpdateTableAddsGlobalIndex(t *testing.T) {
	ctx := context.Background()
	v1, err := registry.Define(schema.Model{Name: "game", HashKey: "name", Schema: playerSchema})
	require.NoError(t, err)
	_, err = v1.CreateTable(ctx, models.WithPayPerRequest(), models.WithWait(waitFor))
	require.NoError(t, err)

	v2, err := registry.Define(schema.Model{
		Name:    "game",
		HashKey: "name",
		Schema:  playerSchema,
		Indexes: []schema.Index{{Type: schema.GlobalIndex, HashKey: "nick"}},
	})
	require.NoError(t, err)

	desc, err := v2.UpdateTable(ctx, models.WithPayPerRequest(), models.WithWait(waitFor))
	require.NoError(t, err)
	gsi, ok := desc.GlobalIndex("GlobalNickIndex")
	require.True(t, ok)
	assert.Equal(t, types.IndexStatusActive, gsi.IndexStatus)
}
