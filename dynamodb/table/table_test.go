package table

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

var pkOnlyTable = TableDefinition{
	Name: "users",
	KeyDefinitions: PrimaryKeyDefinition{
		PartitionKey: KeyDef{Name: "email", Kind: KeyKindS},
	},
	AttributeDefinitions: []KeyDef{{Name: "email", Kind: KeyKindS}},
	Throughput:           DefaultThroughput(),
}

var pkAndSKTable = TableDefinition{
	Name: "players",
	KeyDefinitions: PrimaryKeyDefinition{
		PartitionKey: KeyDef{Name: "name", Kind: KeyKindS},
		SortKey:      KeyDef{Name: "age", Kind: KeyKindN},
	},
	AttributeDefinitions: []KeyDef{
		{Name: "name", Kind: KeyKindS},
		{Name: "age", Kind: KeyKindN},
		{Name: "nick", Kind: KeyKindS},
	},
	LSIs: []LSIDefinition{{
		Name: "NickIndex",
		KeyDefinitions: PrimaryKeyDefinition{
			PartitionKey: KeyDef{Name: "name", Kind: KeyKindS},
			SortKey:      KeyDef{Name: "nick", Kind: KeyKindS},
		},
		Projection: Projection{Kind: ProjectOnlyKeys},
	}},
	GSIs: []GSIDefinition{{
		Name: "GlobalNickIndex",
		KeyDefinitions: PrimaryKeyDefinition{
			PartitionKey: KeyDef{Name: "nick", Kind: KeyKindS},
		},
		Projection: Projection{Kind: ProjectSubset, NonKeyAttributes: []string{"wins"}},
		Throughput: Throughput{ReadCapacityUnits: 10, WriteCapacityUnits: 5},
	}},
	Throughput: Throughput{ReadCapacityUnits: 3, WriteCapacityUnits: 2},
}

func TestCreateTableInput(t *testing.T) {
	t.Run("hash key only", func(t *testing.T) {
		in := pkOnlyTable.CreateTableInput()
		require.Equal(t, "users", aws.ToString(in.TableName))
		require.Equal(t, []types.KeySchemaElement{
			{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
		}, in.KeySchema)
		require.Equal(t, []types.AttributeDefinition{
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		}, in.AttributeDefinitions)
		require.Equal(t, types.BillingModeProvisioned, in.BillingMode)
		require.Equal(t, int64(1), aws.ToInt64(in.ProvisionedThroughput.ReadCapacityUnits))
		require.Nil(t, in.LocalSecondaryIndexes)
		require.Nil(t, in.GlobalSecondaryIndexes)
		require.Nil(t, in.StreamSpecification)
	})

	t.Run("indexes", func(t *testing.T) {
		in := pkAndSKTable.CreateTableInput()
		require.Len(t, in.KeySchema, 2)
		require.Equal(t, types.KeyTypeRange, in.KeySchema[1].KeyType)
		require.Equal(t, "age", aws.ToString(in.KeySchema[1].AttributeName))

		require.Len(t, in.LocalSecondaryIndexes, 1)
		lsi := in.LocalSecondaryIndexes[0]
		require.Equal(t, "NickIndex", aws.ToString(lsi.IndexName))
		require.Equal(t, types.ProjectionTypeKeysOnly, lsi.Projection.ProjectionType)
		require.Nil(t, lsi.Projection.NonKeyAttributes)

		require.Len(t, in.GlobalSecondaryIndexes, 1)
		gsi := in.GlobalSecondaryIndexes[0]
		require.Equal(t, []string{"wins"}, gsi.Projection.NonKeyAttributes)
		require.Equal(t, int64(10), aws.ToInt64(gsi.ProvisionedThroughput.ReadCapacityUnits))
		require.Equal(t, int64(5), aws.ToInt64(gsi.ProvisionedThroughput.WriteCapacityUnits))
	})

	t.Run("pay per request drops throughput", func(t *testing.T) {
		def := pkAndSKTable
		def.BillingMode = types.BillingModePayPerRequest
		in := def.CreateTableInput()
		require.Nil(t, in.ProvisionedThroughput)
		require.Nil(t, in.GlobalSecondaryIndexes[0].ProvisionedThroughput)
		require.Equal(t, types.BillingModePayPerRequest, in.BillingMode)
	})

	t.Run("stream", func(t *testing.T) {
		def := pkOnlyTable
		def.StreamViewType = types.StreamViewTypeNewAndOldImages
		in := def.CreateTableInput()
		require.NotNil(t, in.StreamSpecification)
		require.True(t, aws.ToBool(in.StreamSpecification.StreamEnabled))
		require.Equal(t, types.StreamViewTypeNewAndOldImages, in.StreamSpecification.StreamViewType)
	})
}

func TestCreateActionCopiesIndex(t *testing.T) {
	gsi, ok := pkAndSKTable.GSI("GlobalNickIndex")
	require.True(t, ok)
	action := gsi.CreateAction(types.BillingModeProvisioned)
	require.Equal(t, "GlobalNickIndex", aws.ToString(action.IndexName))
	require.Equal(t, int64(10), aws.ToInt64(action.ProvisionedThroughput.ReadCapacityUnits))

	_, ok = pkAndSKTable.GSI("missing")
	require.False(t, ok)
}

func TestLookups(t *testing.T) {
	_, ok := pkAndSKTable.LSI("NickIndex")
	require.True(t, ok)
	def, ok := pkAndSKTable.Attribute("age")
	require.True(t, ok)
	require.Equal(t, KeyKindN, def.Kind)
	require.Len(t, pkAndSKTable.DDBAttributeDefinitions("nick", "unknown"), 1)
	require.Equal(t, []AttributeDefinition{
		{AttributeName: "name", AttributeType: KeyKindS},
		{AttributeName: "age", AttributeType: KeyKindN},
		{AttributeName: "nick", AttributeType: KeyKindS},
	}, pkAndSKTable.AttributeDefinitionList())
}

func TestPrimaryKeyValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     PrimaryKeyDefinition
		wantErr bool
	}{
		{"hash only", PrimaryKeyDefinition{PartitionKey: KeyDef{"id", KeyKindS}}, false},
		{"hash and range", PrimaryKeyDefinition{PartitionKey: KeyDef{"id", KeyKindB}, SortKey: KeyDef{"ts", KeyKindN}}, false},
		{"missing hash", PrimaryKeyDefinition{SortKey: KeyDef{"ts", KeyKindN}}, true},
		{"bad hash kind", PrimaryKeyDefinition{PartitionKey: KeyDef{"id", "BOOL"}}, true},
		{"bad range kind", PrimaryKeyDefinition{PartitionKey: KeyDef{"id", KeyKindS}, SortKey: KeyDef{"ts", "SS"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProjectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Projection
		wantErr bool
	}{
		{"all", ProjectionAll(), false},
		{"keys only", Projection{Kind: ProjectOnlyKeys}, false},
		{"include", Projection{Kind: ProjectSubset, NonKeyAttributes: []string{"wins"}}, false},
		{"include without attributes", Projection{Kind: ProjectSubset}, true},
		{"all with attributes", Projection{Kind: ProjectAll, NonKeyAttributes: []string{"wins"}}, true},
		{"unknown", Projection{Kind: "SOME"}, true},
		{"empty", Projection{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFromDDB(t *testing.T) {
	require.Equal(t, Projection{}, ProjectionFromDDB(nil))
	require.Equal(t, Throughput{}, ThroughputFromDDB(nil))
	require.Equal(t, Throughput{ReadCapacityUnits: 4, WriteCapacityUnits: 2}, ThroughputFromDDB(&types.ProvisionedThroughputDescription{
		ReadCapacityUnits:  aws.Int64(4),
		WriteCapacityUnits: aws.Int64(2),
	}))
	require.Equal(t, []KeySchemaElement{{AttributeName: "id", KeyType: KeyTypeHash}}, KeySchemaFromDDB([]types.KeySchemaElement{
		{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
	}))
	require.Nil(t, AttributeDefinitionsFromDDB(nil))
}

func TestDescriptionLookup(t *testing.T) {
	desc := Description{
		LocalSecondaryIndexes:  []LocalIndexDescription{{IndexName: "A"}, {IndexName: "B"}},
		GlobalSecondaryIndexes: []GlobalIndexDescription{{IndexName: "G", IndexStatus: types.IndexStatusActive}},
	}
	b, ok := desc.LocalIndex("B")
	require.True(t, ok)
	require.Equal(t, "B", b.IndexName)
	_, ok = desc.LocalIndex("G")
	require.False(t, ok)
	g, ok := desc.GlobalIndex("G")
	require.True(t, ok)
	require.Equal(t, types.IndexStatusActive, g.IndexStatus)
}
