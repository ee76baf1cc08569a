package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/acksell/ddbmodel/dynamodb/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playersYAML = `
models:
  - name: player
    tableName: players
    hashKey: name
    rangeKey: age
    schema:
      name: string
      age: number
      nick: string
      wins: number
    timeToLive: expiresAt
    indexes:
      - type: local
        hashKey: name
        rangeKey: nick
        name: NameNickIndex
      - type: global
        hashKey: nick
        name: GlobalNickIndex
        projection:
          projectionType: INCLUDE
          nonKeyAttributes: [wins]
        readCapacity: 10
        writeCapacity: 5
`

func TestKeyKind(t *testing.T) {
	tests := []struct {
		typ  AttrType
		want table.KeyKind
		ok   bool
	}{
		{String, table.KeyKindS, true},
		{Date, table.KeyKindS, true},
		{UUID, table.KeyKindS, true},
		{TimeUUID, table.KeyKindS, true},
		{Number, table.KeyKindN, true},
		{Binary, table.KeyKindB, true},
		{Boolean, "", false},
		{StringSet, "", false},
		{Object, "", false},
		{Array, "", false},
		{"float", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got, ok := tt.typ.KeyKind()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, NumberSet.Valid())
	assert.False(t, AttrType("float").Valid())
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(playersYAML))
	require.NoError(t, err)
	require.Len(t, f.Models, 1)

	m, ok := f.Model("player")
	require.True(t, ok)
	assert.Equal(t, "players", m.TableName)
	assert.Equal(t, "age", m.RangeKey)
	assert.Equal(t, "expiresAt", m.TimeToLive)

	typ, ok := m.Attribute("wins")
	require.True(t, ok)
	assert.Equal(t, Number, typ)

	require.Len(t, m.Indexes, 2)
	assert.Equal(t, LocalIndex, m.Indexes[0].Type)
	assert.Nil(t, m.Indexes[0].Projection)

	gsi := m.Indexes[1]
	assert.Equal(t, GlobalIndex, gsi.Type)
	require.NotNil(t, gsi.Projection)
	assert.Equal(t, table.ProjectSubset, gsi.Projection.Kind)
	assert.Equal(t, []string{"wins"}, gsi.Projection.NonKeyAttributes)
	assert.Equal(t, int64(10), gsi.ReadCapacity)
	assert.Equal(t, int64(5), gsi.WriteCapacity)

	_, ok = f.Model("missing")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := Parse([]byte("models:\n  - name: a\n    hashkey: id\n"))
		require.Error(t, err)
	})
	t.Run("nameless model", func(t *testing.T) {
		_, err := Parse([]byte("models:\n  - hashKey: id\n"))
		require.ErrorContains(t, err, "no name")
	})
	t.Run("duplicate model name", func(t *testing.T) {
		_, err := Parse([]byte("models:\n  - name: a\n    hashKey: id\n  - name: a\n    hashKey: key\n"))
		require.ErrorContains(t, err, `model "a" defined twice`)
	})
	t.Run("empty document", func(t *testing.T) {
		f, err := Parse(nil)
		require.NoError(t, err)
		require.Empty(t, f.Models)
	})
}

func TestLoadGlob(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("a.yaml", playersYAML)
	write("b.yaml", "models:\n  - name: account\n    hashKey: id\n    schema:\n      id: uuid\n")

	f, err := LoadGlob(filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Models, 2)
	assert.Equal(t, "player", f.Models[0].Name)
	assert.Equal(t, "account", f.Models[1].Name)

	write("c.yaml", "models:\n  - name: account\n    hashKey: id\n")
	_, err = LoadGlob(filepath.Join(dir, "*.yaml"))
	require.ErrorContains(t, err, "defined in both")

	_, err = LoadGlob(filepath.Join(dir, "*.json"))
	require.ErrorContains(t, err, "no schema files")

	_, err = LoadFile(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)

	f, err = LoadFiles(filepath.Join(dir, "b.yaml"), filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Models, 2)
	assert.Equal(t, "account", f.Models[0].Name)
}
