package ddbui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acksell/ddbmodel/dynamodb/ddbstore"
	"github.com/acksell/ddbmodel/dynamodb/models"
	"github.com/acksell/ddbmodel/dynamodb/schema"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := models.NewRegistry(store)
	require.NoError(t, reg.Load(schema.File{Models: []schema.Model{
		{
			Name:     "player",
			HashKey:  "name",
			RangeKey: "age",
			Schema: map[string]schema.AttrType{
				"name": schema.String,
				"age":  schema.Number,
				"nick": schema.String,
			},
			Indexes: []schema.Index{
				{Type: schema.LocalIndex, HashKey: "name", RangeKey: "nick"},
				{Type: schema.GlobalIndex, HashKey: "nick"},
			},
		},
		{Name: "game", HashKey: "id", Schema: map[string]schema.AttrType{"id": schema.UUID}},
	}}))

	srv := httptest.NewServer(NewServer(ServerConfig{}, reg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestListModels(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Models []modelSummary `json:"models"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/models", &body))
	require.Len(t, body.Models, 2)
	assert.Equal(t, modelSummary{
		Name: "player", Table: "players", HashKey: "name", RangeKey: "age", LSICount: 1, GSICount: 1,
	}, body.Models[0])
	assert.Equal(t, "games", body.Models[1].Table)
}

func TestPlanModel(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Model   string `json:"model"`
		Request struct {
			TableName              string
			BillingMode            string
			ProvisionedThroughput  *struct{ ReadCapacityUnits int64 }
			GlobalSecondaryIndexes []struct{ IndexName string }
		} `json:"request"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/models/player/plan?read=3&write=2", &body))
	assert.Equal(t, "player", body.Model)
	assert.Equal(t, "players", body.Request.TableName)
	require.NotNil(t, body.Request.ProvisionedThroughput)
	assert.Equal(t, int64(3), body.Request.ProvisionedThroughput.ReadCapacityUnits)
	require.Len(t, body.Request.GlobalSecondaryIndexes, 1)
	assert.Equal(t, "GlobalNickIndex", body.Request.GlobalSecondaryIndexes[0].IndexName)

	t.Run("pay per request", func(t *testing.T) {
		body.Request.ProvisionedThroughput = nil
		require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/models/player/plan?billing=PAY_PER_REQUEST", &body))
		assert.Equal(t, "PAY_PER_REQUEST", body.Request.BillingMode)
		assert.Nil(t, body.Request.ProvisionedThroughput)
	})

	t.Run("zero capacity defaults to one unit", func(t *testing.T) {
		require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/models/player/plan?read=0&write=4", &body))
		require.NotNil(t, body.Request.ProvisionedThroughput)
		assert.Equal(t, int64(1), body.Request.ProvisionedThroughput.ReadCapacityUnits)
	})

	t.Run("bad options", func(t *testing.T) {
		for _, query := range []string{"billing=FREE", "read=x&write=1", "wait=soon", "read=-1&write=1"} {
			assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/api/models/player/plan?"+query, nil), query)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		var errBody map[string]string
		assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/api/models/missing/plan", &errBody))
		assert.Equal(t, "model not found: missing", errBody["error"])
	})
}

func TestTableLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		Table table.Description `json:"table"`
	}
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/api/models/player/table", &created))
	assert.Equal(t, "players", created.Table.TableName)
	_, ok := created.Table.LocalIndex("NameNickIndex")
	assert.True(t, ok)
	_, ok = created.Table.GlobalIndex("GlobalNickIndex")
	assert.True(t, ok)

	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, srv.URL+"/api/models/player/table", nil))

	var listed struct {
		Tables []string `json:"tables"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/tables", &listed))
	assert.Equal(t, []string{"players"}, listed.Tables)

	var described struct {
		Table table.Description `json:"table"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/tables/players", &described))
	assert.Equal(t, created.Table, described.Table)

	var updated struct {
		Table table.Description `json:"table"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodPut, srv.URL+"/api/models/player/table?read=4&write=4", &updated))
	assert.Equal(t, table.Throughput{ReadCapacityUnits: 4, WriteCapacityUnits: 4}, updated.Table.ProvisionedThroughput)

	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/api/tables/players", nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/api/tables/players", nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodDelete, srv.URL+"/api/tables/players", nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPut, srv.URL+"/api/models/player/table", nil))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/models", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
