package ddbui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/acksell/ddbmodel/dynamodb/models"
	"github.com/acksell/ddbmodel/dynamodb/provision"
)

// APIHandler provides REST API endpoints over a model registry and the
// control plane its models are provisioned against.
type APIHandler struct {
	registry *models.Registry
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(registry *models.Registry) *APIHandler {
	return &APIHandler{registry: registry}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/models", h.listModels)
	mux.HandleFunc("GET /api/models/{model}/plan", h.planModel)
	mux.HandleFunc("POST /api/models/{model}/table", h.createModelTable)
	mux.HandleFunc("PUT /api/models/{model}/table", h.updateModelTable)
	mux.HandleFunc("GET /api/tables", h.listTables)
	mux.HandleFunc("GET /api/tables/{table}", h.getTable)
	mux.HandleFunc("DELETE /api/tables/{table}", h.deleteTable)
}

// modelSummary is the list view of a registered model.
type modelSummary struct {
	Name     string `json:"name"`
	Table    string `json:"table"`
	HashKey  string `json:"hashKey"`
	RangeKey string `json:"rangeKey,omitempty"`
	LSICount int    `json:"lsiCount"`
	GSICount int    `json:"gsiCount"`
	TTL      string `json:"timeToLive,omitempty"`
}

// listModels returns every registered model in definition order.
func (h *APIHandler) listModels(w http.ResponseWriter, r *http.Request) {
	list := h.registry.Models()
	out := make([]modelSummary, 0, len(list))
	for _, m := range list {
		def := m.Definition()
		out = append(out, modelSummary{
			Name:     m.Name(),
			Table:    def.Name,
			HashKey:  def.KeyDefinitions.PartitionKey.Name,
			RangeKey: def.KeyDefinitions.SortKey.Name,
			LSICount: len(def.LSIs),
			GSICount: len(def.GSIs),
			TTL:      def.TimeToLiveKey,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}

// planModel returns the CreateTable request the model compiles to.
func (h *APIHandler) planModel(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}
	opts, err := tableOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := m.CreateTableInput(opts...)
	if err != nil {
		writeServiceError(w, "plan "+m.Name(), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model":   m.Name(),
		"request": in,
	})
}

// createModelTable provisions the model's table.
func (h *APIHandler) createModelTable(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}
	opts, err := tableOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	desc, err := m.CreateTable(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, "create table failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"table": desc})
}

// updateModelTable adds missing global indexes and applies capacity changes.
func (h *APIHandler) updateModelTable(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}
	opts, err := tableOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	desc, err := m.UpdateTable(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, "update table failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": desc})
}

// listTables returns the names of the tables that exist on the control plane.
func (h *APIHandler) listTables(w http.ResponseWriter, r *http.Request) {
	input := &dynamodb.ListTablesInput{
		Limit: aws.Int32(int32(parseIntParam(r, "limit", 100))),
	}
	if start := r.URL.Query().Get("start"); start != "" {
		input.ExclusiveStartTableName = aws.String(start)
	}

	output, err := h.registry.Client().ListTables(r.Context(), input)
	if err != nil {
		writeServiceError(w, "list tables failed", err)
		return
	}

	resp := map[string]any{"tables": output.TableNames}
	if output.LastEvaluatedTableName != nil {
		resp["lastTable"] = aws.ToString(output.LastEvaluatedTableName)
	}
	writeJSON(w, http.StatusOK, resp)
}

// getTable returns the normalized description of a live table.
func (h *APIHandler) getTable(w http.ResponseWriter, r *http.Request) {
	tableName := r.PathValue("table")
	output, err := h.registry.Client().DescribeTable(r.Context(), &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		writeServiceError(w, "describe table failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": provision.Normalize(output.Table)})
}

// deleteTable removes a live table.
func (h *APIHandler) deleteTable(w http.ResponseWriter, r *http.Request) {
	tableName := r.PathValue("table")
	_, err := h.registry.Client().DeleteTable(r.Context(), &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		writeServiceError(w, "delete table failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *APIHandler) model(w http.ResponseWriter, r *http.Request) (*models.Model, bool) {
	name := r.PathValue("model")
	m, ok := h.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "model not found: "+name)
	}
	return m, ok
}

// tableOptions reads table options from query parameters:
// billing=PAY_PER_REQUEST, read and write capacity units, stream view type
// and a wait duration.
func tableOptions(r *http.Request) ([]models.TableOption, error) {
	q := r.URL.Query()
	var opts []models.TableOption

	switch billing := types.BillingMode(q.Get("billing")); billing {
	case "", types.BillingModeProvisioned:
	case types.BillingModePayPerRequest:
		opts = append(opts, models.WithPayPerRequest())
	default:
		return nil, errors.New("unknown billing mode: " + string(billing))
	}

	if q.Has("read") || q.Has("write") {
		read, err := strconv.ParseInt(q.Get("read"), 10, 64)
		if err != nil {
			return nil, errors.New("invalid read capacity: " + q.Get("read"))
		}
		write, err := strconv.ParseInt(q.Get("write"), 10, 64)
		if err != nil {
			return nil, errors.New("invalid write capacity: " + q.Get("write"))
		}
		opts = append(opts, models.WithCapacity(read, write))
	}

	if view := q.Get("stream"); view != "" {
		opts = append(opts, models.WithStream(types.StreamViewType(view)))
	}

	if wait := q.Get("wait"); wait != "" {
		d, err := time.ParseDuration(wait)
		if err != nil {
			return nil, errors.New("invalid wait: " + err.Error())
		}
		opts = append(opts, models.WithWait(d))
	}
	return opts, nil
}

// writeServiceError maps compile and control plane errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, prefix string, err error) {
	status := http.StatusInternalServerError
	var apiErr smithy.APIError
	switch {
	case provision.IsSchemaError(err):
		status = http.StatusBadRequest
	case models.IsTableNotFound(err):
		status = http.StatusNotFound
	case models.IsTableExists(err):
		status = http.StatusConflict
	case errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultClient:
		status = http.StatusBadRequest
	}
	writeError(w, status, prefix+": "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
