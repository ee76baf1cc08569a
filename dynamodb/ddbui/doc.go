// Package ddbui serves a local JSON API over a model registry.
//
// It allows users to:
//   - List registered models and the tables they compile to
//   - Inspect the CreateTable request a model produces
//   - Create or update a model's table
//   - Describe, list and delete live tables
//
// # Usage
//
// Start the server through the ddb CLI:
//
//	ddb ui --schema ./models/*.yaml --memory --port 8080
//
// This serves http://localhost:8080 against an in-memory control plane.
// Drop --memory to provision against DynamoDB, or pass --endpoint to use
// DynamoDB Local.
//
// # Routes
//
//	GET    /api/models
//	GET    /api/models/{model}/plan
//	POST   /api/models/{model}/table
//	PUT    /api/models/{model}/table
//	GET    /api/tables
//	GET    /api/tables/{table}
//	DELETE /api/tables/{table}
//
// The plan, create and update routes accept billing, read, write, stream
// and wait query parameters.
package ddbui
