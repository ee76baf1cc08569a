package ddbstore

import (
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

const (
	maxLocalIndexes  = table.MaxLocalIndexes
	maxGlobalIndexes = table.MaxGlobalIndexes
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,255}$`)

func validateName(kind, name string) error {
	if !namePattern.MatchString(name) {
		return validationError("%s name %q must be 3-255 characters of [a-zA-Z0-9_.-]", kind, name)
	}
	return nil
}

// keySchema is a validated key schema.
type keySchema struct {
	hash  string
	rng   string
	attrs []string
}

func parseKeySchema(owner string, ks []types.KeySchemaElement, defined map[string]types.ScalarAttributeType) (keySchema, error) {
	if len(ks) == 0 || len(ks) > 2 {
		return keySchema{}, validationError("%s: key schema must have 1 or 2 elements, got %d", owner, len(ks))
	}
	var out keySchema
	for i, k := range ks {
		name := aws.ToString(k.AttributeName)
		if name == "" {
			return keySchema{}, validationError("%s: key schema element %d has no attribute name", owner, i)
		}
		if _, ok := defined[name]; !ok {
			return keySchema{}, validationError("%s: key attribute %s is not defined in AttributeDefinitions", owner, name)
		}
		switch {
		case i == 0 && k.KeyType == types.KeyTypeHash:
			out.hash = name
		case i == 1 && k.KeyType == types.KeyTypeRange:
			if name == out.hash {
				return keySchema{}, validationError("%s: hash and range key cannot both be %s", owner, name)
			}
			out.rng = name
		default:
			return keySchema{}, validationError("%s: invalid key type %q at position %d", owner, k.KeyType, i)
		}
		out.attrs = append(out.attrs, name)
	}
	return out, nil
}

func validateProjection(owner string, p *types.Projection) error {
	if p == nil {
		return validationError("%s: projection is required", owner)
	}
	switch p.ProjectionType {
	case types.ProjectionTypeAll, types.ProjectionTypeKeysOnly:
		if len(p.NonKeyAttributes) > 0 {
			return validationError("%s: NonKeyAttributes are only allowed with projection type INCLUDE", owner)
		}
	case types.ProjectionTypeInclude:
		if len(p.NonKeyAttributes) == 0 {
			return validationError("%s: projection type INCLUDE requires NonKeyAttributes", owner)
		}
	default:
		return validationError("%s: unknown projection type %q", owner, p.ProjectionType)
	}
	return nil
}

func validateThroughput(owner string, billing types.BillingMode, t *types.ProvisionedThroughput) error {
	if billing == types.BillingModePayPerRequest {
		if t != nil {
			return validationError("%s: ProvisionedThroughput cannot be specified when BillingMode is PAY_PER_REQUEST", owner)
		}
		return nil
	}
	if t == nil {
		return validationError("%s: ProvisionedThroughput is required when BillingMode is PROVISIONED", owner)
	}
	if aws.ToInt64(t.ReadCapacityUnits) < 1 || aws.ToInt64(t.WriteCapacityUnits) < 1 {
		return validationError("%s: capacity units must be at least 1", owner)
	}
	return nil
}

func billingMode(b types.BillingMode) (types.BillingMode, error) {
	switch b {
	case "":
		return types.BillingModeProvisioned, nil
	case types.BillingModeProvisioned, types.BillingModePayPerRequest:
		return b, nil
	}
	return "", validationError("unknown billing mode %q", b)
}

func attributeTypes(defs []types.AttributeDefinition) (map[string]types.ScalarAttributeType, error) {
	out := make(map[string]types.ScalarAttributeType, len(defs))
	for _, d := range defs {
		name := aws.ToString(d.AttributeName)
		if name == "" {
			return nil, validationError("attribute definition has no name")
		}
		switch d.AttributeType {
		case types.ScalarAttributeTypeS, types.ScalarAttributeTypeN, types.ScalarAttributeTypeB:
		default:
			return nil, validationError("attribute %s has invalid type %q", name, d.AttributeType)
		}
		if prev, ok := out[name]; ok && prev != d.AttributeType {
			return nil, validationError("attribute %s is defined with conflicting types", name)
		}
		out[name] = d.AttributeType
	}
	return out, nil
}

// validateCreateTable applies the structural rules DynamoDB enforces on CreateTable.
func validateCreateTable(in *dynamodb.CreateTableInput) error {
	if in == nil {
		return validationError("input is required")
	}
	name := aws.ToString(in.TableName)
	if err := validateName("table", name); err != nil {
		return err
	}
	billing, err := billingMode(in.BillingMode)
	if err != nil {
		return err
	}
	defined, err := attributeTypes(in.AttributeDefinitions)
	if err != nil {
		return err
	}
	key, err := parseKeySchema("table "+name, in.KeySchema, defined)
	if err != nil {
		return err
	}
	if err := validateThroughput("table "+name, billing, in.ProvisionedThroughput); err != nil {
		return err
	}

	used := make(map[string]bool)
	for _, a := range key.attrs {
		used[a] = true
	}
	indexNames := make(map[string]bool)

	if len(in.LocalSecondaryIndexes) > maxLocalIndexes {
		return validationError("table %s: at most %d local secondary indexes are allowed", name, maxLocalIndexes)
	}
	for _, lsi := range in.LocalSecondaryIndexes {
		idx := aws.ToString(lsi.IndexName)
		owner := "index " + idx
		if err := validateName("index", idx); err != nil {
			return err
		}
		if indexNames[idx] {
			return validationError("duplicate index name: %s", idx)
		}
		indexNames[idx] = true
		if key.rng == "" {
			return validationError("%s: local secondary indexes require the table to have a range key", owner)
		}
		ks, err := parseKeySchema(owner, lsi.KeySchema, defined)
		if err != nil {
			return err
		}
		if ks.hash != key.hash {
			return validationError("%s: local secondary index hash key must be the table hash key %s", owner, key.hash)
		}
		if ks.rng == "" {
			return validationError("%s: local secondary index requires a range key", owner)
		}
		if err := validateProjection(owner, lsi.Projection); err != nil {
			return err
		}
		for _, a := range ks.attrs {
			used[a] = true
		}
	}

	if len(in.GlobalSecondaryIndexes) > maxGlobalIndexes {
		return validationError("table %s: at most %d global secondary indexes are allowed", name, maxGlobalIndexes)
	}
	for _, gsi := range in.GlobalSecondaryIndexes {
		idx := aws.ToString(gsi.IndexName)
		owner := "index " + idx
		if err := validateName("index", idx); err != nil {
			return err
		}
		if indexNames[idx] {
			return validationError("duplicate index name: %s", idx)
		}
		indexNames[idx] = true
		ks, err := parseKeySchema(owner, gsi.KeySchema, defined)
		if err != nil {
			return err
		}
		if err := validateProjection(owner, gsi.Projection); err != nil {
			return err
		}
		if err := validateThroughput(owner, billing, gsi.ProvisionedThroughput); err != nil {
			return err
		}
		for _, a := range ks.attrs {
			used[a] = true
		}
	}

	if len(used) != len(defined) {
		return validationError("One or more parameter values were invalid: Number of attributes in KeySchema does not exactly match number of attributes defined in AttributeDefinitions")
	}
	return nil
}
