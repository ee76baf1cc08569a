package ddbstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"

	"github.com/acksell/ddbmodel/dynamodb/table"
)

// Catalog layout in BadgerDB:
//
//	$table:<name> -> JSON tableRecord
//
// Badger iterates keys in byte order, so listing tables under the prefix
// yields them sorted by name, which is the order ListTables reports.
const tablePrefix = "$table:"

const localAccountID = "000000000000"

func tableKey(name string) []byte {
	return []byte(tablePrefix + name)
}

func tableNameFromKey(key []byte) string {
	return string(bytes.TrimPrefix(key, []byte(tablePrefix)))
}

// tableRecord is what the store persists per table: the normalized
// description plus the settings DescribeTable echoes that the description
// does not model.
type tableRecord struct {
	Description    table.Description    `json:"description"`
	CreatedAt      time.Time            `json:"createdAt"`
	StreamViewType types.StreamViewType `json:"streamViewType,omitempty"`
	TimeToLive     string               `json:"timeToLive,omitempty"`
}

func encodeTable(rec *tableRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode table %s: %w", rec.Description.TableName, err)
	}
	return data, nil
}

func decodeTable(data []byte) (*tableRecord, error) {
	var rec tableRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return &rec, nil
}

// ddb renders the record as DescribeTable reports it.
func (r *tableRecord) ddb() *types.TableDescription {
	desc := r.Description.DDB()
	desc.CreationDateTime = aws.Time(r.CreatedAt)
	desc.TableArn = aws.String(tableArn(r.Description.TableName))
	if r.StreamViewType != "" {
		desc.StreamSpecification = &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: r.StreamViewType,
		}
		desc.LatestStreamArn = aws.String(tableArn(r.Description.TableName) + "/stream/" + r.CreatedAt.UTC().Format("2006-01-02T15:04:05.000"))
	}
	return desc
}

func tableArn(name string) string {
	return "arn:aws:dynamodb:local:" + localAccountID + ":table/" + name
}

// iterateTables walks the catalog in name order, starting after the
// exclusive start name. fn returns false to stop.
func iterateTables(txn *badger.Txn, exclusiveStart string, fn func(*tableRecord) bool) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(tablePrefix)
	seek := prefix
	if exclusiveStart != "" {
		seek = tableKey(exclusiveStart)
	}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if exclusiveStart != "" && tableNameFromKey(item.Key()) == exclusiveStart {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err := decodeTable(val)
		if err != nil {
			return err
		}
		if !fn(rec) {
			return nil
		}
	}
	return nil
}
