package ddbstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/acksell/ddbmodel/dynamodb/ddbiface"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

// Store is a local DynamoDB control plane backed by BadgerDB.
// It keeps a catalog of table descriptions and validates requests the way
// DynamoDB does, so provisioning code can be exercised without AWS.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ ddbiface.ControlPlane = (*Store)(nil)

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger receives store and BadgerDB logs. If nil, BadgerDB logging is
	// disabled and the store logs to slog.Default().
	Logger *slog.Logger
}

// New opens the store and creates any of defs that do not exist yet.
func New(opts StoreOptions, defs ...table.TableDefinition) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)

	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	logger := opts.Logger
	if logger != nil {
		badgerOpts = badgerOpts.WithLogger(badgerLogger{logger: logger})
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "ddbstore"),
		now:    time.Now,
	}

	for _, def := range defs {
		_, err := s.CreateTable(context.Background(), def.CreateTableInput())
		if err != nil && !isResourceInUse(err) {
			db.Close()
			return nil, fmt.Errorf("create table %s: %w", def.Name, err)
		}
	}
	return s, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getTable(txn *badger.Txn, name string) (*tableRecord, error) {
	item, err := txn.Get(tableKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, tableNotFound(name)
	}
	if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decodeTable(val)
}

func (s *Store) putTable(txn *badger.Txn, rec *tableRecord) error {
	val, err := encodeTable(rec)
	if err != nil {
		return err
	}
	return txn.Set(tableKey(rec.Description.TableName), val)
}

// ExistingTables returns the description of every table in the catalog, ordered by name.
func (s *Store) ExistingTables() ([]table.Description, error) {
	var descs []table.Description
	err := s.db.View(func(txn *badger.Txn) error {
		return iterateTables(txn, "", func(rec *tableRecord) bool {
			descs = append(descs, rec.Description)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return descs, nil
}

func (s *Store) checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
