package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/repositories"
)

// Key layout:
//
//	section/<id>                  section record
//	section-slug/<slug>           section id
//	version/<id>                  version record
//	section-version/<sid>/<vid>   empty, index of a section's versions
//	live/<sid>/<status>           id of the section's draft or published version
//	backup/<id>                   backup record
const (
	sectionPrefix        = "section/"
	sectionSlugPrefix    = "section-slug/"
	versionPrefix        = "version/"
	sectionVersionPrefix = "section-version/"
	livePrefix           = "live/"
	backupPrefix         = "backup/"
)

// Store owns the database handle shared by the repositories
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewStore wraps an open database
func NewStore(db *badger.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

type txnKey struct{}

// ExecTx runs fn in one read-write transaction. Repositories called with the ctx
// handed to fn join it; nested calls reuse the outer transaction.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if txnFrom(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(context.WithValue(ctx, txnKey{}, txn)); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// TransactionManager exposes the store as a repositories.TransactionManager
func (s *Store) TransactionManager() repositories.TransactionManager {
	return s
}

func txnFrom(ctx context.Context) *badger.Txn {
	txn, _ := ctx.Value(txnKey{}).(*badger.Txn)
	return txn
}

// update runs fn in the ambient transaction or a fresh read-write one
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if txn := txnFrom(ctx); txn != nil {
		return fn(txn)
	}
	err := s.db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return storeErr("commit", err)
	}
	return err
}

// view runs fn in the ambient transaction or a fresh read-only one
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if txn := txnFrom(ctx); txn != nil {
		return fn(txn)
	}
	return s.db.View(fn)
}

// getJSON decodes the value at key into dest. Missing keys yield notFound.
func getJSON(txn *badger.Txn, key string, dest any, notFound error) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound
		}
		return storeErr("get "+key, err)
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return storeErr("read "+key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w: %w", key, domain.ErrPersistence, err)
	}
	return nil
}

func putJSON(txn *badger.Txn, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), raw); err != nil {
		return storeErr("set "+key, err)
	}
	return nil
}

// getString returns the value at key, or "" when absent
func getString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", storeErr("get "+key, err)
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return "", storeErr("read "+key, err)
	}
	return string(raw), nil
}

func setString(txn *badger.Txn, key, value string) error {
	if err := txn.Set([]byte(key), []byte(value)); err != nil {
		return storeErr("set "+key, err)
	}
	return nil
}

func deleteKey(txn *badger.Txn, key string) error {
	if err := txn.Delete([]byte(key)); err != nil {
		return storeErr("delete "+key, err)
	}
	return nil
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	}
	return false, storeErr("get "+key, err)
}

// keysWithPrefix returns the key suffixes under prefix without loading values.
// Read-write transactions allow one iterator at a time, so callers collect first
// and load afterwards.
func keysWithPrefix(txn *badger.Txn, prefix string) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var suffixes []string
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		suffixes = append(suffixes, string(it.Item().Key()[len(prefix):]))
	}
	return suffixes
}

func storeErr(op string, err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%s: concurrent write, retry the operation", op),
			ResourceType: "transaction",
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
