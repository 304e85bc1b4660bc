// Package firestore is the production DocumentStore backed by Cloud
// Firestore through the Firebase Admin SDK.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/repository"
)

// Config selects the project and credentials.
type Config struct {
	ProjectID       string
	CredentialsFile string
	EmulatorHost    string
}

// Store wraps a Firestore client.
type Store struct {
	client *firestore.Client
}

// New connects to Firestore. When EmulatorHost is set the client talks to
// the local emulator and credentials are ignored.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.EmulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to configure emulator: %w", err)
		}
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" && cfg.EmulatorHost == "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	logger.ExternalServiceCall("Firebase", "NewApp", "projectID", cfg.ProjectID)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		logger.ExternalServiceResult("Firebase", "NewApp", err)
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	logger.ExternalServiceResult("Firebase", "Firestore", err)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	path := repository.DocPath(collection, id)
	logger.StoreCall("get", path)
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		logger.StoreResult("get", path, 0, nil)
		return nil, nil
	}
	if err != nil {
		logger.StoreResult("get", path, 0, err)
		return nil, repository.Wrap("get", path, err)
	}
	logger.StoreResult("get", path, 1, nil)
	return &repository.Document{Collection: collection, ID: id, Data: snap.Data()}, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	path := repository.DocPath(collection, id)
	logger.StoreCall("set", path, "merge", merge)
	ref := s.client.Collection(collection).Doc(id)
	var err error
	if merge {
		_, err = ref.Set(ctx, fields, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, fields)
	}
	logger.StoreResult("set", path, 1, err)
	return repository.Wrap("set", path, err)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	path := repository.DocPath(collection, id)
	logger.StoreCall("delete", path)
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	logger.StoreResult("delete", path, 1, err)
	return repository.Wrap("delete", path, err)
}

func (s *Store) Query(ctx context.Context, collection string, filters []repository.Filter, opts repository.QueryOptions) ([]repository.Document, error) {
	logger.StoreCall("query", collection, "filters", len(filters), "orderBy", opts.OrderBy, "limit", opts.Limit)

	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	if opts.OrderBy != "" {
		dir := firestore.Asc
		if opts.Descending {
			dir = firestore.Desc
		}
		q = q.OrderBy(opts.OrderBy, dir)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []repository.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			logger.StoreResult("query", collection, len(out), err)
			return nil, repository.Wrap("query", collection, err)
		}
		out = append(out, repository.Document{Collection: collection, ID: snap.Ref.ID, Data: snap.Data()})
	}
	logger.StoreResult("query", collection, len(out), nil)
	return out, nil
}

func (s *Store) BatchCommit(ctx context.Context, ops []repository.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	logger.StoreCall("batch", ops[0].Collection, "ops", len(ops))

	batch := s.client.Batch()
	for _, op := range ops {
		ref := s.client.Collection(op.Collection).Doc(op.ID)
		switch op.Kind {
		case repository.WriteDelete:
			batch.Delete(ref)
		case repository.WriteMerge:
			batch.Set(ref, op.Fields, firestore.MergeAll)
		default:
			batch.Set(ref, op.Fields)
		}
	}
	_, err := batch.Commit(ctx)
	logger.StoreResult("batch", ops[0].Collection, len(ops), err)
	return repository.Wrap("batch", ops[0].Collection, err)
}

func (s *Store) UpdateIf(ctx context.Context, collection, id string, expect, fields map[string]any) error {
	path := repository.DocPath(collection, id)
	logger.StoreCall("update_if", path, "expect", expect)
	ref := s.client.Collection(collection).Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		data := snap.Data()
		for k, want := range expect {
			if !sameValue(data[k], want) {
				return domain.ErrConflict
			}
		}
		return tx.Set(ref, fields, firestore.MergeAll)
	})
	logger.StoreResult("update_if", path, 1, err)
	return repository.Wrap("update_if", path, err)
}

func (s *Store) ServerTimestamp() any { return firestore.ServerTimestamp }

func (s *Store) Close() error { return s.client.Close() }

// sameValue compares a stored value with an expected Go value. Firestore
// returns every integer as int64 and every string-kinded value as string.
func sameValue(stored, want any) bool {
	if stored == nil || want == nil {
		return stored == nil && want == nil
	}
	rv := reflect.ValueOf(want)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := stored.(int64)
		return ok && n == rv.Int()
	case reflect.String:
		str, ok := stored.(string)
		return ok && str == rv.String()
	}
	return reflect.DeepEqual(stored, want)
}

var _ repository.DocumentStore = (*Store)(nil)
