package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-backend/internal/domain"
)

// Document is one stored record. Collection is the full collection path
// the document was read from.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
}

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value any
}

// QueryOptions controls ordering and size of a query.
type QueryOptions struct {
	OrderBy    string
	Descending bool
	Limit      int
}

// WriteKind selects what a WriteOp does.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteMerge
	WriteDelete
)

// WriteOp is one entry of a batch commit.
type WriteOp struct {
	Kind       WriteKind
	Collection string
	ID         string
	Fields     map[string]any
}

// DocumentStore is the contract every service consumes. Collection paths
// may be nested (odd number of segments).
type DocumentStore interface {
	// Get returns (nil, nil) when the document does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters []Filter, opts QueryOptions) ([]Document, error)
	// BatchCommit applies all ops or none.
	BatchCommit(ctx context.Context, ops []WriteOp) error
	// UpdateIf merges fields into an existing document only when every
	// expect entry equals the stored value. A mismatch returns
	// domain.ErrConflict; a missing document returns domain.ErrNotFound.
	UpdateIf(ctx context.Context, collection, id string, expect, fields map[string]any) error
	// ServerTimestamp returns a marker the store replaces with its commit time.
	ServerTimestamp() any
	Close() error
}

// StoreError wraps a transport or permission failure of one store call.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{domain.ErrStore, e.Err} }

// Wrap turns err into a StoreError unless it is nil or already classified
// as not found or conflict.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Path: path, Err: err}
}

// DocPath joins a collection path and a document id.
func DocPath(collection, id string) string {
	return collection + "/" + id
}
