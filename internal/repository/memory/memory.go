// Package memory is an in-process DocumentStore used for local development
// and tests. Values are normalized to the shapes Firestore returns, so code
// exercised against it decodes documents the same way as in production.
package memory

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-backend/internal/domain"
	"campus-backend/internal/repository"
)

type serverTimestamp struct{}

// Store keeps documents per collection path.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	failWith    func(op, path string) error
	now         func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// FailWith installs a hook consulted before every operation. A non-nil
// return fails that operation. path is the document path for single-document
// operations and the collection path for queries.
func (s *Store) FailWith(fn func(op, path string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = fn
}

// SetClock overrides the time used for server timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) fail(op, path string) error {
	if s.failWith == nil {
		return nil
	}
	if err := s.failWith(op, path); err != nil {
		return &repository.StoreError{Op: op, Path: path, Err: err}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get", repository.DocPath(collection, id)); err != nil {
		return nil, err
	}
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return &repository.Document{Collection: collection, ID: id, Data: copyMap(data)}, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("set", repository.DocPath(collection, id)); err != nil {
		return err
	}
	s.write(collection, id, fields, merge)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete", repository.DocPath(collection, id)); err != nil {
		return err
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filters []repository.Filter, opts repository.QueryOptions) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("query", collection); err != nil {
		return nil, err
	}

	var out []repository.Document
	for id, data := range s.collections[collection] {
		if matches(data, filters) {
			out = append(out, repository.Document{Collection: collection, ID: id, Data: copyMap(data)})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if opts.OrderBy != "" {
			c := compare(out[i].Data[opts.OrderBy], out[j].Data[opts.OrderBy])
			if c != 0 {
				if opts.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].ID < out[j].ID
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) BatchCommit(ctx context.Context, ops []repository.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if err := s.fail("batch", repository.DocPath(op.Collection, op.ID)); err != nil {
			return err
		}
	}
	for _, op := range ops {
		switch op.Kind {
		case repository.WriteDelete:
			delete(s.collections[op.Collection], op.ID)
		case repository.WriteMerge:
			s.write(op.Collection, op.ID, op.Fields, true)
		default:
			s.write(op.Collection, op.ID, op.Fields, false)
		}
	}
	return nil
}

func (s *Store) UpdateIf(ctx context.Context, collection, id string, expect, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := repository.DocPath(collection, id)
	if err := s.fail("update_if", path); err != nil {
		return err
	}
	data, ok := s.collections[collection][id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, want := range expect {
		if !reflect.DeepEqual(data[k], s.normalize(want)) {
			return domain.ErrConflict
		}
	}
	s.write(collection, id, fields, true)
	return nil
}

func (s *Store) ServerTimestamp() any { return serverTimestamp{} }

func (s *Store) Close() error { return nil }

// Collection returns a copy of every document of a collection path, keyed
// by id.
func (s *Store) Collection(collection string) map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		out[id] = copyMap(data)
	}
	return out
}

// Collections lists the collection paths that start with prefix.
func (s *Store) Collections(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for c, docs := range s.collections {
		if strings.HasPrefix(c, prefix) && len(docs) > 0 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) write(collection, id string, fields map[string]any, merge bool) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	incoming, _ := s.normalize(fields).(map[string]any)
	if incoming == nil {
		incoming = map[string]any{}
	}
	if existing, ok := docs[id]; ok && merge {
		mergeInto(existing, incoming)
		return
	}
	docs[id] = incoming
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				mergeInto(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// normalize converts Go values to the shapes the Firestore client returns:
// int64, float64, string, bool, time.Time, []any and map[string]any.
func (s *Store) normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case serverTimestamp:
		return s.now()
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case []byte:
		return append([]byte(nil), t...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = s.normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = s.normalize(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return s.normalize(rv.Elem().Interface())
	}
	return v
}

func matches(data map[string]any, filters []repository.Filter) bool {
	for _, f := range filters {
		got, ok := data[f.Field]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(got, plain(f.Value)) {
			return false
		}
	}
	return true
}

// plain normalizes a filter operand without touching the clock.
func plain(v any) any {
	return (&Store{now: time.Now}).normalize(v)
}

func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return 0
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}

var _ repository.DocumentStore = (*Store)(nil)

// ErrInjected is a convenience error for FailWith hooks.
var ErrInjected = errors.New("injected failure")
