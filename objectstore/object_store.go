// Package objectstore provides a reusable typed store that persists
// arbitrary values into a datastore under caller-supplied names.
//
// By default payloads go through the persist pipeline, so values load
// back with compression and legacy-type compatibility applied. A store
// configured with a custom codec (e.g. encoder.Proto for proto.Message
// values) encodes directly and bypasses that pipeline.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/holmberd/go-persist/compression"
	"github.com/holmberd/go-persist/datastore"
	"github.com/holmberd/go-persist/encoder"
	"github.com/holmberd/go-persist/eventemitter"
	"github.com/holmberd/go-persist/persist"
)

// Event identifies a store notification.
type Event int

const (
	ObjectsSaved Event = iota
	ObjectsRemoved
	ObjectsFlushed
)

func (e Event) String() string {
	switch e {
	case ObjectsSaved:
		return "ObjectsSaved"
	case ObjectsRemoved:
		return "ObjectsRemoved"
	case ObjectsFlushed:
		return "ObjectsFlushed"
	default:
		return fmt.Sprintf("event(%d)", e)
	}
}

// storeEvent is the value delivered to store listeners.
type storeEvent struct {
	ctx   context.Context
	names []string
}

// StoreListener receives the object names affected by a store operation.
type StoreListener func(ctx context.Context, names []string)

type eventTarget struct {
	t *eventemitter.EventTarget[storeEvent]
}

func (e *eventTarget) AddListener(listener StoreListener) eventemitter.ListenerToken {
	return e.t.AddListener(func(ev storeEvent) {
		listener(ev.ctx, ev.names)
	})
}

func (e *eventTarget) RemoveListener(token eventemitter.ListenerToken) bool {
	return e.t.RemoveListener(token)
}

func (e *eventTarget) emit(ctx context.Context, names []string) bool {
	return e.t.Emit(storeEvent{ctx: ctx, names: names})
}

// Store provides a reusable datastore-backed persistence surface for an
// object kind/type.
type Store[T any] struct {
	kind      string // Required logical object identifier.
	namespace string // Optional key namespace.
	dsClient  *datastore.Client
	codec     encoder.Codec // nil selects the persist pipeline.
	mode      compression.Mode
	onSaved   *eventTarget
	onRemoved *eventTarget
	onFlushed *eventTarget
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	codec encoder.Codec
	mode  compression.Mode
}

// WithCodec selects a custom payload codec instead of the persist
// pipeline. Loads through a custom codec skip legacy-type resolution.
func WithCodec(c encoder.Codec) Option {
	return func(cfg *storeConfig) { cfg.codec = c }
}

// WithMode selects the compression applied to stored payloads.
func WithMode(m compression.Mode) Option {
	return func(cfg *storeConfig) { cfg.mode = m }
}

// New creates a new instance of a store.
func New[T any](kind, namespace string, dsClient *datastore.Client, opts ...Option) (*Store[T], error) {
	if kind == "" {
		return nil, errors.New("objectstore: object kind must not be empty")
	}
	if err := validateKeyFragment(kind); err != nil {
		return nil, err
	}
	if namespace != "" {
		if err := validateKeyFragment(namespace); err != nil {
			return nil, err
		}
	}
	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[T]{
		kind:      kind,
		namespace: namespace,
		dsClient:  dsClient,
		codec:     cfg.codec,
		mode:      cfg.mode,
		onSaved:   &eventTarget{eventemitter.NewEventTarget[storeEvent](ObjectsSaved.String())},
		onRemoved: &eventTarget{eventemitter.NewEventTarget[storeEvent](ObjectsRemoved.String())},
		onFlushed: &eventTarget{eventemitter.NewEventTarget[storeEvent](ObjectsFlushed.String())},
	}, nil
}

func (s *Store[T]) Kind() string {
	return s.kind
}

func (s *Store[T]) OnSaved() *eventTarget {
	return s.onSaved
}

func (s *Store[T]) OnRemoved() *eventTarget {
	return s.onRemoved
}

func (s *Store[T]) OnFlushed() *eventTarget {
	return s.onFlushed
}

// Save persists v under name. If the name doesn't exist it's added,
// otherwise its payload is replaced. A zero expiration stores the
// object without a TTL.
func (s *Store[T]) Save(ctx context.Context, name string, v T, expiration time.Duration) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	data, err := s.encode(v)
	if err != nil {
		return err
	}
	if err := s.dsClient.Put(ctx, key, data, expiration); err != nil {
		return err
	}
	s.onSaved.emit(ctx, []string{name})
	return nil
}

// SaveBatch persists multiple objects in a batch operation.
func (s *Store[T]) SaveBatch(ctx context.Context, names []string, values []T, expiration time.Duration) error {
	if len(names) != len(values) {
		return errors.New("objectstore: name and value slices have different length")
	}
	if len(names) == 0 {
		return nil // No-op for empty batch.
	}
	keys := make([]string, len(names))
	data := make([][]byte, len(names))
	for i, name := range names {
		key, err := s.key(name)
		if err != nil {
			return err
		}
		d, err := s.encode(values[i])
		if err != nil {
			return fmt.Errorf("objectstore: failed to encode object '%s': %w", name, err)
		}
		keys[i] = key
		data[i] = d
	}
	if err := s.dsClient.PutMulti(ctx, keys, data, expiration); err != nil {
		return err
	}
	s.onSaved.emit(ctx, names)
	return nil
}

// Load retrieves the object stored under name.
// datastore.ErrKeyNotFound is returned if the name is not found in the store.
func (s *Store[T]) Load(ctx context.Context, name string) (T, error) {
	var zero T
	key, err := s.key(name)
	if err != nil {
		return zero, err
	}
	data, err := s.dsClient.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	return s.decode(data)
}

// LoadAll retrieves all objects of the store's kind.
// Objects removed between listing and retrieval are skipped.
//
// NOTE: This is a blocking operation.
func (s *Store[T]) LoadAll(ctx context.Context) ([]T, error) {
	keys, err := s.dsClient.GetKeys(ctx, s.pattern())
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	data, err := s.dsClient.GetMulti(ctx, keys)
	if err != nil {
		return nil, err
	}
	values := make([]T, len(data))
	for i, d := range data {
		values[i], err = s.decode(d)
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Names lists the names of all objects of the store's kind.
func (s *Store[T]) Names(ctx context.Context) ([]string, error) {
	keys, err := s.dsClient.ScanKeys(ctx, s.pattern())
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = strings.TrimPrefix(key, s.keyPrefix())
	}
	return names, nil
}

// Delete removes the objects stored under the given names.
func (s *Store[T]) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil // No-op for empty names.
	}
	keys := make([]string, len(names))
	for i, name := range names {
		key, err := s.key(name)
		if err != nil {
			return err
		}
		keys[i] = key
	}
	if err := s.dsClient.Delete(ctx, keys...); err != nil {
		return err
	}
	s.onRemoved.emit(ctx, names)
	return nil
}

// Exists checks whether an object exists under name.
func (s *Store[T]) Exists(ctx context.Context, name string) (bool, error) {
	key, err := s.key(name)
	if err != nil {
		return false, err
	}
	return s.dsClient.Exists(ctx, key)
}

// flush deletes all objects of the store's kind, used in e.g. tests.
// It triggers the ObjectsFlushed event.
func (s *Store[T]) flush(ctx context.Context) error {
	if err := s.dsClient.DeleteMatch(ctx, s.pattern()); err != nil {
		return err
	}
	s.onFlushed.emit(ctx, []string{})
	return nil
}

func (s *Store[T]) encode(v T) ([]byte, error) {
	if s.codec == nil {
		return persist.SaveBytes(v, s.mode)
	}
	data, err := s.codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("objectstore: %w", err)
	}
	return compression.Compress(data, s.mode)
}

func (s *Store[T]) decode(data []byte) (T, error) {
	if s.codec == nil {
		return persist.LoadBytes[T](data, s.mode)
	}
	var zero T
	data, err := compression.Decompress(data, s.mode)
	if err != nil {
		return zero, err
	}
	// Pointer-typed objects need their element allocated before the
	// codec can unmarshal into them.
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Pointer {
		out := reflect.New(t.Elem()).Interface()
		if err := s.codec.Unmarshal(data, out); err != nil {
			return zero, fmt.Errorf("objectstore: %w", err)
		}
		return out.(T), nil
	}
	out := new(T)
	if err := s.codec.Unmarshal(data, out); err != nil {
		return zero, fmt.Errorf("objectstore: %w", err)
	}
	return *out, nil
}
