// The compat package makes legacy-format payloads loadable as the
// current shape of a type. A payload written by an older version of a
// program may carry an obsolete type name, or a field layout the
// current type no longer has. Types opt in to redirection by declaring
// a binder (maps old names onto current types) and, when the shape
// changed too, a surrogate (rebuilds a current value from old fields).
//
// Hooks are discovered per load and installed process-wide for its
// duration, so loads are serialized by a global resolution lock.
package compat

import (
	"errors"
	"reflect"
	"sync"
)

var (
	// ErrUnresolvable is returned when a stored type name is already a
	// simple name and cannot be shortened further for a retry.
	ErrUnresolvable = errors.New("compat: type name cannot be simplified")

	// ErrUnknownType is returned when no registered type matches a
	// stored type name.
	ErrUnknownType = errors.New("compat: no registered type for name")
)

// TypeField is the payload field carrying the stored type name of a
// legacy envelope.
const TypeField = "$type"

// Binder maps a legacy stored type name onto a currently loadable type.
type Binder interface {
	BindType(legacyName string) (reflect.Type, bool)
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(legacyName string) (reflect.Type, bool)

func (f BinderFunc) BindType(legacyName string) (reflect.Type, bool) {
	return f(legacyName)
}

// Surrogate rebuilds a current-shape value from the decoded fields of a
// legacy-shaped payload.
type Surrogate interface {
	Rebuild(fields map[string]any) (any, error)
}

// SurrogateFunc adapts a function to the Surrogate interface.
type SurrogateFunc func(fields map[string]any) (any, error)

func (f SurrogateFunc) Rebuild(fields map[string]any) (any, error) {
	return f(fields)
}

// BinderProvider is implemented by types that declare their own binder.
type BinderProvider interface {
	CompatBinder() Binder
}

// SurrogateProvider is implemented by types that declare their own surrogate.
type SurrogateProvider interface {
	CompatSurrogate() Surrogate
}

// Hook is the compatibility hook discovered for a target type.
// The zero value means the type declares no hook.
type Hook struct {
	Binder    Binder
	Surrogate Surrogate
}

var (
	regMu       sync.RWMutex
	binders     = map[reflect.Type]Binder{}
	surrogates  = map[reflect.Type]Surrogate{}
	typesByName = map[string]reflect.Type{}
)

// RegisterBinder associates a binder with a target type. It is the
// registration alternative for types that cannot implement
// BinderProvider themselves. Re-registering replaces the previous
// binder; a nil binder removes it.
func RegisterBinder(t reflect.Type, b Binder) {
	regMu.Lock()
	defer regMu.Unlock()
	if b == nil {
		delete(binders, t)
		return
	}
	binders[t] = b
}

// RegisterSurrogate associates a surrogate with a target type.
// Re-registering replaces the previous surrogate; nil removes it.
func RegisterSurrogate(t reflect.Type, s Surrogate) {
	regMu.Lock()
	defer regMu.Unlock()
	if s == nil {
		delete(surrogates, t)
		return
	}
	surrogates[t] = s
}

// RegisterType associates a stored type name with a type, making
// payloads enveloped under that name loadable. Re-registering a name
// replaces the previous association.
func RegisterType(name string, t reflect.Type) {
	regMu.Lock()
	defer regMu.Unlock()
	typesByName[name] = t
}

// LookupType returns the type registered under the exact name.
func LookupType(name string) (reflect.Type, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	t, ok := typesByName[name]
	return t, ok
}

// HookFor discovers the compatibility hook for a target type.
// Discovery order per slot: a capability interface implemented by the
// type (or its pointer), then the per-type registry. Discovery runs on
// every load and is never cached, so runtime changes to a type's hook
// are observed on the next load. A type without either source gets the
// zero Hook, which is not an error.
func HookFor(t reflect.Type) Hook {
	var h Hook
	if t == nil {
		return h
	}
	if p, ok := capability[BinderProvider](t); ok {
		h.Binder = p.CompatBinder()
	} else {
		regMu.RLock()
		h.Binder = binders[t]
		regMu.RUnlock()
	}
	if p, ok := capability[SurrogateProvider](t); ok {
		h.Surrogate = p.CompatSurrogate()
	} else {
		regMu.RLock()
		h.Surrogate = surrogates[t]
		regMu.RUnlock()
	}
	return h
}

// capability reports whether t (or *t) implements the capability
// interface I, instantiating a zero value to obtain the provider.
func capability[I any](t reflect.Type) (I, bool) {
	var zero I
	if t.Kind() == reflect.Interface {
		return zero, false
	}
	iface := reflect.TypeOf(&zero).Elem()
	switch {
	case t.Implements(iface):
		v := reflect.Zero(t)
		if t.Kind() == reflect.Pointer {
			v = reflect.New(t.Elem())
		}
		return v.Interface().(I), true
	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface):
		return reflect.New(t).Interface().(I), true
	}
	return zero, false
}
