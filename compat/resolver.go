package compat

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/holmberd/go-persist/coerce"
)

// resolveMu is the global resolution lock. The active hook below is
// process-wide state consulted by name resolution, so at most one load
// may be resolving legacy type names at a time. Loads queue on this
// lock; saves never touch it.
var (
	resolveMu  sync.Mutex
	activeHook Hook
)

// Install acquires the global resolution lock and publishes hook as
// the active resolver for the duration of a load. The returned release
// function uninstalls the hook and releases the lock; callers must run
// it on every exit path, success or failure.
func Install(hook Hook) (release func()) {
	resolveMu.Lock()
	activeHook = hook
	return func() {
		activeHook = Hook{}
		resolveMu.Unlock()
	}
}

// Resolve maps a stored type name onto a loadable type. The active
// binder is consulted first, then the registry by full name. When
// neither matches, a single retry shortens the name to its simple
// component; a name that is already simple fails with ErrUnresolvable
// rather than retrying.
//
// Resolve must only be called between Install and its release.
func Resolve(name string) (reflect.Type, error) {
	if activeHook.Binder != nil {
		if t, ok := activeHook.Binder.BindType(name); ok {
			return t, nil
		}
	}
	if t, ok := LookupType(name); ok {
		return t, nil
	}
	simple := simpleName(name)
	if simple == name {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvable, name)
	}
	if t, ok := lookupSimple(simple); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Materialize reconstructs a value of the type named by a legacy
// envelope from its decoded fields. The active surrogate, when
// present, owns reconstruction; otherwise the fields are coerced into
// a fresh instance of the resolved type.
func Materialize(name string, fields map[string]any) (any, error) {
	t, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	if activeHook.Surrogate != nil {
		return activeHook.Surrogate.Rebuild(fields)
	}
	return coerce.To(t, fields)
}

// Envelope reports whether a decoded value is a legacy payload
// envelope, splitting it into the stored type name and the value's
// fields.
func Envelope(v any) (name string, fields map[string]any, ok bool) {
	m, isMap := v.(map[string]any)
	if !isMap {
		return "", nil, false
	}
	raw, present := m[TypeField]
	if !present {
		return "", nil, false
	}
	name, isString := raw.(string)
	if !isString {
		return "", nil, false
	}
	fields = make(map[string]any, len(m)-1)
	for k, val := range m {
		if k != TypeField {
			fields[k] = val
		}
	}
	return name, fields, true
}

// simpleName strips a trailing qualifier after the first comma and any
// namespace or package path before the last separator.
func simpleName(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// lookupSimple retries the registry by simple name, matching each
// registered full name on its own simple component.
func lookupSimple(simple string) (reflect.Type, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	for full, t := range typesByName {
		if full == simple || simpleName(full) == simple {
			return t, true
		}
	}
	return nil, false
}
